package combat

import (
	"math"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
)

// Battlefield dimensions. Every encounter uses the same fixed board.
const (
	GridWidth  = 8
	GridHeight = 6
)

// Grid is the battlefield topology: a fixed 8x6 board with permanent
// obstacles and at most one living stack per tile.
type Grid struct {
	obstacles map[entities.Position]bool
	occupants map[entities.Position]*entities.Stack
}

// NewGrid creates an empty grid with the given obstacle tiles. Obstacles
// outside the board are ignored.
func NewGrid(obstacles ...entities.Position) *Grid {
	g := &Grid{
		obstacles: make(map[entities.Position]bool),
		occupants: make(map[entities.Position]*entities.Stack),
	}
	for _, p := range obstacles {
		if g.InBounds(p) {
			g.obstacles[p] = true
		}
	}
	return g
}

// InBounds reports whether a position lies on the board
func (g *Grid) InBounds(p entities.Position) bool {
	return p.X >= 0 && p.X < GridWidth && p.Y >= 0 && p.Y < GridHeight
}

// Passable reports whether a tile can ever be entered
func (g *Grid) Passable(p entities.Position) bool {
	return g.InBounds(p) && !g.obstacles[p]
}

// OccupantAt returns the stack on a tile, nil if empty
func (g *Grid) OccupantAt(p entities.Position) *entities.Stack {
	return g.occupants[p]
}

// Free reports whether a stack may end its movement on the tile
func (g *Grid) Free(p entities.Position) bool {
	return g.Passable(p) && g.occupants[p] == nil
}

// Place puts a stack on a tile. Double occupancy is an engine invariant
// violation, not a rejectable player action.
func (g *Grid) Place(stack *entities.Stack, p entities.Position) error {
	if !g.Passable(p) {
		return errors.Internalf("cannot place stack %s on impassable tile (%d,%d)", stack.ID, p.X, p.Y)
	}
	if occ := g.occupants[p]; occ != nil && occ != stack {
		return errors.Internalf("tile (%d,%d) already occupied by %s", p.X, p.Y, occ.ID)
	}
	g.occupants[p] = stack
	stack.Position = p
	return nil
}

// Move relocates a stack to a free tile
func (g *Grid) Move(stack *entities.Stack, p entities.Position) error {
	if !g.Free(p) {
		return errors.Internalf("cannot move stack %s onto tile (%d,%d)", stack.ID, p.X, p.Y)
	}
	delete(g.occupants, stack.Position)
	g.occupants[p] = stack
	stack.Position = p
	return nil
}

// Obstacles returns the obstacle tiles in reading order
func (g *Grid) Obstacles() []entities.Position {
	return sortPositions(g.obstacles)
}

// CoverBetween reports whether an obstacle sits on the straight firing line
// between two tiles, endpoints excluded. Shots over cover land at half
// strength.
func (g *Grid) CoverBetween(from, to entities.Position) bool {
	for _, p := range lineBetween(from, to) {
		if g.obstacles[p] {
			return true
		}
	}
	return false
}

// lineBetween interpolates the tiles strictly between two positions,
// rounding each sample to the nearest tile
func lineBetween(from, to entities.Position) []entities.Position {
	steps := from.ChebyshevTo(to)
	if steps <= 1 {
		return nil
	}
	tiles := make([]entities.Position, 0, steps-1)
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		tiles = append(tiles, entities.Position{
			X: int(math.Round(float64(from.X) + float64(to.X-from.X)*t)),
			Y: int(math.Round(float64(from.Y) + float64(to.Y-from.Y)*t)),
		})
	}
	return tiles
}

// Remove takes a stack off the board (death or encounter end)
func (g *Grid) Remove(stack *entities.Stack) {
	if g.occupants[stack.Position] == stack {
		delete(g.occupants, stack.Position)
	}
}

// neighbourOffsets is the fixed BFS expansion order. Keeping it stable is
// what makes path selection deterministic across runs.
var neighbourOffsets = [4]entities.Position{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
}

// ReachableTiles returns every tile the stack can end movement on within
// budget tiles. Occupied tiles block traversal and are never included.
// Flying stacks traverse over obstacles and occupants but still need a free
// destination.
func (g *Grid) ReachableTiles(stack *entities.Stack, budget int, flying bool) map[entities.Position]bool {
	reachable := make(map[entities.Position]bool)
	if budget <= 0 {
		return reachable
	}

	type node struct {
		pos  entities.Position
		cost int
	}
	visited := map[entities.Position]bool{stack.Position: true}
	queue := []node{{pos: stack.Position}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.cost == budget {
			continue
		}
		for _, off := range neighbourOffsets {
			next := entities.Position{X: cur.pos.X + off.X, Y: cur.pos.Y + off.Y}
			if visited[next] {
				continue
			}
			if !g.InBounds(next) {
				continue
			}
			if !flying && (!g.Passable(next) || g.occupants[next] != nil) {
				continue
			}
			visited[next] = true
			queue = append(queue, node{pos: next, cost: cur.cost + 1})
			if g.Free(next) {
				reachable[next] = true
			}
		}
	}
	return reachable
}

// ShortestPath returns a minimal-cost path from the stack's position to
// dest, excluding the start and including dest, or nil when dest is not
// reachable within budget. The fixed neighbour order fixes tie-breaks.
func (g *Grid) ShortestPath(stack *entities.Stack, dest entities.Position, budget int, flying bool) []entities.Position {
	if !g.Free(dest) || budget <= 0 {
		return nil
	}

	type node struct {
		pos  entities.Position
		cost int
	}
	parent := map[entities.Position]entities.Position{}
	visited := map[entities.Position]bool{stack.Position: true}
	queue := []node{{pos: stack.Position}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.pos == dest {
			path := []entities.Position{}
			for p := dest; p != stack.Position; p = parent[p] {
				path = append(path, p)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}
		if cur.cost == budget {
			continue
		}
		for _, off := range neighbourOffsets {
			next := entities.Position{X: cur.pos.X + off.X, Y: cur.pos.Y + off.Y}
			if visited[next] {
				continue
			}
			if !g.InBounds(next) {
				continue
			}
			// Intermediate tiles must be traversable; flyers pass over
			// anything in bounds. The destination is known free.
			if !flying && (!g.Passable(next) || g.occupants[next] != nil) {
				continue
			}
			visited[next] = true
			parent[next] = cur.pos
			queue = append(queue, node{pos: next, cost: cur.cost + 1})
		}
	}
	return nil
}

// InAttackRange reports whether the target sits inside the attacker's
// range band. Manhattan distance, matching the movement metric. Adjacent
// targets are always attackable: every stack can strike in melee even when
// its ranged band excludes close quarters.
func InAttackRange(attacker, target *entities.Stack) bool {
	dist := attacker.Position.ManhattanTo(target.Position)
	if dist == 1 {
		return true
	}
	minRange := attacker.Stats.MinRange
	if minRange < 1 {
		minRange = 1
	}
	maxRange := attacker.Stats.AttackRange
	if maxRange < 1 {
		maxRange = 1
	}
	return dist >= minRange && dist <= maxRange
}
