package combat_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tactics-api/internal/combat"
	"github.com/KirkDiggler/tactics-api/internal/entities"
)

type GridTestSuite struct {
	suite.Suite
	grid *combat.Grid
}

func TestGridSuite(t *testing.T) {
	suite.Run(t, new(GridTestSuite))
}

func (s *GridTestSuite) SetupTest() {
	s.grid = combat.NewGrid()
}

func (s *GridTestSuite) newStack(id string, pos entities.Position) *entities.Stack {
	stack := entities.NewStack(id, entities.SidePlayer, entities.StackSpec{
		Stats: entities.StackStats{Name: "Walker", MaxHP: 10, Speed: 3},
		Count: 1,
	})
	s.Require().NoError(s.grid.Place(stack, pos))
	return stack
}

func (s *GridTestSuite) TestPlaceRejectsDoubleOccupancy() {
	s.newStack("stack_1", entities.Position{X: 2, Y: 2})
	other := entities.NewStack("stack_2", entities.SideEnemy, entities.StackSpec{
		Stats: entities.StackStats{MaxHP: 10},
		Count: 1,
	})

	err := s.grid.Place(other, entities.Position{X: 2, Y: 2})
	s.Assert().Error(err)
}

func (s *GridTestSuite) TestObstaclesBlockPlacementAndMovement() {
	grid := combat.NewGrid(entities.Position{X: 3, Y: 3})
	s.Assert().False(grid.Passable(entities.Position{X: 3, Y: 3}))
	s.Assert().True(grid.Passable(entities.Position{X: 3, Y: 2}))
	s.Assert().False(grid.InBounds(entities.Position{X: 8, Y: 0}))
	s.Assert().False(grid.InBounds(entities.Position{X: 0, Y: -1}))
}

func (s *GridTestSuite) TestCoverBetween() {
	grid := combat.NewGrid(entities.Position{X: 2, Y: 2})

	s.Assert().True(grid.CoverBetween(entities.Position{X: 0, Y: 2}, entities.Position{X: 4, Y: 2}))
	s.Assert().True(grid.CoverBetween(entities.Position{X: 0, Y: 0}, entities.Position{X: 4, Y: 4}))
	s.Assert().False(grid.CoverBetween(entities.Position{X: 0, Y: 0}, entities.Position{X: 4, Y: 0}))
	// Endpoints never count as cover.
	s.Assert().False(grid.CoverBetween(entities.Position{X: 2, Y: 2}, entities.Position{X: 3, Y: 2}))
}

func (s *GridTestSuite) TestReachableTilesRespectBudget() {
	stack := s.newStack("stack_1", entities.Position{X: 0, Y: 0})

	one := s.grid.ReachableTiles(stack, 1, false)
	s.Assert().Len(one, 2)
	s.Assert().True(one[entities.Position{X: 1, Y: 0}])
	s.Assert().True(one[entities.Position{X: 0, Y: 1}])

	two := s.grid.ReachableTiles(stack, 2, false)
	for p := range one {
		s.Assert().True(two[p], "bigger budgets keep every closer tile")
	}
	s.Assert().True(two[entities.Position{X: 1, Y: 1}])
	s.Assert().False(two[entities.Position{X: 0, Y: 0}], "own tile is not a destination")
}

func (s *GridTestSuite) TestOccupiedTilesBlockGroundTraversal() {
	// Corridor at y=0: a blocker at (1,0) and an obstacle at (1,1) force a
	// long detour around row 1.
	grid := combat.NewGrid(entities.Position{X: 1, Y: 1})
	mover := entities.NewStack("stack_1", entities.SidePlayer, entities.StackSpec{
		Stats: entities.StackStats{MaxHP: 10},
		Count: 1,
	})
	blocker := entities.NewStack("stack_2", entities.SideEnemy, entities.StackSpec{
		Stats: entities.StackStats{MaxHP: 10},
		Count: 1,
	})
	s.Require().NoError(grid.Place(mover, entities.Position{X: 0, Y: 0}))
	s.Require().NoError(grid.Place(blocker, entities.Position{X: 1, Y: 0}))

	reachable := grid.ReachableTiles(mover, 2, false)
	s.Assert().False(reachable[entities.Position{X: 2, Y: 0}],
		"ground movement cannot pass through an occupied tile")
	s.Assert().False(reachable[entities.Position{X: 1, Y: 0}],
		"occupied tiles are never destinations")

	flying := grid.ReachableTiles(mover, 2, true)
	s.Assert().True(flying[entities.Position{X: 2, Y: 0}],
		"flyers pass over occupants")
	s.Assert().False(flying[entities.Position{X: 1, Y: 0}],
		"flyers still need a free destination")
}

func (s *GridTestSuite) TestShortestPathIsDeterministic() {
	stack := s.newStack("stack_1", entities.Position{X: 0, Y: 0})
	dest := entities.Position{X: 2, Y: 1}

	first := s.grid.ShortestPath(stack, dest, 5, false)
	s.Require().Len(first, 3)
	s.Assert().Equal(dest, first[len(first)-1])

	second := s.grid.ShortestPath(stack, dest, 5, false)
	s.Assert().Equal(first, second, "same board yields the same path")
}

func (s *GridTestSuite) TestShortestPathNilWhenOverBudget() {
	stack := s.newStack("stack_1", entities.Position{X: 0, Y: 0})

	s.Assert().Nil(s.grid.ShortestPath(stack, entities.Position{X: 5, Y: 0}, 3, false))
	s.Assert().NotNil(s.grid.ShortestPath(stack, entities.Position{X: 3, Y: 0}, 3, false))
}

func (s *GridTestSuite) TestInAttackRange() {
	archer := entities.NewStack("stack_1", entities.SidePlayer, entities.StackSpec{
		Stats: entities.StackStats{MaxHP: 10, AttackRange: 5, MinRange: 2},
		Count: 1,
	})
	archer.Position = entities.Position{X: 0, Y: 0}
	target := entities.NewStack("stack_2", entities.SideEnemy, entities.StackSpec{
		Stats: entities.StackStats{MaxHP: 10, AttackRange: 1},
		Count: 1,
	})

	target.Position = entities.Position{X: 3, Y: 0}
	s.Assert().True(combat.InAttackRange(archer, target))
	s.Assert().False(combat.InAttackRange(target, archer), "melee range 1 cannot reach distance 3")

	target.Position = entities.Position{X: 6, Y: 0}
	s.Assert().False(combat.InAttackRange(archer, target), "beyond max range")

	target.Position = entities.Position{X: 1, Y: 0}
	s.Assert().True(combat.InAttackRange(archer, target), "adjacent targets are always attackable")
	s.Assert().True(combat.InAttackRange(target, archer))
}
