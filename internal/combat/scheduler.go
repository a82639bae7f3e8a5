package combat

import (
	"sort"

	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// scheduler fixes the acting order for one round: descending effective
// initiative, spawn order breaking ties. The stable sort over the spawn-order
// slice is what makes the tie-break deterministic.
type scheduler struct {
	order []*entities.Stack
}

// newScheduler snapshots the order for a round from the living stacks.
// Initiative is read once here so mid-round effect changes reorder the NEXT
// round, not this one.
func newScheduler(stacks []*entities.Stack) *scheduler {
	order := make([]*entities.Stack, 0, len(stacks))
	for _, stack := range stacks {
		if stack.Alive() {
			order = append(order, stack)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Initiative() > order[j].Initiative()
	})
	return &scheduler{order: order}
}

// nextActor returns the highest-priority living stack that has not acted
// this round, or nil at end of round.
func (s *scheduler) nextActor() *entities.Stack {
	for _, stack := range s.order {
		if stack.Alive() && !stack.HasActed {
			return stack
		}
	}
	return nil
}

// turnOrder returns the round's full order, dead stacks included
func (s *scheduler) turnOrder() []*entities.Stack {
	return s.order
}
