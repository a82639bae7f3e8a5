package combat_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tactics-api/internal/combat"
	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/pkg/idgen"
	"github.com/KirkDiggler/tactics-api/internal/pkg/roller"
	"github.com/KirkDiggler/tactics-api/internal/rules"
)

type EncounterTestSuite struct {
	engineSuite
}

func TestEncounterSuite(t *testing.T) {
	suite.Run(t, new(EncounterTestSuite))
}

func (s *EncounterTestSuite) endTurn(enc *combat.Encounter, id string) {
	_, err := enc.SubmitAction(&combat.Action{Kind: combat.ActionEndTurn, ActorID: id})
	s.Require().NoError(err)
}

func (s *EncounterTestSuite) TestConfigValidation() {
	_, err := combat.New(&combat.Config{})
	s.Require().Error(err)
	s.Assert().True(errors.IsInvalidArgument(err))

	oversized := make([]entities.StackSpec, combat.MaxArmySize+1)
	for i := range oversized {
		oversized[i] = swordsmen(1)
	}
	_, err = combat.New(&combat.Config{
		PlayerArmy:  oversized,
		EnemyArmy:   []entities.StackSpec{orcs(1)},
		Roller:      s.roller,
		EventBus:    s.bus,
		IDGenerator: idgen.NewSequential("stack"),
	})
	s.Assert().True(errors.IsInvalidArgument(err), "army over the formation cap")

	_, err = combat.New(&combat.Config{
		PlayerArmy:  []entities.StackSpec{{Stats: entities.StackStats{MaxHP: 10}, Count: 0}},
		Roller:      s.roller,
		EventBus:    s.bus,
		IDGenerator: idgen.NewSequential("stack"),
	})
	s.Assert().True(errors.IsInvalidArgument(err), "zero-count stack")
}

func (s *EncounterTestSuite) TestInitiativeOrderAndRoundReset() {
	enc := s.create(
		[]entities.StackSpec{swordsmen(1), archers(1)},
		[]entities.StackSpec{orcs(1)},
	)

	// Descending initiative: swordsman 8, archer 6, orc 4
	s.mustActor(enc, "stack_1")
	s.endTurn(enc, "stack_1")
	s.mustActor(enc, "stack_2")
	s.endTurn(enc, "stack_2")
	s.mustActor(enc, "stack_3")
	s.endTurn(enc, "stack_3")

	// Round rolls over and the order repeats with budgets restored
	s.mustActor(enc, "stack_1")
	s.Assert().Equal(2, enc.Round())
	s.Assert().Equal(3, s.stack(enc, "stack_1").MovementLeft)

	var roundStarts int
	for _, ev := range enc.CombatLog() {
		if ev.Kind == combat.EventRoundStarted {
			roundStarts++
		}
	}
	s.Assert().Equal(2, roundStarts)
	s.Assert().Equal([]string{"stack_1", "stack_2", "stack_3"}, enc.TurnOrder())
}

func (s *EncounterTestSuite) TestEveryLogRecordReachesTheBus() {
	bus := &recordingBus{}
	s.bus = bus

	enc := s.create([]entities.StackSpec{swordsmen(1)}, []entities.StackSpec{orcs(1)})
	s.mustActor(enc, "stack_1")
	s.endTurn(enc, "stack_1")
	s.mustActor(enc, "stack_2")

	log := enc.CombatLog()
	s.Require().NotEmpty(log)
	s.Assert().Len(bus.published, len(log),
		"each log record is published once")
}

func (s *EncounterTestSuite) TestSpawnOrderBreaksInitiativeTies() {
	enc := s.create(
		[]entities.StackSpec{swordsmen(1), swordsmen(1)},
		[]entities.StackSpec{orcs(1)},
	)

	s.mustActor(enc, "stack_1")
	s.endTurn(enc, "stack_1")
	s.mustActor(enc, "stack_2")
}

func (s *EncounterTestSuite) TestZeroEnemiesResolvesImmediately() {
	enc := s.create([]entities.StackSpec{swordsmen(1)}, nil)

	s.Assert().Equal(combat.StateResolved, enc.State())
	s.Assert().Equal(combat.OutcomePlayerVictory, enc.Outcome())

	_, ok := enc.NextActor()
	s.Assert().False(ok)

	_, err := enc.SubmitAction(&combat.Action{Kind: combat.ActionEndTurn, ActorID: "stack_1"})
	s.Assert().True(errors.IsFailedPrecondition(err), "terminal states are absorbing")

	result := enc.Result()
	s.Assert().Equal(0, result.Experience)
	s.Assert().Len(result.Survivors, 1)
}

func (s *EncounterTestSuite) TestFleeEndsTheBattle() {
	enc := s.create([]entities.StackSpec{swordsmen(1)}, []entities.StackSpec{orcs(1)})

	s.mustActor(enc, "stack_1")
	produced, err := enc.SubmitAction(&combat.Action{Kind: combat.ActionFlee, ActorID: "stack_1"})
	s.Require().NoError(err)
	s.Assert().Contains(kinds(produced), combat.EventFled)

	s.Assert().Equal(combat.OutcomeFled, enc.Outcome())
	_, ok := enc.NextActor()
	s.Assert().False(ok)
}

func (s *EncounterTestSuite) TestEnemySideCannotFlee() {
	enc := s.create([]entities.StackSpec{swordsmen(1)}, []entities.StackSpec{orcs(1)})

	s.mustActor(enc, "stack_1")
	s.endTurn(enc, "stack_1")
	s.mustActor(enc, "stack_2")

	_, err := enc.SubmitAction(&combat.Action{Kind: combat.ActionFlee, ActorID: "stack_2"})
	s.Assert().True(errors.IsFailedPrecondition(err))
	s.Assert().Equal(combat.OutcomeOngoing, enc.Outcome())
}

func (s *EncounterTestSuite) TestBurnTicksAtTurnStart() {
	enc := s.create([]entities.StackSpec{swordsmen(1)}, []entities.StackSpec{orcs(1)})
	enc = s.restoreWith(enc, func(saved *combat.SavedState) {
		saved.Stacks[1].Effects = []entities.StatusEffect{
			{Kind: rules.StatusBurn, Duration: 2},
		}
	})

	s.mustActor(enc, "stack_1")
	s.endTurn(enc, "stack_1")

	s.mustActor(enc, "stack_2")
	burned := s.stack(enc, "stack_2")
	s.Assert().Equal(15, burned.TotalHP(), "burn costs 5 at turn start")
	s.endTurn(enc, "stack_2")

	// Round end ticks the duration down
	s.mustActor(enc, "stack_1")
	s.Assert().Equal(2, enc.Round())
	s.Assert().Equal(1, burned.EffectDuration(rules.StatusBurn))
}

func (s *EncounterTestSuite) TestPassiveHealAtTurnStart() {
	enc := s.create(
		[]entities.StackSpec{clerics(1), swordsmen(1)},
		[]entities.StackSpec{orcs(1)},
	)
	enc = s.restoreWith(enc, func(saved *combat.SavedState) {
		saved.Stacks[1].CurrentHP = 5
	})

	s.mustActor(enc, "stack_1")
	healed := s.stack(enc, "stack_2")
	s.Assert().Equal(10, healed.CurrentHP, "first wounded ally gets +5")

	var found bool
	for _, ev := range enc.CombatLog() {
		if ev.Kind == combat.EventHealed {
			found = true
			s.Assert().Equal("stack_1", ev.ActorID)
			s.Assert().Equal("stack_2", ev.TargetID)
			s.Assert().Equal(5, ev.Value)
		}
	}
	s.Assert().True(found)
}

func (s *EncounterTestSuite) TestMoraleSurgeGrantsExtraAction() {
	s.roller = roller.NewFixed(2, 1, 1)
	enc := s.create([]entities.StackSpec{swordsmen(1)}, []entities.StackSpec{orcs(1)})
	enc = s.restoreWith(enc, func(saved *combat.SavedState) {
		saved.Stacks[0].Stats.Morale = 3
		saved.Stacks[0].Position = entities.Position{X: 3, Y: 3}
		saved.Stacks[1].Position = entities.Position{X: 4, Y: 3}
	})

	// Morale roll of 2 on the d24 procs the surge
	s.mustActor(enc, "stack_1")
	_, err := enc.SubmitAction(&combat.Action{Kind: combat.ActionAttack, ActorID: "stack_1", TargetID: "stack_2"})
	s.Require().NoError(err)

	s.mustActor(enc, "stack_1")

	var surges int
	for _, ev := range enc.CombatLog() {
		if ev.Kind == combat.EventMoraleSurge {
			surges++
		}
	}
	s.Assert().Equal(1, surges)
}

func (s *EncounterTestSuite) TestMoraleFalterSkipsTurn() {
	s.roller = roller.NewFixed(2)
	enc := s.create([]entities.StackSpec{swordsmen(1)}, []entities.StackSpec{orcs(1)})
	enc = s.restoreWith(enc, func(saved *combat.SavedState) {
		saved.Stacks[0].Stats.Morale = -3
	})

	// The swordsman falters, so the orc acts first
	s.mustActor(enc, "stack_2")

	var falters int
	for _, ev := range enc.CombatLog() {
		if ev.Kind == combat.EventMoraleFalter {
			falters++
		}
	}
	s.Assert().Equal(1, falters)
}

func (s *EncounterTestSuite) TestExportRestoreRoundTrip() {
	enc := s.create([]entities.StackSpec{swordsmen(2)}, []entities.StackSpec{orcs(1)})
	s.mustActor(enc, "stack_1")
	_, err := enc.SubmitAction(&combat.Action{
		Kind:    combat.ActionMove,
		ActorID: "stack_1",
		Target:  entities.Position{X: 2, Y: 0},
	})
	s.Require().NoError(err)

	restored, err := combat.Restore(enc.Export(), &combat.Dependencies{
		Roller:   s.roller,
		EventBus: s.bus,
	})
	s.Require().NoError(err)

	s.Assert().Equal(enc.ID(), restored.ID())
	s.Assert().Equal(enc.State(), restored.State())
	s.Assert().Equal(enc.Round(), restored.Round())
	s.Assert().Equal(enc.Snapshots(), restored.Snapshots())
	s.Assert().Equal(enc.CombatLog(), restored.CombatLog())

	// The restored encounter continues the same turn
	s.mustActor(restored, "stack_1")
}

func (s *EncounterTestSuite) TestRestoreRejectsCorruptState() {
	enc := s.create([]entities.StackSpec{swordsmen(1)}, []entities.StackSpec{orcs(1)})
	deps := &combat.Dependencies{Roller: s.roller, EventBus: s.bus}

	overlapping := enc.Export()
	overlapping.Stacks[1].Position = overlapping.Stacks[0].Position
	_, err := combat.Restore(overlapping, deps)
	s.Assert().True(errors.IsDataLoss(err))

	ghost := enc.Export()
	ghost.CurrentActorID = "stack_99"
	_, err = combat.Restore(ghost, deps)
	s.Assert().True(errors.IsDataLoss(err))
}

// runUntilResolved plays a greedy script: attack anything in range, end the
// turn otherwise
func (s *EncounterTestSuite) runUntilResolved(enc *combat.Encounter, maxSteps int) {
	for i := 0; i < maxSteps; i++ {
		id, ok := enc.NextActor()
		if !ok {
			return
		}
		actor := s.stack(enc, id)
		var target *entities.Stack
		for _, t := range enc.Combatants() {
			if t.Side != actor.Side && t.Alive() && combat.InAttackRange(actor, t) {
				target = t
				break
			}
		}
		if target != nil {
			_, err := enc.SubmitAction(&combat.Action{Kind: combat.ActionAttack, ActorID: id, TargetID: target.ID})
			s.Require().NoError(err)
			continue
		}
		_, err := enc.SubmitAction(&combat.Action{Kind: combat.ActionEndTurn, ActorID: id})
		s.Require().NoError(err)
	}
	s.Require().FailNow("battle did not resolve within the step budget")
}

func (s *EncounterTestSuite) TestSeededBattlesReplayIdentically() {
	play := func(seed int64) *combat.Encounter {
		s.roller = roller.NewSeeded(seed)
		enc := s.create([]entities.StackSpec{swordsmen(5)}, []entities.StackSpec{orcs(3)})
		enc = s.restoreWith(enc, func(saved *combat.SavedState) {
			saved.Stacks[0].Stats.Luck = 2
			saved.Stacks[0].Stats.Morale = 2
			saved.Stacks[0].Position = entities.Position{X: 3, Y: 3}
			saved.Stacks[1].Position = entities.Position{X: 4, Y: 3}
		})
		s.runUntilResolved(enc, 500)
		return enc
	}

	first := play(42)
	second := play(42)

	s.Assert().Equal(combat.StateResolved, first.State())
	s.Assert().Equal(first.Outcome(), second.Outcome())
	s.Assert().Equal(first.CombatLog(), second.CombatLog())
	s.Assert().Equal(first.Snapshots(), second.Snapshots())
}
