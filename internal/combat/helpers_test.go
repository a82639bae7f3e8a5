package combat_test

import (
	"context"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/tactics-api/internal/combat"
	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/pkg/idgen"
	"github.com/KirkDiggler/tactics-api/internal/pkg/roller"
)

// engineSuite holds the shared fixtures for the engine test suites. Player
// stacks deploy first, so with a sequential generator the player army is
// stack_1, stack_2, ... and the enemy army continues the numbering.
type engineSuite struct {
	suite.Suite
	bus    events.EventBus
	roller dice.Roller
}

func (s *engineSuite) SetupTest() {
	s.bus = events.NewBus()
	s.roller = roller.NewFixed(1)
}

func (s *engineSuite) create(player, enemy []entities.StackSpec, obstacles ...entities.Position) *combat.Encounter {
	enc, err := combat.New(&combat.Config{
		ID:          "enc_test",
		PlayerArmy:  player,
		EnemyArmy:   enemy,
		Obstacles:   obstacles,
		Roller:      s.roller,
		EventBus:    s.bus,
		IDGenerator: idgen.NewSequential("stack"),
	})
	s.Require().NoError(err)
	return enc
}

// placeAt rebuilds the encounter with stacks repositioned, using the saved
// state round-trip that the repository layer uses.
func (s *engineSuite) placeAt(enc *combat.Encounter, positions map[string]entities.Position) *combat.Encounter {
	return s.restoreWith(enc, func(saved *combat.SavedState) {
		for _, stack := range saved.Stacks {
			if p, ok := positions[stack.ID]; ok {
				stack.Position = p
			}
		}
	})
}

func (s *engineSuite) restoreWith(enc *combat.Encounter, mutate func(*combat.SavedState)) *combat.Encounter {
	saved := enc.Export()
	mutate(saved)
	restored, err := combat.Restore(saved, &combat.Dependencies{
		Roller:   s.roller,
		EventBus: s.bus,
	})
	s.Require().NoError(err)
	return restored
}

func (s *engineSuite) stack(enc *combat.Encounter, id string) *entities.Stack {
	for _, stack := range enc.Combatants() {
		if stack.ID == id {
			return stack
		}
	}
	s.Require().FailNowf("stack not found", "no stack %s", id)
	return nil
}

func (s *engineSuite) mustActor(enc *combat.Encounter, want string) {
	id, ok := enc.NextActor()
	s.Require().True(ok)
	s.Require().Equal(want, id)
}

// recordingBus captures everything the engine publishes
type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, ev events.Event) error {
	b.published = append(b.published, ev)
	return nil
}
func (b *recordingBus) Subscribe(_ string, _ events.Handler) string { return "sub-id" }
func (b *recordingBus) SubscribeFunc(_ string, _ int, _ events.HandlerFunc) string {
	return "sub-id"
}
func (b *recordingBus) Unsubscribe(_ string) error { return nil }
func (b *recordingBus) Clear(_ string)             {}
func (b *recordingBus) ClearAll()                  {}

func kinds(eventList []combat.LogEvent) []combat.EventKind {
	out := make([]combat.EventKind, 0, len(eventList))
	for _, ev := range eventList {
		out = append(out, ev.Kind)
	}
	return out
}

// Stat blocks used across the engine tests

func swordsmen(count int) entities.StackSpec {
	return entities.StackSpec{
		Stats: entities.StackStats{
			Name:                 "Swordsman",
			MaxHP:                10,
			AttackMin:            2,
			AttackMax:            4,
			DefenceMelee:         1,
			Speed:                3,
			AttackRange:          1,
			MinRange:             1,
			Initiative:           8,
			RetaliationsPerRound: 1,
		},
		Count: count,
	}
}

func orcs(count int) entities.StackSpec {
	return entities.StackSpec{
		Stats: entities.StackStats{
			Name:                 "Orc",
			MaxHP:                20,
			AttackMin:            3,
			AttackMax:            3,
			Speed:                2,
			AttackRange:          1,
			MinRange:             1,
			Initiative:           4,
			RetaliationsPerRound: 1,
		},
		Count: count,
	}
}

func archers(count int) entities.StackSpec {
	return entities.StackSpec{
		Stats: entities.StackStats{
			Name:                 "Archer",
			MaxHP:                8,
			AttackMin:            4,
			AttackMax:            4,
			Speed:                2,
			AttackRange:          5,
			MinRange:             2,
			Initiative:           6,
			RetaliationsPerRound: 1,
		},
		Count: count,
	}
}

func boars(count int) entities.StackSpec {
	return entities.StackSpec{
		Stats: entities.StackStats{
			Name:                 "War Boar",
			MaxHP:                15,
			AttackMin:            4,
			AttackMax:            4,
			DefenceMelee:         1,
			Speed:                2,
			AttackRange:          1,
			MinRange:             1,
			Initiative:           7,
			RetaliationsPerRound: 1,
			Abilities:            []string{"charge"},
		},
		Count: count,
	}
}

func griffins(count int) entities.StackSpec {
	return entities.StackSpec{
		Stats: entities.StackStats{
			Name:                 "Griffin",
			MaxHP:                25,
			AttackMin:            3,
			AttackMax:            5,
			Speed:                4,
			AttackRange:          1,
			MinRange:             1,
			Initiative:           9,
			RetaliationsPerRound: 1,
			Abilities:            []string{"flying"},
		},
		Count: count,
	}
}

func mages(count int) entities.StackSpec {
	return entities.StackSpec{
		Stats: entities.StackStats{
			Name:        "Mage",
			MaxHP:       12,
			AttackMin:   1,
			AttackMax:   2,
			Speed:       2,
			AttackRange: 1,
			MinRange:    1,
			Initiative:  10,
			Mana:        10,
			Abilities:   []string{"fireball"},
		},
		Count: count,
	}
}

func clerics(count int) entities.StackSpec {
	return entities.StackSpec{
		Stats: entities.StackStats{
			Name:        "Cleric",
			MaxHP:       10,
			AttackMin:   1,
			AttackMax:   2,
			Speed:       2,
			AttackRange: 1,
			MinRange:    1,
			Initiative:  10,
			Abilities:   []string{"passive_heal"},
		},
		Count: count,
	}
}
