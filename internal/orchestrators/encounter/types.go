package encounter

import (
	"github.com/KirkDiggler/tactics-api/internal/combat"
	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// CreateEncounterInput holds the armies and terrain for a new encounter
type CreateEncounterInput struct {
	PlayerArmy []entities.StackSpec
	EnemyArmy  []entities.StackSpec
	Obstacles  []entities.Position
}

// CreateEncounterOutput returns the freshly deployed battle
type CreateEncounterOutput struct {
	EncounterID string
	State       combat.State
	Outcome     combat.Outcome
	Round       int
	Stacks      []entities.StackSnapshot
}

// GetEncounterInput identifies the encounter to fetch
type GetEncounterInput struct {
	EncounterID string
}

// GetEncounterOutput returns the current standing of the battle
type GetEncounterOutput struct {
	EncounterID string
	State       combat.State
	Outcome     combat.Outcome
	Round       int
	TurnOrder   []string
	Stacks      []entities.StackSnapshot
	Result      *combat.Result
}

// NextActorInput identifies the encounter to advance
type NextActorInput struct {
	EncounterID string
}

// NextActorOutput reports whose turn it is. HasActor is false once the
// battle is resolved.
type NextActorOutput struct {
	EncounterID string
	ActorID     string
	HasActor    bool
	Round       int
	State       combat.State
	Events      []combat.LogEvent
}

// SubmitActionInput carries a combatant action into the encounter
type SubmitActionInput struct {
	EncounterID string
	Action      *combat.Action
}

// SubmitActionOutput returns what the action did and where the battle stands
type SubmitActionOutput struct {
	EncounterID string
	Events      []combat.LogEvent
	State       combat.State
	Outcome     combat.Outcome
	Round       int
	Stacks      []entities.StackSnapshot
}

// ListCombatLogInput identifies the encounter whose log to read. SinceRound
// limits the listing to that round and later; zero means the full log.
type ListCombatLogInput struct {
	EncounterID string
	SinceRound  int
}

// ListCombatLogOutput returns the recorded combat-log events in order
type ListCombatLogOutput struct {
	EncounterID string
	Events      []combat.LogEvent
}
