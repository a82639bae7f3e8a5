package combat

import (
	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/rules"
)

// SavedState is the persistable form of an encounter. It captures everything
// the repository needs to rebuild the battle mid-round; runtime collaborators
// (rules, roller, bus) are re-injected on Restore.
type SavedState struct {
	ID                string              `json:"id"`
	State             State               `json:"state"`
	Outcome           Outcome             `json:"outcome"`
	Round             int                 `json:"round"`
	CurrentActorID    string              `json:"current_actor_id,omitempty"`
	Obstacles         []entities.Position `json:"obstacles,omitempty"`
	Stacks            []*entities.Stack   `json:"stacks"`
	InitialEnemyCount int                 `json:"initial_enemy_count"`
	Log               []LogEvent          `json:"log,omitempty"`
}

// Export captures the encounter state for persistence. Stacks are copied so
// later actions do not mutate the snapshot.
func (e *Encounter) Export() *SavedState {
	stacks := make([]*entities.Stack, 0, len(e.stacks))
	for _, stack := range e.stacks {
		copied := *stack
		copied.Effects = append([]entities.StatusEffect(nil), stack.Effects...)
		stacks = append(stacks, &copied)
	}
	currentID := ""
	if e.current != nil {
		currentID = e.current.ID
	}
	log := make([]LogEvent, len(e.log))
	copy(log, e.log)

	return &SavedState{
		ID:                e.id,
		State:             e.state,
		Outcome:           e.outcome,
		Round:             e.round,
		CurrentActorID:    currentID,
		Obstacles:         e.grid.Obstacles(),
		Stacks:            stacks,
		InitialEnemyCount: e.initialEnemyCount,
		Log:               log,
	}
}

// Dependencies are the runtime collaborators an encounter needs besides its
// saved state
type Dependencies struct {
	// Rules is the ability table; nil means rules.Default()
	Rules    *rules.Table
	Roller   dice.Roller
	EventBus events.EventBus
	Observer Observer
}

// Restore rebuilds an encounter from a saved state. Corrupt states (unknown
// current actor, overlapping stacks) surface as data-loss errors.
func Restore(saved *SavedState, deps *Dependencies) (*Encounter, error) {
	if saved == nil {
		return nil, errors.InvalidArgument("saved state is required")
	}
	if deps == nil || deps.Roller == nil || deps.EventBus == nil {
		return nil, errors.InvalidArgument("roller and event bus are required")
	}
	ruleTable := deps.Rules
	if ruleTable == nil {
		ruleTable = rules.Default()
	}

	e := &Encounter{
		id:                saved.ID,
		state:             saved.State,
		outcome:           saved.Outcome,
		round:             saved.Round,
		grid:              NewGrid(saved.Obstacles...),
		rules:             ruleTable,
		roller:            deps.Roller,
		eventBus:          deps.EventBus,
		observer:          deps.Observer,
		initialEnemyCount: saved.InitialEnemyCount,
	}

	for _, stack := range saved.Stacks {
		copied := *stack
		copied.Effects = append([]entities.StatusEffect(nil), stack.Effects...)
		e.stacks = append(e.stacks, &copied)
		if !copied.Alive() {
			continue
		}
		if err := e.grid.Place(&copied, copied.Position); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeDataLoss,
				"saved state places two stacks on one tile")
		}
	}

	e.sched = newScheduler(e.stacks)
	if saved.CurrentActorID != "" {
		current := e.findStack(saved.CurrentActorID)
		if current == nil || !current.Alive() {
			return nil, errors.DataLossf("saved current actor %s is missing or destroyed", saved.CurrentActorID)
		}
		e.current = current
	}
	e.log = make([]LogEvent, len(saved.Log))
	copy(e.log, saved.Log)
	return e, nil
}
