// Package encounter implements the encounter orchestrator for running tactical battles
package encounter

//go:generate mockgen -destination=mock/mock_service.go -package=encountermock github.com/KirkDiggler/tactics-api/internal/orchestrators/encounter Service

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/tactics-api/internal/combat"
	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/pkg/idgen"
	"github.com/KirkDiggler/tactics-api/internal/repositories/encounters"
	"github.com/KirkDiggler/tactics-api/internal/rules"
)

// Service defines the interface for encounter operations
type Service interface {
	// CreateEncounter deploys two armies on a fresh board and persists it
	CreateEncounter(ctx context.Context, input *CreateEncounterInput) (*CreateEncounterOutput, error)

	// GetEncounter returns the current standing of a battle
	GetEncounter(ctx context.Context, input *GetEncounterInput) (*GetEncounterOutput, error)

	// NextActor advances the initiative order and reports whose turn it is
	NextActor(ctx context.Context, input *NextActorInput) (*NextActorOutput, error)

	// SubmitAction resolves one combatant action
	SubmitAction(ctx context.Context, input *SubmitActionInput) (*SubmitActionOutput, error)

	// ListCombatLog returns the recorded combat-log events
	ListCombatLog(ctx context.Context, input *ListCombatLogInput) (*ListCombatLogOutput, error)
}

// Config holds the dependencies for the encounter orchestrator
type Config struct {
	Repository  encounters.Repository
	IDGenerator idgen.Generator
	Roller      dice.Roller
	EventBus    events.EventBus

	// Rules is the ability table; nil means rules.Default()
	Rules *rules.Table
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.Repository == nil {
		vb.RequiredField("Repository")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}
	if c.EventBus == nil {
		vb.RequiredField("EventBus")
	}

	return vb.Build()
}

type orchestrator struct {
	repo     encounters.Repository
	idGen    idgen.Generator
	roller   dice.Roller
	eventBus events.EventBus
	rules    *rules.Table
}

// NewOrchestrator creates a new encounter orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	ruleTable := cfg.Rules
	if ruleTable == nil {
		ruleTable = rules.Default()
	}

	return &orchestrator{
		repo:     cfg.Repository,
		idGen:    cfg.IDGenerator,
		roller:   cfg.Roller,
		eventBus: cfg.EventBus,
		rules:    ruleTable,
	}, nil
}

// CreateEncounter deploys two armies on a fresh board and persists it
func (o *orchestrator) CreateEncounter(ctx context.Context, input *CreateEncounterInput) (*CreateEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	encounterID := o.idGen.Generate()

	enc, err := combat.New(&combat.Config{
		ID:          encounterID,
		PlayerArmy:  input.PlayerArmy,
		EnemyArmy:   input.EnemyArmy,
		Obstacles:   input.Obstacles,
		Rules:       o.rules,
		Roller:      o.roller,
		EventBus:    o.eventBus,
		IDGenerator: o.idGen,
	})
	if err != nil {
		return nil, err
	}

	if _, err := o.repo.Save(ctx, &encounters.SaveInput{State: enc.Export()}); err != nil {
		return nil, err
	}

	slog.Info("Encounter stored",
		"encounter_id", encounterID,
	)

	return &CreateEncounterOutput{
		EncounterID: encounterID,
		State:       enc.State(),
		Outcome:     enc.Outcome(),
		Round:       enc.Round(),
		Stacks:      enc.Snapshots(),
	}, nil
}

// GetEncounter returns the current standing of a battle
func (o *orchestrator) GetEncounter(ctx context.Context, input *GetEncounterInput) (*GetEncounterOutput, error) {
	if input == nil || input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	enc, err := o.load(ctx, input.EncounterID)
	if err != nil {
		return nil, err
	}

	return &GetEncounterOutput{
		EncounterID: enc.ID(),
		State:       enc.State(),
		Outcome:     enc.Outcome(),
		Round:       enc.Round(),
		TurnOrder:   enc.TurnOrder(),
		Stacks:      enc.Snapshots(),
		Result:      enc.Result(),
	}, nil
}

// NextActor advances the initiative order and reports whose turn it is.
// Turn-start effects (burns, heals, morale) fire here, so the updated state
// is written back before returning.
func (o *orchestrator) NextActor(ctx context.Context, input *NextActorInput) (*NextActorOutput, error) {
	if input == nil || input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	enc, err := o.load(ctx, input.EncounterID)
	if err != nil {
		return nil, err
	}

	logBefore := len(enc.CombatLog())
	actorID, ok := enc.NextActor()

	if err := o.store(ctx, enc); err != nil {
		return nil, err
	}

	return &NextActorOutput{
		EncounterID: enc.ID(),
		ActorID:     actorID,
		HasActor:    ok,
		Round:       enc.Round(),
		State:       enc.State(),
		Events:      enc.CombatLog()[logBefore:],
	}, nil
}

// SubmitAction resolves one combatant action
func (o *orchestrator) SubmitAction(ctx context.Context, input *SubmitActionInput) (*SubmitActionOutput, error) {
	if input == nil || input.Action == nil {
		return nil, errors.InvalidArgument("action is required")
	}
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	enc, err := o.load(ctx, input.EncounterID)
	if err != nil {
		return nil, err
	}

	produced, err := enc.SubmitAction(input.Action)
	if err != nil {
		return nil, err
	}

	if err := o.store(ctx, enc); err != nil {
		return nil, err
	}

	return &SubmitActionOutput{
		EncounterID: enc.ID(),
		Events:      produced,
		State:       enc.State(),
		Outcome:     enc.Outcome(),
		Round:       enc.Round(),
		Stacks:      enc.Snapshots(),
	}, nil
}

// ListCombatLog returns the recorded combat-log events
func (o *orchestrator) ListCombatLog(ctx context.Context, input *ListCombatLogInput) (*ListCombatLogOutput, error) {
	if input == nil || input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	got, err := o.repo.Get(ctx, &encounters.GetInput{EncounterID: input.EncounterID})
	if err != nil {
		return nil, err
	}

	log := got.Data.State.Log
	if input.SinceRound > 0 {
		filtered := make([]combat.LogEvent, 0, len(log))
		for _, event := range log {
			if event.Round >= input.SinceRound {
				filtered = append(filtered, event)
			}
		}
		log = filtered
	}

	return &ListCombatLogOutput{
		EncounterID: input.EncounterID,
		Events:      log,
	}, nil
}

func (o *orchestrator) load(ctx context.Context, encounterID string) (*combat.Encounter, error) {
	got, err := o.repo.Get(ctx, &encounters.GetInput{EncounterID: encounterID})
	if err != nil {
		return nil, err
	}

	return combat.Restore(got.Data.State, &combat.Dependencies{
		Rules:    o.rules,
		Roller:   o.roller,
		EventBus: o.eventBus,
	})
}

func (o *orchestrator) store(ctx context.Context, enc *combat.Encounter) error {
	if _, err := o.repo.Update(ctx, &encounters.UpdateInput{State: enc.Export()}); err != nil {
		return errors.Wrapf(err, "failed to persist encounter %s", enc.ID())
	}
	return nil
}
