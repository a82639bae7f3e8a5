// Package combat implements the tactical battle engine: an 8x6 grid of unit
// stacks, an initiative scheduler, and an action resolver driven by a
// data-declared rule table. The engine is deterministic for a given roller
// and action sequence; all randomness flows through the injected dice.Roller.
package combat

import (
	"context"
	"log/slog"
	"sort"

	"github.com/KirkDiggler/rpg-toolkit/core"
	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/tactics-api/internal/entities"
	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/pkg/idgen"
	"github.com/KirkDiggler/tactics-api/internal/rules"
)

// State is the encounter lifecycle phase
type State string

// States
const (
	StateSetup           State = "setup"
	StateRoundInProgress State = "round_in_progress"
	StateResolved        State = "resolved"
)

// Outcome is how the encounter ended, or ongoing
type Outcome string

// Outcomes
const (
	OutcomeOngoing       Outcome = "ongoing"
	OutcomePlayerVictory Outcome = "player_victory"
	OutcomeEnemyVictory  Outcome = "enemy_victory"
	OutcomeFled          Outcome = "fled"
)

// formationColumns are the player-side deployment slots in fill order. The
// enemy side mirrors them across the board. Army size is capped at the slot
// count.
var formationColumns = []entities.Position{
	{X: 0, Y: 0},
	{X: 0, Y: 2},
	{X: 0, Y: 4},
	{X: 1, Y: 1},
	{X: 1, Y: 3},
	{X: 1, Y: 5},
	{X: 0, Y: 1},
	{X: 0, Y: 3},
}

// MaxArmySize is the most stacks one side can field
var MaxArmySize = len(formationColumns)

// Config holds everything needed to start an encounter
type Config struct {
	// ID identifies the encounter; generated when empty
	ID string

	PlayerArmy []entities.StackSpec
	EnemyArmy  []entities.StackSpec
	Obstacles  []entities.Position

	// Rules is the ability table; nil means rules.Default()
	Rules *rules.Table

	Roller      dice.Roller
	EventBus    events.EventBus
	IDGenerator idgen.Generator

	// Observer receives combat-log records as they happen. Optional.
	Observer Observer
}

// Validate ensures the config is complete
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config is required")
	}

	vb := errors.NewValidationBuilder()
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}
	if c.EventBus == nil {
		vb.RequiredField("EventBus")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if len(c.PlayerArmy) > MaxArmySize {
		vb.Fieldf("PlayerArmy", "at most %d stacks per side, got %d", MaxArmySize, len(c.PlayerArmy))
	}
	if len(c.EnemyArmy) > MaxArmySize {
		vb.Fieldf("EnemyArmy", "at most %d stacks per side, got %d", MaxArmySize, len(c.EnemyArmy))
	}
	validateArmy("PlayerArmy", c.PlayerArmy, vb)
	validateArmy("EnemyArmy", c.EnemyArmy, vb)
	return vb.Build()
}

func validateArmy(field string, army []entities.StackSpec, vb *errors.ValidationBuilder) {
	for i, spec := range army {
		if spec.Count <= 0 {
			vb.Fieldf(field, "stack %d: count must be positive, got %d", i, spec.Count)
		}
		if spec.Stats.MaxHP <= 0 {
			vb.Fieldf(field, "stack %d: max HP must be positive, got %d", i, spec.Stats.MaxHP)
		}
		if spec.Stats.AttackMax < spec.Stats.AttackMin {
			vb.Fieldf(field, "stack %d: attack range inverted (%d > %d)", i, spec.Stats.AttackMin, spec.Stats.AttackMax)
		}
	}
}

// Encounter is one tactical battle. Not safe for concurrent use; callers
// serialize access (the orchestrator loads, acts, and saves per request).
type Encounter struct {
	id      string
	state   State
	outcome Outcome
	round   int

	grid   *Grid
	stacks []*entities.Stack // spawn order, dead included
	sched  *scheduler
	// current is the actor whose turn has started and not yet ended
	current *entities.Stack

	rules    *rules.Table
	roller   dice.Roller
	eventBus events.EventBus
	observer Observer

	log               []LogEvent
	initialEnemyCount int
}

// New creates an encounter, places both armies, and opens round 1. An empty
// army resolves the battle immediately.
func New(cfg *Config) (*Encounter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	id := cfg.ID
	if id == "" {
		id = cfg.IDGenerator.Generate()
	}
	ruleTable := cfg.Rules
	if ruleTable == nil {
		ruleTable = rules.Default()
	}

	e := &Encounter{
		id:       id,
		state:    StateSetup,
		outcome:  OutcomeOngoing,
		grid:     NewGrid(cfg.Obstacles...),
		rules:    ruleTable,
		roller:   cfg.Roller,
		eventBus: cfg.EventBus,
		observer: cfg.Observer,
	}

	if err := e.deploy(entities.SidePlayer, cfg.PlayerArmy, cfg.IDGenerator); err != nil {
		return nil, err
	}
	if err := e.deploy(entities.SideEnemy, cfg.EnemyArmy, cfg.IDGenerator); err != nil {
		return nil, err
	}
	for _, stack := range e.stacks {
		if stack.Side == entities.SideEnemy {
			e.initialEnemyCount += stack.Count
		}
		for _, ability := range stack.Stats.Abilities {
			if !ruleTable.Has(ability) {
				slog.Warn("Stack declares unknown ability, it will have no effect",
					"encounter_id", e.id,
					"stack_id", stack.ID,
					"ability_id", ability,
				)
			}
		}
	}

	e.state = StateRoundInProgress
	e.beginRound(1)
	e.checkTermination()

	slog.Info("Encounter created",
		"encounter_id", e.id,
		"player_stacks", len(cfg.PlayerArmy),
		"enemy_stacks", len(cfg.EnemyArmy),
	)
	return e, nil
}

// deploy places one army on its formation columns. A blocked slot falls back
// to the first free tile scanning from the army's own edge.
func (e *Encounter) deploy(side entities.Side, army []entities.StackSpec, gen idgen.Generator) error {
	for i, spec := range army {
		stack := entities.NewStack(gen.Generate(), side, spec)
		pos := formationColumns[i]
		if side == entities.SideEnemy {
			pos.X = GridWidth - 1 - pos.X
		}
		if !e.grid.Free(pos) {
			fallback, ok := e.firstFreeTile(side)
			if !ok {
				return errors.Internalf("no free tile to deploy stack %s", stack.ID)
			}
			pos = fallback
		}
		if err := e.grid.Place(stack, pos); err != nil {
			return err
		}
		e.stacks = append(e.stacks, stack)
	}
	return nil
}

func (e *Encounter) firstFreeTile(side entities.Side) (entities.Position, bool) {
	for col := 0; col < GridWidth; col++ {
		x := col
		if side == entities.SideEnemy {
			x = GridWidth - 1 - col
		}
		for y := 0; y < GridHeight; y++ {
			p := entities.Position{X: x, Y: y}
			if e.grid.Free(p) {
				return p, true
			}
		}
	}
	return entities.Position{}, false
}

// ID returns the encounter id
func (e *Encounter) ID() string { return e.id }

// State returns the lifecycle phase
func (e *Encounter) State() State { return e.state }

// Outcome returns how the encounter ended, OutcomeOngoing before resolution
func (e *Encounter) Outcome() Outcome { return e.outcome }

// Round returns the current round number, starting at 1
func (e *Encounter) Round() int { return e.round }

// CombatLog returns the full event log so far
func (e *Encounter) CombatLog() []LogEvent {
	out := make([]LogEvent, len(e.log))
	copy(out, e.log)
	return out
}

// Combatants returns every stack in spawn order, dead included. Read-only:
// all mutation goes through SubmitAction.
func (e *Encounter) Combatants() []*entities.Stack {
	out := make([]*entities.Stack, len(e.stacks))
	copy(out, e.stacks)
	return out
}

// Snapshots returns the externally visible state of every stack
func (e *Encounter) Snapshots() []entities.StackSnapshot {
	out := make([]entities.StackSnapshot, 0, len(e.stacks))
	for _, stack := range e.stacks {
		out = append(out, stack.Snapshot())
	}
	return out
}

// TurnOrder returns this round's acting order as stack ids, including
// stacks that have already acted or died mid-round
func (e *Encounter) TurnOrder() []string {
	order := e.sched.turnOrder()
	ids := make([]string, 0, len(order))
	for _, stack := range order {
		ids = append(ids, stack.ID)
	}
	return ids
}

func (e *Encounter) findStack(id string) *entities.Stack {
	for _, stack := range e.stacks {
		if stack.ID == id {
			return stack
		}
	}
	return nil
}

// ReachableFor returns the tiles a stack can move to this turn, ordered by
// x then y
func (e *Encounter) ReachableFor(stackID string) ([]entities.Position, error) {
	stack := e.findStack(stackID)
	if stack == nil {
		return nil, errors.NotFoundf("stack %s not found", stackID)
	}
	if !stack.Alive() {
		return nil, errors.FailedPreconditionf("stack %s is destroyed", stackID)
	}
	tiles := e.grid.ReachableTiles(stack, stack.MovementLeft, e.isFlying(stack))
	return sortPositions(tiles), nil
}

// NextActor advances the schedule and returns the id of the stack whose turn
// it is. Returns false once the encounter is resolved. Turn-start effects
// (burn, passive heal, morale) fire here, so the returned actor may differ
// from the raw initiative order when a stack dies or falters before acting.
func (e *Encounter) NextActor() (string, bool) {
	if e.state == StateResolved {
		return "", false
	}
	if e.current != nil && e.current.Alive() && !e.current.HasActed {
		return e.current.ID, true
	}

	for {
		actor := e.sched.nextActor()
		if actor == nil {
			e.endRound()
			continue
		}

		e.current = actor
		e.startTurn(actor)
		if e.state == StateResolved {
			e.current = nil
			return "", false
		}
		if !actor.Alive() || actor.HasActed {
			e.current = nil
			continue
		}
		return actor.ID, true
	}
}

// beginRound resets per-turn state and recomputes the initiative order
func (e *Encounter) beginRound(round int) {
	e.round = round
	for _, stack := range e.stacks {
		if !stack.Alive() {
			continue
		}
		stack.HasActed = false
		stack.MovedThisTurn = 0
		stack.ExtraTurns = 0
		stack.RetaliationsLeft = stack.Stats.RetaliationsPerRound
		stack.MovementLeft = e.movementBudget(stack)
	}
	e.sched = newScheduler(e.stacks)
	e.emit(LogEvent{Kind: EventRoundStarted})
}

// endRound ticks status durations and opens the next round
func (e *Encounter) endRound() {
	for _, stack := range e.stacks {
		if stack.Alive() {
			stack.TickEffects()
		}
	}
	e.beginRound(e.round + 1)
}

// movementBudget is the stack's per-turn movement allowance. Flyers cross
// the whole board; chargers get their speed multiplied.
func (e *Encounter) movementBudget(stack *entities.Stack) int {
	if e.isFlying(stack) {
		return GridWidth + GridHeight
	}
	budget := stack.Speed()
	if stack.HasAbility(rules.AbilityCharge) {
		if d, ok := e.rules.Lookup(rules.AbilityCharge); ok && d.SpeedFactor > 1 {
			budget *= d.SpeedFactor
		}
	}
	return budget
}

func (e *Encounter) isFlying(stack *entities.Stack) bool {
	return stack.HasAbility(rules.AbilityFlying) && e.rules.Has(rules.AbilityFlying)
}

// startTurn fires turn-start effects for the actor: burn damage, passive
// healing, and the morale roll.
func (e *Encounter) startTurn(actor *entities.Stack) {
	e.emit(LogEvent{Kind: EventTurnStarted, ActorID: actor.ID})

	if actor.EffectDuration(rules.StatusBurn) > 0 {
		if d, ok := e.rules.Lookup(rules.StatusBurn); ok && d.Damage > 0 {
			e.applyDamage(EventStatusDamage, "", actor, d.Damage)
			e.checkTermination()
			if e.state == StateResolved || !actor.Alive() {
				return
			}
		}
	}

	if actor.HasAbility(rules.AbilityPassiveHeal) {
		if d, ok := e.rules.Lookup(rules.AbilityPassiveHeal); ok && d.Heal > 0 {
			e.healFirstWounded(actor, d.Heal)
		}
	}

	e.rollMorale(actor)
}

// healFirstWounded restores HP to the first wounded ally in spawn order,
// the healer itself included
func (e *Encounter) healFirstWounded(healer *entities.Stack, amount int) {
	for _, ally := range e.stacks {
		if ally.Side != healer.Side || !ally.Alive() {
			continue
		}
		if ally.CurrentHP >= ally.Stats.MaxHP {
			continue
		}
		before := ally.TotalHP()
		ally.Heal(amount)
		e.emit(LogEvent{
			Kind:     EventHealed,
			ActorID:  healer.ID,
			TargetID: ally.ID,
			Value:    ally.TotalHP() - before,
			TargetHP: ally.TotalHP(),
		})
		return
	}
}

// rollMorale gives high-morale stacks a chance at an extra action and
// low-morale stacks a chance to falter. Probability is |morale|/24 per the
// d24 roll, morale clamped to ±3. Zero morale never rolls.
func (e *Encounter) rollMorale(actor *entities.Stack) {
	morale := actor.Stats.Morale
	if morale == 0 {
		return
	}
	threshold := abs(morale)
	if threshold > 3 {
		threshold = 3
	}
	r, err := e.roller.Roll(24)
	if err != nil {
		return
	}
	if r > threshold {
		return
	}
	if morale > 0 {
		actor.ExtraTurns = 1
		e.emit(LogEvent{Kind: EventMoraleSurge, ActorID: actor.ID, Value: 1})
		return
	}
	actor.HasActed = true
	e.emit(LogEvent{Kind: EventMoraleFalter, ActorID: actor.ID, Value: -1})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// SubmitAction validates and resolves one action for the current actor.
// Rejected actions leave the encounter unchanged. The returned events are
// the log records this action produced.
func (e *Encounter) SubmitAction(action *Action) ([]LogEvent, error) {
	if action == nil {
		return nil, errors.InvalidArgument("action is required")
	}
	if e.state == StateResolved {
		return nil, errors.FailedPreconditionf("encounter %s is already resolved (%s)", e.id, e.outcome)
	}
	if e.current == nil {
		return nil, errors.FailedPrecondition("no active turn; call NextActor first")
	}
	if action.ActorID != e.current.ID {
		return nil, errors.FailedPreconditionf("it is %s's turn, not %s's", e.current.ID, action.ActorID)
	}
	if !e.current.Alive() {
		return nil, errors.Internalf("current actor %s is destroyed", e.current.ID)
	}
	if e.current.HasActed {
		return nil, errors.FailedPreconditionf("stack %s has already acted this turn", e.current.ID)
	}

	mark := len(e.log)
	var err error
	switch action.Kind {
	case ActionMove:
		err = e.handleMove(e.current, action.Target)
	case ActionAttack:
		err = e.handleAttack(e.current, action.TargetID)
	case ActionCast:
		err = e.handleCast(e.current, action.AbilityID, action.Target)
	case ActionEndTurn:
		e.handleEndTurn(e.current)
	case ActionFlee:
		err = e.handleFlee(e.current)
	default:
		err = errors.InvalidArgumentf("unknown action kind %q", action.Kind)
	}
	if err != nil {
		return nil, err
	}

	produced := make([]LogEvent, len(e.log)-mark)
	copy(produced, e.log[mark:])
	return produced, nil
}

// finishAction ends the actor's turn, honoring a morale extra action
func (e *Encounter) finishAction(actor *entities.Stack) {
	actor.HasActed = true
	if e.state == StateResolved || !actor.Alive() {
		return
	}
	if actor.ExtraTurns > 0 {
		actor.ExtraTurns--
		actor.HasActed = false
	}
}

// applyDamage deals final damage to a target, logging the hit and handling
// stack death. Callers run checkTermination after their last hit.
func (e *Encounter) applyDamage(kind EventKind, actorID string, target *entities.Stack, dmg int) {
	target.TakeDamage(dmg)
	e.emit(LogEvent{
		Kind:     kind,
		ActorID:  actorID,
		TargetID: target.ID,
		Value:    dmg,
		TargetHP: target.TotalHP(),
	})
	if !target.Alive() {
		e.grid.Remove(target)
		e.emit(LogEvent{Kind: EventStackDefeated, TargetID: target.ID})
	}
}

// checkTermination resolves the encounter when one side has no living
// stacks. Defeat wins the tie: a simultaneous wipe counts as a loss.
func (e *Encounter) checkTermination() {
	if e.state == StateResolved {
		return
	}
	playerAlive, enemyAlive := false, false
	for _, stack := range e.stacks {
		if !stack.Alive() {
			continue
		}
		if stack.Side == entities.SidePlayer {
			playerAlive = true
		} else {
			enemyAlive = true
		}
	}
	switch {
	case !playerAlive:
		e.resolve(OutcomeEnemyVictory)
	case !enemyAlive:
		e.resolve(OutcomePlayerVictory)
	}
}

func (e *Encounter) resolve(outcome Outcome) {
	e.outcome = outcome
	e.state = StateResolved
	e.current = nil
	e.emit(LogEvent{Kind: EventResolved})
	slog.Info("Encounter resolved",
		"encounter_id", e.id,
		"outcome", outcome,
		"rounds", e.round,
	)
}

// emit stamps one combat record and fans it out: the in-memory log, the
// observer callback, and the toolkit event bus.
func (e *Encounter) emit(event LogEvent) {
	event.Round = e.round
	e.log = append(e.log, event)
	if e.observer != nil {
		e.observer(event)
	}
	e.publish(event)
}

// publish mirrors a log record onto the event bus with the stacks as the
// event's entities, so toolkit handlers can react to the battle without
// consuming the log format.
func (e *Encounter) publish(record LogEvent) {
	var source, target core.Entity
	if s := e.findStack(record.ActorID); s != nil {
		source = s
	}
	if t := e.findStack(record.TargetID); t != nil {
		target = t
	}
	ev := events.NewGameEvent(string(record.Kind), source, target)
	if err := e.eventBus.Publish(context.Background(), ev); err != nil {
		slog.Warn("Failed to publish combat event",
			"encounter_id", e.id,
			"event_kind", string(record.Kind),
			"error", err,
		)
	}
}

// Result summarizes the encounter. Experience counts defeated enemy
// creatures at 10 apiece.
type Result struct {
	Outcome    Outcome                  `json:"outcome"`
	Rounds     int                      `json:"rounds"`
	Survivors  []entities.StackSnapshot `json:"survivors"`
	Experience int                      `json:"experience"`
}

// Result reports the current standing; final once State is StateResolved
func (e *Encounter) Result() *Result {
	survivors := make([]entities.StackSnapshot, 0, len(e.stacks))
	remaining := 0
	for _, stack := range e.stacks {
		if !stack.Alive() {
			continue
		}
		survivors = append(survivors, stack.Snapshot())
		if stack.Side == entities.SideEnemy {
			remaining += stack.Count
		}
	}
	experience := (e.initialEnemyCount - remaining) * 10
	if experience < 0 {
		experience = 0
	}
	return &Result{
		Outcome:    e.outcome,
		Rounds:     e.round,
		Survivors:  survivors,
		Experience: experience,
	}
}

// sortPositions orders tiles by x then y, the board's reading order
func sortPositions(tiles map[entities.Position]bool) []entities.Position {
	out := make([]entities.Position, 0, len(tiles))
	for p := range tiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}
