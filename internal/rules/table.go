// Package rules holds the data-declared ability and spell descriptors
// interpreted by the combat resolver. The table is built once at process
// start and shared read-only across encounters; it is never mutated, so no
// synchronization is needed.
package rules

import (
	"log/slog"
)

// Trigger identifies when the resolver consults a descriptor
type Trigger string

// Triggers
const (
	// TriggerOnMove effects alter movement (budget multipliers, traversal)
	TriggerOnMove Trigger = "on_move"
	// TriggerOnAttack effects alter an outgoing attack
	TriggerOnAttack Trigger = "on_attack"
	// TriggerOnTurnStart effects fire automatically at the owner's turn start
	TriggerOnTurnStart Trigger = "on_turn_start"
	// TriggerActive effects are cast explicitly and consume the turn
	TriggerActive Trigger = "active"
)

// Well-known ability, spell, and status ids
const (
	AbilityCharge      = "charge"
	AbilityFlying      = "flying"
	AbilityPassiveHeal = "passive_heal"
	SpellFireball      = "fireball"
	StatusBurn         = "burn"
)

// Descriptor is a declarative effect rule. Fields are interpreted by the
// resolver according to the trigger; unused fields stay zero.
type Descriptor struct {
	ID      string
	Trigger Trigger

	// DamageBonus is the fractional bonus applied to an attack when the
	// condition holds (0.5 means +50%).
	DamageBonus float64
	// MinMove is the number of tiles the owner must have moved this turn
	// before DamageBonus applies.
	MinMove int
	// Knockback pushes the target this many tiles away on a triggered hit
	Knockback int
	// SpeedFactor multiplies the owner's movement budget (0 means 1)
	SpeedFactor int

	// Heal restores this many hit points per trigger
	Heal int

	// Damage is the flat damage dealt by a spell or damaging status
	Damage int
	// ManaCost is consumed from the caster's pool
	ManaCost int
	// Range is the maximum Manhattan distance to the target tile
	Range int
	// Radius is the Chebyshev radius of the affected area
	Radius int
	// Duration is the number of rounds an applied status lasts
	Duration int
}

// Table is the process-wide read-only rule lookup
type Table struct {
	byID map[string]Descriptor
}

// NewTable builds a table from descriptors. Later duplicates win, which
// lets callers override built-ins in tests.
func NewTable(descriptors ...Descriptor) *Table {
	byID := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		byID[d.ID] = d
	}
	return &Table{byID: byID}
}

// Default returns the built-in rule set
func Default() *Table {
	return NewTable(
		Descriptor{
			ID:          AbilityCharge,
			Trigger:     TriggerOnAttack,
			DamageBonus: 0.5,
			MinMove:     2,
			Knockback:   1,
			SpeedFactor: 2,
		},
		Descriptor{
			ID:      AbilityFlying,
			Trigger: TriggerOnMove,
		},
		Descriptor{
			ID:      AbilityPassiveHeal,
			Trigger: TriggerOnTurnStart,
			Heal:    5,
		},
		Descriptor{
			ID:       SpellFireball,
			Trigger:  TriggerActive,
			Damage:   30,
			ManaCost: 5,
			Range:    4,
			Radius:   1,
		},
		Descriptor{
			ID:       StatusBurn,
			Trigger:  TriggerOnTurnStart,
			Damage:   5,
			Duration: 2,
		},
	)
}

// Lookup returns the descriptor for an id. Unknown ids are a data error
// from the loading layer: they are logged and reported absent so the
// resolver can treat them as no-ops instead of corrupting the encounter.
func (t *Table) Lookup(id string) (Descriptor, bool) {
	d, ok := t.byID[id]
	if !ok {
		slog.Warn("Unknown ability id, treating as no-op",
			"ability_id", id,
		)
	}
	return d, ok
}

// Has reports whether the table declares an id, without logging
func (t *Table) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}
