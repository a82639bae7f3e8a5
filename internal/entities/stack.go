// Package entities defines the combat domain types shared across the engine,
// orchestrator, and repositories.
package entities

// Side identifies which army a stack fights for
type Side string

// Sides
const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// Opponent returns the opposing side
func (s Side) Opponent() Side {
	if s == SidePlayer {
		return SideEnemy
	}
	return SidePlayer
}

// AttackType selects which defence stat mitigates a hit
type AttackType string

// Attack types
const (
	AttackMelee  AttackType = "melee"
	AttackRanged AttackType = "ranged"
	AttackMagic  AttackType = "magic"
)

// Position is a coordinate on the combat grid
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ManhattanTo returns the Manhattan distance to another position. Attack and
// spell ranges use this metric, matching 4-neighbour movement.
func (p Position) ManhattanTo(o Position) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

// ChebyshevTo returns the Chebyshev distance to another position. Area spells
// use this metric: radius 1 covers the 3x3 box around the target tile.
func (p Position) ChebyshevTo(o Position) int {
	dx := abs(p.X - o.X)
	dy := abs(p.Y - o.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// StackStats holds the base statistics shared by all creatures of a type.
// Morale and Luck default to 0, which disables their rolls entirely.
type StackStats struct {
	Name                 string   `json:"name"`
	MaxHP                int      `json:"max_hp"`
	AttackMin            int      `json:"attack_min"`
	AttackMax            int      `json:"attack_max"`
	DefenceMelee         int      `json:"defence_melee"`
	DefenceRanged        int      `json:"defence_ranged"`
	DefenceMagic         int      `json:"defence_magic"`
	Speed                int      `json:"speed"`
	AttackRange          int      `json:"attack_range"`
	MinRange             int      `json:"min_range"`
	Initiative           int      `json:"initiative"`
	Mana                 int      `json:"mana"`
	RetaliationsPerRound int      `json:"retaliations_per_round"`
	Morale               int      `json:"morale"`
	Luck                 int      `json:"luck"`
	Abilities            []string `json:"abilities,omitempty"`
}

// StatusEffect is an active timed effect on a stack. Modifiers adjust named
// stats (e.g. "initiative", "speed") while the effect lasts.
type StatusEffect struct {
	Kind      string         `json:"kind"`
	Duration  int            `json:"duration"`
	Modifiers map[string]int `json:"modifiers,omitempty"`
}

// StackSpec is the encounter-creation input for one stack
type StackSpec struct {
	Stats StackStats `json:"stats"`
	Count int        `json:"count"`
}

// Stack is a combat actor: one or more identical creatures merged into a
// single entity. Damage is applied to the top creature first; when it dies
// the count drops by one and the next creature starts at full HP.
type Stack struct {
	ID    string     `json:"id"`
	Side  Side       `json:"side"`
	Stats StackStats `json:"stats"`

	Count     int      `json:"count"`
	CurrentHP int      `json:"current_hp"`
	Mana      int      `json:"mana"`
	Position  Position `json:"position"`

	MovementLeft     int            `json:"movement_left"`
	MovedThisTurn    int            `json:"moved_this_turn"`
	HasActed         bool           `json:"has_acted"`
	RetaliationsLeft int            `json:"retaliations_left"`
	ExtraTurns       int            `json:"extra_turns,omitempty"`
	AttackBonus      int            `json:"attack_bonus"`
	InitiativeBonus  int            `json:"initiative_bonus"`
	Effects          []StatusEffect `json:"effects,omitempty"`
}

// NewStack creates a stack from a spec at full strength
func NewStack(id string, side Side, spec StackSpec) *Stack {
	return &Stack{
		ID:               id,
		Side:             side,
		Stats:            spec.Stats,
		Count:            spec.Count,
		CurrentHP:        spec.Stats.MaxHP,
		Mana:             spec.Stats.Mana,
		RetaliationsLeft: spec.Stats.RetaliationsPerRound,
	}
}

// GetID implements core.Entity
func (s *Stack) GetID() string {
	return s.ID
}

// GetType implements core.Entity
func (s *Stack) GetType() string {
	return "stack"
}

// Alive reports whether any creatures remain
func (s *Stack) Alive() bool {
	return s.Count > 0
}

// HasAbility reports whether the stack's type declares the ability
func (s *Stack) HasAbility(id string) bool {
	for _, a := range s.Stats.Abilities {
		if a == id {
			return true
		}
	}
	return false
}

// Initiative returns effective initiative including bonuses and status
// modifiers. Recomputed each round so effects can reorder the schedule.
func (s *Stack) Initiative() int {
	return s.Stats.Initiative + s.InitiativeBonus + s.effectModifier("initiative")
}

// Speed returns the effective movement budget for one turn
func (s *Stack) Speed() int {
	speed := s.Stats.Speed + s.effectModifier("speed")
	if speed < 0 {
		return 0
	}
	return speed
}

func (s *Stack) effectModifier(stat string) int {
	total := 0
	for _, e := range s.Effects {
		total += e.Modifiers[stat]
	}
	return total
}

// AddEffect attaches a status effect, refreshing the duration if an effect
// of the same kind is already active
func (s *Stack) AddEffect(effect StatusEffect) {
	for i := range s.Effects {
		if s.Effects[i].Kind == effect.Kind {
			s.Effects[i] = effect
			return
		}
	}
	s.Effects = append(s.Effects, effect)
}

// EffectDuration returns the remaining duration of an effect, 0 if absent
func (s *Stack) EffectDuration(kind string) int {
	for _, e := range s.Effects {
		if e.Kind == kind {
			return e.Duration
		}
	}
	return 0
}

// RemoveEffect clears an active effect by kind
func (s *Stack) RemoveEffect(kind string) {
	for i, e := range s.Effects {
		if e.Kind == kind {
			s.Effects = append(s.Effects[:i], s.Effects[i+1:]...)
			return
		}
	}
}

// TickEffects decrements every effect's duration and drops expired ones.
// Called at round end.
func (s *Stack) TickEffects() {
	kept := s.Effects[:0]
	for _, e := range s.Effects {
		e.Duration--
		if e.Duration > 0 {
			kept = append(kept, e)
		}
	}
	s.Effects = kept
}

// TakeDamage applies damage to the stack, peeling creatures off the top.
// The surviving top creature keeps its remaining HP.
func (s *Stack) TakeDamage(dmg int) {
	for dmg > 0 && s.Count > 0 {
		if dmg >= s.CurrentHP {
			dmg -= s.CurrentHP
			s.Count--
			s.CurrentHP = 0
			if s.Count > 0 {
				s.CurrentHP = s.Stats.MaxHP
			}
		} else {
			s.CurrentHP -= dmg
			dmg = 0
		}
	}
}

// Heal restores HP to the top creature, bounded by max HP. Healing never
// revives lost creatures.
func (s *Stack) Heal(amount int) {
	if !s.Alive() || amount <= 0 {
		return
	}
	s.CurrentHP += amount
	if s.CurrentHP > s.Stats.MaxHP {
		s.CurrentHP = s.Stats.MaxHP
	}
}

// TotalHP returns the stack's aggregate remaining hit points
func (s *Stack) TotalHP() int {
	if s.Count <= 0 {
		return 0
	}
	return (s.Count-1)*s.Stats.MaxHP + s.CurrentHP
}

// Defence returns the defence stat matching an attack type
func (s *Stack) Defence(attackType AttackType) int {
	switch attackType {
	case AttackRanged:
		return s.Stats.DefenceRanged
	case AttackMagic:
		return s.Stats.DefenceMagic
	default:
		return s.Stats.DefenceMelee
	}
}

// ApplyDefence reduces damage by the defender's matching defence stat,
// scaled by stack size. A connecting hit always deals at least 1.
func ApplyDefence(damage int, defender *Stack, attackType AttackType) int {
	reduced := damage - defender.Defence(attackType)*defender.Count
	if reduced < 1 {
		return 1
	}
	return reduced
}

// StackSnapshot is the read-only view of a stack reported in encounter
// output and combat-log events
type StackSnapshot struct {
	ID        string   `json:"id"`
	Side      Side     `json:"side"`
	Name      string   `json:"name"`
	Count     int      `json:"count"`
	CurrentHP int      `json:"current_hp"`
	Mana      int      `json:"mana"`
	Position  Position `json:"position"`
}

// Snapshot captures the stack's externally visible state
func (s *Stack) Snapshot() StackSnapshot {
	return StackSnapshot{
		ID:        s.ID,
		Side:      s.Side,
		Name:      s.Stats.Name,
		Count:     s.Count,
		CurrentHP: s.CurrentHP,
		Mana:      s.Mana,
		Position:  s.Position,
	}
}
