package combat

import (
	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// EventKind identifies a combat-log record type
type EventKind string

// Event kinds
const (
	EventRoundStarted  EventKind = "round_started"
	EventTurnStarted   EventKind = "turn_started"
	EventMoved         EventKind = "moved"
	EventAttacked      EventKind = "attacked"
	EventRetaliated    EventKind = "retaliated"
	EventSpellCast     EventKind = "spell_cast"
	EventSpellHit      EventKind = "spell_hit"
	EventHealed        EventKind = "healed"
	EventStatusDamage  EventKind = "status_damage"
	EventKnockedBack   EventKind = "knocked_back"
	EventMoraleSurge   EventKind = "morale_surge"
	EventMoraleFalter  EventKind = "morale_falter"
	EventStackDefeated EventKind = "stack_defeated"
	EventTurnEnded     EventKind = "turn_ended"
	EventFled          EventKind = "fled"
	EventResolved      EventKind = "resolved"
)

// LogEvent is one combat-log record. Value carries the kind-specific
// magnitude: damage dealt, HP healed, tiles moved, or mana spent. TargetHP is
// the target's aggregate HP after the event, for kinds that deal damage.
type LogEvent struct {
	Round    int                `json:"round"`
	Kind     EventKind          `json:"kind"`
	ActorID  string             `json:"actor_id,omitempty"`
	TargetID string             `json:"target_id,omitempty"`
	Value    int                `json:"value,omitempty"`
	TargetHP int                `json:"target_hp,omitempty"`
	Position *entities.Position `json:"position,omitempty"`
}

// Observer receives each combat-log record as it is appended. Called
// synchronously from the resolving goroutine; observers must not submit
// actions back into the encounter.
type Observer func(LogEvent)
