package combat

import (
	"github.com/KirkDiggler/tactics-api/internal/entities"
)

// ActionKind identifies what a stack is trying to do on its turn
type ActionKind string

// Action kinds
const (
	// ActionMove walks or flies to a destination tile. Does not end the turn.
	ActionMove ActionKind = "move"
	// ActionAttack strikes a target stack in range. Ends the turn.
	ActionAttack ActionKind = "attack"
	// ActionCast casts an active ability at a target tile. Ends the turn.
	ActionCast ActionKind = "cast"
	// ActionEndTurn forfeits remaining movement and ends the turn
	ActionEndTurn ActionKind = "end_turn"
	// ActionFlee concedes the battle for the player side
	ActionFlee ActionKind = "flee"
)

// Action is one submitted order for the current actor. Target is read for
// move and cast, TargetID for attack, AbilityID for cast.
type Action struct {
	Kind      ActionKind        `json:"kind"`
	ActorID   string            `json:"actor_id"`
	Target    entities.Position `json:"target"`
	TargetID  string            `json:"target_id,omitempty"`
	AbilityID string            `json:"ability_id,omitempty"`
}
