// Package encounters provides the storage interface and types for tactical
// encounters
package encounters

//go:generate mockgen -destination=mock/mock_repository.go -package=encountersmock github.com/KirkDiggler/tactics-api/internal/repositories/encounters Repository

import (
	"context"
	"time"

	"github.com/KirkDiggler/tactics-api/internal/combat"
)

// EncounterData is the persistent form of an encounter: the engine's saved
// state plus bookkeeping timestamps
type EncounterData struct {
	ID        string             `json:"id"`
	State     *combat.SavedState `json:"state"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// SaveInput defines the request for storing a new encounter
type SaveInput struct {
	State *combat.SavedState
}

// SaveOutput defines the response for storing a new encounter
type SaveOutput struct {
	Data *EncounterData
}

// GetInput defines the request for retrieving an encounter
type GetInput struct {
	EncounterID string
}

// GetOutput defines the response for retrieving an encounter
type GetOutput struct {
	Data *EncounterData
}

// UpdateInput defines the request for replacing an encounter's state after
// actions resolve
type UpdateInput struct {
	State *combat.SavedState
}

// UpdateOutput defines the response for updating an encounter
type UpdateOutput struct {
	Data *EncounterData
}

// DeleteInput defines the request for deleting an encounter
type DeleteInput struct {
	EncounterID string
}

// DeleteOutput defines the response for deleting an encounter
type DeleteOutput struct {
	Success bool
}

// Repository defines the storage interface for encounters
type Repository interface {
	// Save stores a new encounter
	Save(ctx context.Context, input *SaveInput) (*SaveOutput, error)

	// Get retrieves an encounter by ID
	Get(ctx context.Context, input *GetInput) (*GetOutput, error)

	// Update replaces the state of an existing encounter
	Update(ctx context.Context, input *UpdateInput) (*UpdateOutput, error)

	// Delete removes an encounter
	Delete(ctx context.Context, input *DeleteInput) (*DeleteOutput, error)
}
