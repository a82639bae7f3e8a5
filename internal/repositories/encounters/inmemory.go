package encounters

import (
	"context"
	"sync"

	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/pkg/clock"
)

// InMemoryRepository implements Repository using in-memory storage. The
// default for the CLI and for tests that do not need Redis.
type InMemoryRepository struct {
	mu    sync.RWMutex
	clock clock.Clock
	store map[string]*EncounterData
}

// NewInMemory creates a new in-memory repository. A nil clock means real
// time.
func NewInMemory(clk clock.Clock) *InMemoryRepository {
	if clk == nil {
		clk = &clock.Real{}
	}
	return &InMemoryRepository{
		clock: clk,
		store: make(map[string]*EncounterData),
	}
}

// Ensure InMemoryRepository implements Repository
var _ Repository = (*InMemoryRepository)(nil)

// Save stores a new encounter
func (r *InMemoryRepository) Save(_ context.Context, input *SaveInput) (*SaveOutput, error) {
	if input == nil || input.State == nil {
		return nil, errors.InvalidArgument("encounter state is required")
	}
	if input.State.ID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[input.State.ID]; exists {
		return nil, errors.AlreadyExists("encounter already exists: " + input.State.ID)
	}

	now := r.clock.Now()
	data := &EncounterData{
		ID:        input.State.ID,
		State:     input.State,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.store[data.ID] = data
	return &SaveOutput{Data: copyData(data)}, nil
}

// Get retrieves an encounter by ID
func (r *InMemoryRepository) Get(_ context.Context, input *GetInput) (*GetOutput, error) {
	if input == nil || input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, exists := r.store[input.EncounterID]
	if !exists {
		return nil, errors.NotFound("encounter not found: " + input.EncounterID)
	}
	return &GetOutput{Data: copyData(data)}, nil
}

// Update replaces the state of an existing encounter
func (r *InMemoryRepository) Update(_ context.Context, input *UpdateInput) (*UpdateOutput, error) {
	if input == nil || input.State == nil {
		return nil, errors.InvalidArgument("encounter state is required")
	}
	if input.State.ID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.store[input.State.ID]
	if !exists {
		return nil, errors.NotFound("encounter not found: " + input.State.ID)
	}

	data := &EncounterData{
		ID:        input.State.ID,
		State:     input.State,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: r.clock.Now(),
	}
	r.store[data.ID] = data
	return &UpdateOutput{Data: copyData(data)}, nil
}

// Delete removes an encounter
func (r *InMemoryRepository) Delete(_ context.Context, input *DeleteInput) (*DeleteOutput, error) {
	if input == nil || input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[input.EncounterID]; !exists {
		return nil, errors.NotFound("encounter not found: " + input.EncounterID)
	}
	delete(r.store, input.EncounterID)
	return &DeleteOutput{Success: true}, nil
}

// copyData shields the store from callers mutating returned records. The
// nested saved state is shared; orchestrators treat it as read-only input to
// combat.Restore.
func copyData(data *EncounterData) *EncounterData {
	copied := *data
	return &copied
}
