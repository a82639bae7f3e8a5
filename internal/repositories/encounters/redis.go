package encounters

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/tactics-api/internal/errors"
	"github.com/KirkDiggler/tactics-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/tactics-api/internal/redis"
)

// Key pattern: encounter:{encounter_id}
const encounterKeyPrefix = "encounter:"

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	if c.Clock == nil {
		return errors.InvalidArgument("clock is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedisRepository creates a new Redis repository for encounters
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

// Save stores a new encounter
func (r *redisRepository) Save(ctx context.Context, input *SaveInput) (*SaveOutput, error) {
	if input == nil || input.State == nil {
		return nil, errors.InvalidArgument("encounter state is required")
	}
	if input.State.ID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	key := r.buildKey(input.State.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check encounter existence")
	}
	if exists > 0 {
		return nil, errors.AlreadyExists("encounter already exists: " + input.State.ID)
	}

	now := r.clock.Now()
	data := &EncounterData{
		ID:        input.State.ID,
		State:     input.State,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.write(ctx, key, data); err != nil {
		return nil, err
	}
	return &SaveOutput{Data: data}, nil
}

// Get retrieves an encounter by ID
func (r *redisRepository) Get(ctx context.Context, input *GetInput) (*GetOutput, error) {
	if input == nil || input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	dataJSON, err := r.client.Get(ctx, r.buildKey(input.EncounterID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFound("encounter not found: " + input.EncounterID)
		}
		return nil, errors.Wrapf(err, "failed to get encounter from Redis")
	}

	var data EncounterData
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeDataLoss, "failed to unmarshal encounter")
	}
	return &GetOutput{Data: &data}, nil
}

// Update replaces the state of an existing encounter
func (r *redisRepository) Update(ctx context.Context, input *UpdateInput) (*UpdateOutput, error) {
	if input == nil || input.State == nil {
		return nil, errors.InvalidArgument("encounter state is required")
	}
	if input.State.ID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	existing, err := r.Get(ctx, &GetInput{EncounterID: input.State.ID})
	if err != nil {
		return nil, err
	}

	data := &EncounterData{
		ID:        input.State.ID,
		State:     input.State,
		CreatedAt: existing.Data.CreatedAt,
		UpdatedAt: r.clock.Now(),
	}
	if err := r.write(ctx, r.buildKey(data.ID), data); err != nil {
		return nil, err
	}
	return &UpdateOutput{Data: data}, nil
}

// Delete removes an encounter
func (r *redisRepository) Delete(ctx context.Context, input *DeleteInput) (*DeleteOutput, error) {
	if input == nil || input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	deleted, err := r.client.Del(ctx, r.buildKey(input.EncounterID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to delete encounter from Redis")
	}
	if deleted == 0 {
		return nil, errors.NotFound("encounter not found: " + input.EncounterID)
	}
	return &DeleteOutput{Success: true}, nil
}

func (r *redisRepository) write(ctx context.Context, key string, data *EncounterData) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal encounter")
	}
	// Encounters live until deleted; no TTL
	if err := r.client.Set(ctx, key, dataJSON, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to store encounter in Redis")
	}
	return nil
}

func (r *redisRepository) buildKey(encounterID string) string {
	return encounterKeyPrefix + encounterID
}
