package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "modelflow:orchestration:"

// RedisStore keeps orchestration state in Redis so the API surface can be
// served from multiple processes. The single-writer discipline still holds:
// only the engine owning an orchestration may update its key.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode orchestration state: %w", err)
	}

	created, err := s.client.SetNX(ctx, redisKeyPrefix+state.ID, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store orchestration state: %w", err)
	}

	if !created {
		return fmt.Errorf("orchestration %s: %w", state.ID, ErrOrchestrationExists)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, orchestrationID string) (*State, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+orchestrationID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("orchestration %s: %w", orchestrationID, ErrOrchestrationNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load orchestration state: %w", err)
	}

	var state State

	err = json.Unmarshal(payload, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to decode orchestration state: %w", err)
	}

	return &state, nil
}

func (s *RedisStore) Update(ctx context.Context, orchestrationID string, mutate func(*State) error) error {
	state, err := s.Get(ctx, orchestrationID)
	if err != nil {
		return err
	}

	err = mutate(state)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode orchestration state: %w", err)
	}

	err = s.client.Set(ctx, redisKeyPrefix+orchestrationID, payload, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to store orchestration state: %w", err)
	}

	return nil
}
