package orchestration

import (
	"context"
	"fmt"
	"sync"
)

// Store holds live orchestration state keyed by orchestration identifier.
// The engine is the only writer for a given key; Get returns defensive
// copies so callers can never reach engine-internal state.
type Store interface {
	Create(ctx context.Context, state *State) error
	Get(ctx context.Context, orchestrationID string) (*State, error)
	Update(ctx context.Context, orchestrationID string, mutate func(*State) error) error
}

// MemoryStore is the default in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*State),
	}
}

func (s *MemoryStore) Create(_ context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.states[state.ID]; exists {
		return fmt.Errorf("orchestration %s: %w", state.ID, ErrOrchestrationExists)
	}

	s.states[state.ID] = state.Clone()

	return nil
}

func (s *MemoryStore) Get(_ context.Context, orchestrationID string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.states[orchestrationID]
	if !exists {
		return nil, fmt.Errorf("orchestration %s: %w", orchestrationID, ErrOrchestrationNotFound)
	}

	return state.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, orchestrationID string, mutate func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.states[orchestrationID]
	if !exists {
		return fmt.Errorf("orchestration %s: %w", orchestrationID, ErrOrchestrationNotFound)
	}

	return mutate(state)
}
