package credential

import (
	"context"
	"sync"
)

// MemoryStore keeps the token pair in process memory
type MemoryStore struct {
	mu    sync.Mutex
	state *TokenState
	saves int
}

// NewMemoryStore creates a MemoryStore, optionally seeded with state
func NewMemoryStore(seed *TokenState) *MemoryStore {
	return &MemoryStore{state: seed}
}

func (s *MemoryStore) Load(_ context.Context) (TokenState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return TokenState{}, ErrNotFound
	}
	return *s.state, nil
}

func (s *MemoryStore) Save(_ context.Context, state TokenState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &state
	s.saves++
	return nil
}

// Saves is how many times Save was called
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
