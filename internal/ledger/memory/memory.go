package memory

import (
	"context"
	"fmt"
	"sync"

	"movimenti/internal/core"
)

// Store is an in-memory ledger used as the default backend and in tests.
type Store struct {
	mu    sync.Mutex
	items []core.Movement
}

func New() *Store {
	return &Store{}
}

// Append stores the movement and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, m core.Movement) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, m)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Movements returns a copy of the appended movements in append order.
func (s *Store) Movements() []core.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Movement(nil), s.items...)
}
