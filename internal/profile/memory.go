package profile

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	roles map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{roles: make(map[string]string)}
}

func (s *MemoryStore) Role(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[userID]
	if !ok {
		return "", ErrNotFound
	}
	return role, nil
}

func (s *MemoryStore) SetRole(_ context.Context, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[userID] = role
	return nil
}
