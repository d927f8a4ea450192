package cache

import (
	"context"
	"sync"

	"painel/internal/models"
)

// MemoryStore keeps the snapshot in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *models.DeputySnapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*models.DeputySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, nil
}

func (s *MemoryStore) Save(_ context.Context, snap *models.DeputySnapshot) error {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
	return nil
}
