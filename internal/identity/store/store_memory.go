package store

import (
	"context"
	"sync"

	"livre/internal/identity/models"
	"livre/pkg/platform/sentinel"
)

// InMemoryStore is the default identity backend. An insertion-order slice
// sits beside the map so listings are stable.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.IdentityRecord
	order   []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*models.IdentityRecord)}
}

func (s *InMemoryStore) Save(_ context.Context, record *models.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.IdentityID]; !exists {
		s.order = append(s.order, record.IdentityID)
	}
	s.records[record.IdentityID] = record.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.IdentityRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}
