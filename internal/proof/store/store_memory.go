package store

import (
	"context"
	"sync"

	"livre/internal/proof"
)

// InMemoryRegistry is the default backend: a per-identity append log that
// lives for the process lifetime only.
type InMemoryRegistry struct {
	mu     sync.RWMutex
	proofs map[string][]proof.Bundle
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{proofs: make(map[string][]proof.Bundle)}
}

func (r *InMemoryRegistry) Record(_ context.Context, bundle proof.Bundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proofs[bundle.IdentityID] = append(r.proofs[bundle.IdentityID], bundle)
	return nil
}

func (r *InMemoryRegistry) ListByIdentity(_ context.Context, identityID string) ([]proof.Bundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]proof.Bundle{}, r.proofs[identityID]...), nil
}
