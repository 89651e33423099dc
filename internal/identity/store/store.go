// Package store defines the identity repository abstraction. The registry
// service talks to this interface so the in-memory backend can be seeded
// from (and flushed to) the encrypted snapshot without the issuance or
// verification logic knowing.
package store

import (
	"context"

	"livre/internal/identity/models"
)

// Store owns identity records and their synchronization. Implementations
// must return copies, never aliases into their own state, so the four-field
// commitment invariant can never be observed half-updated by a reader.
type Store interface {
	// Save inserts or replaces the record keyed by its IdentityID.
	Save(ctx context.Context, record *models.IdentityRecord) error
	// FindByID returns the record or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.IdentityRecord, error)
	// List returns all records in creation order.
	List(ctx context.Context) ([]*models.IdentityRecord, error)
}
