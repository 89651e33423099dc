// Package store holds the proof registry backends. The registry is an
// append-only log of issued proofs per identity: no dedup, no deletion,
// insertion order preserved.
package store

import (
	"context"

	"livre/internal/proof"
)

// Registry is the append-only proof log.
type Registry interface {
	// Record appends the bundle. Duplicate bundles append again.
	Record(ctx context.Context, bundle proof.Bundle) error
	// ListByIdentity returns the identity's proofs in insertion order;
	// empty slice when none exist.
	ListByIdentity(ctx context.Context, identityID string) ([]proof.Bundle, error)
}
