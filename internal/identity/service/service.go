// Package service implements the identity registry: record creation, the
// commitment invariant, and attribute rotation. Every mutation recomputes
// the commitment and rewrites the encrypted snapshot before returning.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"livre/internal/crypto"
	"livre/internal/identity/models"
	"livre/internal/identity/store"
	"livre/internal/platform/metrics"
	"livre/internal/policy"
	"livre/internal/vault"
	dErrors "livre/pkg/domain-errors"
	"livre/pkg/platform/sentinel"
)

// Snapshotter rewrites the persistent encrypted registry snapshot.
type Snapshotter interface {
	Save(records []*models.IdentityRecord) error
}

// Service owns identity records. A single registry-wide mutex serializes
// mutations: coarse, but it guarantees no reader ever observes a new
// attributes root with a stale commitment or vice versa. Throughput is not
// the concern here; the invariant is.
type Service struct {
	mu        sync.Mutex
	store     store.Store
	vault     *vault.Vault
	snapshots Snapshotter
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func New(st store.Store, v *vault.Vault, snapshots Snapshotter, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:     st,
		vault:     v,
		snapshots: snapshots,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Create generates four independent random secrets, binds them into the
// commitment, stores and persists the record. Before attributes are set the
// attributes root is a random placeholder, not a hash of anything.
func (s *Service) Create(ctx context.Context) (*models.IdentityRecord, error) {
	ids := make([]string, 5)
	for i := range ids {
		v, err := crypto.RandomID(crypto.DefaultIDBytes)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate identity secrets")
		}
		ids[i] = v
	}

	record := &models.IdentityRecord{
		IdentityID:     ids[0],
		ControlKey:     ids[1],
		RecoveryKey:    ids[2],
		AttributesRoot: ids[3],
		PoliciesRoot:   ids[4],
		CreatedAt:      s.now().UTC(),
	}
	record.RecomputeCommitment()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store identity")
	}
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	s.metrics.IncIdentitiesCreated()
	s.logger.InfoContext(ctx, "identity created", "identity_id", record.IdentityID)
	return record, nil
}

// Get returns the full record, secrets included. Callers facing the outside
// world must project through models.PublicIdentity.
func (s *Service) Get(ctx context.Context, id string) (*models.IdentityRecord, error) {
	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return record, nil
}

// List returns all records in creation order.
func (s *Service) List(ctx context.Context) ([]*models.IdentityRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identities")
	}
	return records, nil
}

// UpdateAttributesRoot replaces the attributes root and recomputes the
// commitment from the unchanged secrets in the same critical section.
func (s *Service) UpdateAttributesRoot(ctx context.Context, id, newRoot string) (*models.IdentityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotateRootLocked(ctx, id, newRoot, nil)
}

// SetAttributes validates the payload, stores it encrypted in the vault,
// and rotates the attributes root and commitment atomically.
func (s *Service) SetAttributes(ctx context.Context, id string, attrs models.AttributesPayload) (*models.SetAttributesResult, error) {
	if err := policy.ValidateBirthdate(attrs.Birthdate, s.now()); err != nil {
		return nil, err
	}
	if err := policy.ValidateCountry(attrs.Country); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reject unknown identities before the vault accepts anything.
	if _, err := s.store.FindByID(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}

	stored, err := s.vault.StoreAttributes(ctx, id, attrs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store attributes")
	}

	record, err := s.rotateRootLocked(ctx, id, stored.AttributesRoot, &attrs)
	if err != nil {
		return nil, err
	}

	s.metrics.IncAttributeUpdates()
	s.logger.InfoContext(ctx, "attributes updated",
		"identity_id", id,
		"attributes_root", record.AttributesRoot,
	)
	return &models.SetAttributesResult{
		IdentityID:     record.IdentityID,
		Commitment:     record.Commitment,
		AttributesRoot: record.AttributesRoot,
	}, nil
}

// EnsureAttributesRoot backfills a missing attributes root from the stored
// attributes, persisting the recomputed root. The commitment is left as
// stored: backfill repairs the root, it does not rotate the identity.
func (s *Service) EnsureAttributesRoot(ctx context.Context, id string) (*models.IdentityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	if record.AttributesRoot != "" || record.Attributes == nil {
		return record, nil
	}

	record.AttributesRoot = vault.AttributesRoot(*record.Attributes)
	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store identity")
	}
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "attributes root backfilled", "identity_id", id)
	return record, nil
}

// rotateRootLocked loads, rotates, saves, and persists under the held lock.
func (s *Service) rotateRootLocked(ctx context.Context, id, newRoot string, attrs *models.AttributesPayload) (*models.IdentityRecord, error) {
	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}

	record.AttributesRoot = newRoot
	if attrs != nil {
		payload := *attrs
		record.Attributes = &payload
	}
	record.RecomputeCommitment()

	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store identity")
	}
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// persistLocked rewrites the encrypted snapshot from the full registry.
// Synchronous on every mutation; fine at this record count.
func (s *Service) persistLocked(ctx context.Context) error {
	records, err := s.store.List(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read registry for snapshot")
	}
	if err := s.snapshots.Save(records); err != nil {
		s.logger.ErrorContext(ctx, "snapshot write failed", "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist registry")
	}
	return nil
}
