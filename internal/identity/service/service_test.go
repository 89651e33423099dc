package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"livre/internal/crypto"
	"livre/internal/identity/models"
	"livre/internal/identity/store"
	"livre/internal/vault"
	dErrors "livre/pkg/domain-errors"
)

// fakeSnapshotter records every snapshot write so tests can assert
// persistence happens on each mutation.
type fakeSnapshotter struct {
	mu    sync.Mutex
	saves int
	last  []*models.IdentityRecord
	err   error
}

func (f *fakeSnapshotter) Save(records []*models.IdentityRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saves++
	f.last = records
	return nil
}

func (f *fakeSnapshotter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type ServiceSuite struct {
	suite.Suite
	service   *Service
	vault     *vault.Vault
	snapshots *fakeSnapshotter
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	key, err := crypto.NewVaultKey()
	s.Require().NoError(err)
	cipher, err := crypto.NewCipher(key)
	s.Require().NoError(err)

	s.vault = vault.New(cipher)
	s.snapshots = &fakeSnapshotter{}
	s.ctx = context.Background()
	s.service = New(store.NewInMemoryStore(), s.vault, s.snapshots, slog.New(slog.DiscardHandler), nil)
	s.service.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
}

func (s *ServiceSuite) TestCreateHoldsCommitmentInvariant() {
	record, err := s.service.Create(s.ctx)
	s.Require().NoError(err)

	s.True(record.CommitmentValid())
	s.Equal(models.ComputeCommitment(
		record.ControlKey, record.RecoveryKey, record.AttributesRoot, record.PoliciesRoot,
	), record.Commitment)

	// Four independent secrets plus the id, all distinct.
	seen := map[string]bool{
		record.IdentityID:     true,
		record.ControlKey:     true,
		record.RecoveryKey:    true,
		record.AttributesRoot: true,
		record.PoliciesRoot:   true,
	}
	s.Len(seen, 5)
	s.Equal(1, s.snapshots.count())
}

func (s *ServiceSuite) TestGetUnknownIdentity() {
	_, err := s.service.Get(s.ctx, "missing")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSetAttributesRotatesCommitment() {
	record, err := s.service.Create(s.ctx)
	s.Require().NoError(err)
	before := record.Commitment

	result, err := s.service.SetAttributes(s.ctx, record.IdentityID, models.AttributesPayload{
		Birthdate: "2000-01-01",
		Country:   "pt",
	})
	s.Require().NoError(err)

	s.NotEqual(before, result.Commitment)
	s.Equal(vault.AttributesRoot(models.AttributesPayload{Birthdate: "2000-01-01", Country: "pt"}), result.AttributesRoot)

	// The stored record carries the new root, new commitment, and the
	// payload, and still satisfies the invariant.
	stored, err := s.service.Get(s.ctx, record.IdentityID)
	s.Require().NoError(err)
	s.Equal(result.Commitment, stored.Commitment)
	s.Equal(result.AttributesRoot, stored.AttributesRoot)
	s.True(stored.CommitmentValid())
	s.Require().NotNil(stored.Attributes)
	s.Equal("pt", stored.Attributes.Country)

	// Vault holds the encrypted payload under the same root.
	root, err := s.vault.GetAttributesRoot(s.ctx, record.IdentityID)
	s.Require().NoError(err)
	s.Equal(result.AttributesRoot, root)

	s.Equal(2, s.snapshots.count()) // create + set
}

func (s *ServiceSuite) TestSetAttributesValidation() {
	record, err := s.service.Create(s.ctx)
	s.Require().NoError(err)

	cases := map[string]models.AttributesPayload{
		"bad shape":      {Birthdate: "01-01-2000", Country: "PT"},
		"feb 30":         {Birthdate: "2001-02-30", Country: "PT"},
		"future":         {Birthdate: "2027-01-01", Country: "PT"},
		"age 150":        {Birthdate: "1876-08-31", Country: "PT"},
		"bad country":    {Birthdate: "2000-01-01", Country: "PRT"},
		"empty country":  {Birthdate: "2000-01-01"},
		"empty birthday": {Country: "PT"},
	}
	for name, payload := range cases {
		_, err := s.service.SetAttributes(s.ctx, record.IdentityID, payload)
		s.Require().Error(err, name)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation), name)
	}

	// Validation failures never mutate the record.
	stored, err := s.service.Get(s.ctx, record.IdentityID)
	s.Require().NoError(err)
	s.Equal(record.Commitment, stored.Commitment)
	s.Nil(stored.Attributes)
}

func (s *ServiceSuite) TestSetAttributesUnknownIdentity() {
	_, err := s.service.SetAttributes(s.ctx, "missing", models.AttributesPayload{
		Birthdate: "2000-01-01",
		Country:   "PT",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	// Nothing leaked into the vault for the unknown id.
	_, err = s.vault.GetAttributes(s.ctx, "missing")
	s.Error(err)
}

func (s *ServiceSuite) TestUpdateAttributesRoot() {
	record, err := s.service.Create(s.ctx)
	s.Require().NoError(err)

	updated, err := s.service.UpdateAttributesRoot(s.ctx, record.IdentityID, "new-root")
	s.Require().NoError(err)
	s.Equal("new-root", updated.AttributesRoot)
	s.True(updated.CommitmentValid())
	s.Equal(record.ControlKey, updated.ControlKey)
	s.Equal(record.RecoveryKey, updated.RecoveryKey)
	s.NotEqual(record.Commitment, updated.Commitment)

	_, err = s.service.UpdateAttributesRoot(s.ctx, "missing", "root")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestEnsureAttributesRootBackfill() {
	record, err := s.service.Create(s.ctx)
	s.Require().NoError(err)
	_, err = s.service.SetAttributes(s.ctx, record.IdentityID, models.AttributesPayload{
		Birthdate: "2000-01-01",
		Country:   "PT",
	})
	s.Require().NoError(err)

	// Simulate an older snapshot that carried attributes without a root.
	stored, err := s.service.Get(s.ctx, record.IdentityID)
	s.Require().NoError(err)
	commitmentBefore := stored.Commitment
	stored.AttributesRoot = ""
	s.Require().NoError(s.service.store.Save(s.ctx, stored))

	repaired, err := s.service.EnsureAttributesRoot(s.ctx, record.IdentityID)
	s.Require().NoError(err)
	s.Equal(vault.AttributesRoot(*stored.Attributes), repaired.AttributesRoot)
	// Backfill repairs the root without rotating the commitment.
	s.Equal(commitmentBefore, repaired.Commitment)
}

func (s *ServiceSuite) TestEnsureAttributesRootNoopWhenPresent() {
	record, err := s.service.Create(s.ctx)
	s.Require().NoError(err)

	saves := s.snapshots.count()
	got, err := s.service.EnsureAttributesRoot(s.ctx, record.IdentityID)
	s.Require().NoError(err)
	s.Equal(record.AttributesRoot, got.AttributesRoot)
	s.Equal(saves, s.snapshots.count()) // no extra snapshot write
}

func (s *ServiceSuite) TestSnapshotFailureSurfaces() {
	s.snapshots.err = dErrors.New(dErrors.CodeInternal, "disk full")
	_, err := s.service.Create(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestConcurrentSetAttributesKeepsInvariant() {
	record, err := s.service.Create(s.ctx)
	s.Require().NoError(err)

	payloads := []models.AttributesPayload{
		{Birthdate: "2000-01-01", Country: "PT"},
		{Birthdate: "1995-05-05", Country: "ES"},
		{Birthdate: "1988-12-31", Country: "pt"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.service.SetAttributes(s.ctx, record.IdentityID, payloads[i%len(payloads)])
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	// Last-write-wins is fine; a torn root/commitment pair is not.
	stored, err := s.service.Get(s.ctx, record.IdentityID)
	s.Require().NoError(err)
	s.True(stored.CommitmentValid())
	s.Require().NotNil(stored.Attributes)
	s.Equal(vault.AttributesRoot(*stored.Attributes), stored.AttributesRoot)
}
