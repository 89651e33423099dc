package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"livre/internal/proof"
)

type InMemoryRegistrySuite struct {
	suite.Suite
	registry *InMemoryRegistry
	ctx      context.Context
}

func TestInMemoryRegistrySuite(t *testing.T) {
	suite.Run(t, new(InMemoryRegistrySuite))
}

func (s *InMemoryRegistrySuite) SetupTest() {
	s.registry = NewInMemoryRegistry()
	s.ctx = context.Background()
}

func bundleAt(identityID, templateID string, minute int) proof.Bundle {
	return proof.Bundle{
		IdentityID: identityID,
		TemplateID: templateID,
		ProofHash:  proof.ComputeHash(identityID, templateID, "commitment", "root"),
		IssuedAt:   time.Date(2026, 8, 31, 12, minute, 0, 0, time.UTC),
	}
}

func (s *InMemoryRegistrySuite) TestListEmptyIdentity() {
	bundles, err := s.registry.ListByIdentity(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(bundles)
}

func (s *InMemoryRegistrySuite) TestAppendPreservesInsertionOrder() {
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.registry.Record(s.ctx, bundleAt("id-1", "age_over_18_and_resident_pt", i)))
	}
	s.Require().NoError(s.registry.Record(s.ctx, bundleAt("id-2", "age_over_18_and_resident_pt", 9)))

	bundles, err := s.registry.ListByIdentity(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Require().Len(bundles, 3)
	for i, b := range bundles {
		s.Equal(i, b.IssuedAt.Minute())
	}
}

func (s *InMemoryRegistrySuite) TestNoDedup() {
	b := bundleAt("id-1", "age_over_18_and_resident_pt", 0)
	s.Require().NoError(s.registry.Record(s.ctx, b))
	s.Require().NoError(s.registry.Record(s.ctx, b))

	bundles, err := s.registry.ListByIdentity(s.ctx, "id-1")
	s.Require().NoError(err)
	s.Len(bundles, 2)
}

func (s *InMemoryRegistrySuite) TestListReturnsCopy() {
	s.Require().NoError(s.registry.Record(s.ctx, bundleAt("id-1", "age_over_18_and_resident_pt", 0)))

	bundles, err := s.registry.ListByIdentity(s.ctx, "id-1")
	s.Require().NoError(err)
	bundles[0].ProofHash = "clobbered"

	again, err := s.registry.ListByIdentity(s.ctx, "id-1")
	s.Require().NoError(err)
	s.NotEqual("clobbered", again[0].ProofHash)
}
