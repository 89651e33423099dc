//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"livre/internal/proof"
	"livre/internal/proof/store"
	"livre/pkg/testutil/containers"
)

type PostgresRegistrySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	registry *store.PostgresRegistry
}

func TestPostgresRegistrySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s := new(PostgresRegistrySuite)
	s.postgres = containers.NewPostgresContainer(t)
	suite.Run(t, s)
}

func (s *PostgresRegistrySuite) SetupSuite() {
	s.registry = store.NewPostgresRegistry(s.postgres.DB)
	s.Require().NoError(s.registry.EnsureSchema(context.Background()))
}

func (s *PostgresRegistrySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "proofs"))
}

func pgBundle(identityID, template string, minute int) proof.Bundle {
	return proof.Bundle{
		IdentityID: identityID,
		TemplateID: template,
		ProofHash:  "hash-" + template,
		IssuedAt:   time.Date(2026, 8, 31, 10, minute, 0, 0, time.UTC),
	}
}

func (s *PostgresRegistrySuite) TestEnsureSchemaIsIdempotent() {
	s.NoError(s.registry.EnsureSchema(context.Background()))
}

func (s *PostgresRegistrySuite) TestEmptyLog() {
	bundles, err := s.registry.ListByIdentity(context.Background(), "nobody")
	s.Require().NoError(err)
	s.NotNil(bundles)
	s.Empty(bundles)
}

func (s *PostgresRegistrySuite) TestAppendPreservesOrder() {
	ctx := context.Background()

	s.Require().NoError(s.registry.Record(ctx, pgBundle("id-1", "t-first", 0)))
	s.Require().NoError(s.registry.Record(ctx, pgBundle("id-1", "t-second", 1)))
	s.Require().NoError(s.registry.Record(ctx, pgBundle("id-2", "t-other", 2)))

	bundles, err := s.registry.ListByIdentity(ctx, "id-1")
	s.Require().NoError(err)
	s.Require().Len(bundles, 2)
	s.Equal("t-first", bundles[0].TemplateID)
	s.Equal("t-second", bundles[1].TemplateID)
	s.True(bundles[0].IssuedAt.Equal(pgBundle("id-1", "t-first", 0).IssuedAt))
}

func (s *PostgresRegistrySuite) TestConcurrentAppends() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_ = s.registry.Record(ctx, pgBundle("id-concurrent", "t", idx%60))
		}(i)
	}
	wg.Wait()

	bundles, err := s.registry.ListByIdentity(ctx, "id-concurrent")
	s.Require().NoError(err)
	s.Len(bundles, goroutines)
}
