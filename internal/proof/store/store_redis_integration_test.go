//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"livre/internal/proof"
	"livre/internal/proof/store"
	"livre/pkg/testutil/containers"
)

type RedisRegistrySuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	registry *store.RedisRegistry
}

func TestRedisRegistrySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s := new(RedisRegistrySuite)
	s.redis = containers.NewRedisContainer(t)
	suite.Run(t, s)
}

func (s *RedisRegistrySuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.registry = store.NewRedisRegistry(s.redis.Client)
}

func redisBundle(identityID, template string, minute int) proof.Bundle {
	return proof.Bundle{
		IdentityID: identityID,
		TemplateID: template,
		ProofHash:  "hash-" + template,
		IssuedAt:   time.Date(2026, 8, 31, 10, minute, 0, 0, time.UTC),
	}
}

func (s *RedisRegistrySuite) TestEmptyLog() {
	bundles, err := s.registry.ListByIdentity(context.Background(), "nobody")
	s.Require().NoError(err)
	s.Empty(bundles)
}

func (s *RedisRegistrySuite) TestAppendPreservesOrder() {
	ctx := context.Background()

	s.Require().NoError(s.registry.Record(ctx, redisBundle("id-1", "t-first", 0)))
	s.Require().NoError(s.registry.Record(ctx, redisBundle("id-1", "t-second", 1)))
	s.Require().NoError(s.registry.Record(ctx, redisBundle("id-2", "t-other", 2)))

	bundles, err := s.registry.ListByIdentity(ctx, "id-1")
	s.Require().NoError(err)
	s.Require().Len(bundles, 2)
	s.Equal("t-first", bundles[0].TemplateID)
	s.Equal("t-second", bundles[1].TemplateID)
	s.True(bundles[0].IssuedAt.Equal(redisBundle("id-1", "t-first", 0).IssuedAt))
}

func (s *RedisRegistrySuite) TestDuplicatesAreKept() {
	ctx := context.Background()
	bundle := redisBundle("id-1", "t-dup", 0)

	s.Require().NoError(s.registry.Record(ctx, bundle))
	s.Require().NoError(s.registry.Record(ctx, bundle))

	bundles, err := s.registry.ListByIdentity(ctx, "id-1")
	s.Require().NoError(err)
	s.Len(bundles, 2)
}
