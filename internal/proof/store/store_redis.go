package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"livre/internal/proof"
)

const redisKeyPrefix = "livre:proofs:"

// RedisRegistry keeps each identity's proof log in a redis list. RPUSH plus
// LRANGE preserves insertion order, matching the append-only contract.
type RedisRegistry struct {
	client *redis.Client
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func redisKey(identityID string) string {
	return redisKeyPrefix + identityID
}

func (r *RedisRegistry) Record(ctx context.Context, bundle proof.Bundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal proof bundle: %w", err)
	}
	if err := r.client.RPush(ctx, redisKey(bundle.IdentityID), payload).Err(); err != nil {
		return fmt.Errorf("append proof: %w", err)
	}
	return nil
}

func (r *RedisRegistry) ListByIdentity(ctx context.Context, identityID string) ([]proof.Bundle, error) {
	raw, err := r.client.LRange(ctx, redisKey(identityID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}
	bundles := make([]proof.Bundle, 0, len(raw))
	for _, item := range raw {
		var b proof.Bundle
		if err := json.Unmarshal([]byte(item), &b); err != nil {
			return nil, fmt.Errorf("decode proof record: %w", err)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}
