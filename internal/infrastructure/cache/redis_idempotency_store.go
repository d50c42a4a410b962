package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/customers/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultIdempotencyKeyPrefix namespaces processed message IDs in Redis
const DefaultIdempotencyKeyPrefix = "customer:processed:"

// RedisIdempotencyStore implements IdempotencyStore using Redis so that
// every worker instance sees the same processed set
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStoreWithClient creates a store on a shared client.
// Close leaves the client open.
func NewRedisIdempotencyStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultIdempotencyKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed uses SET NX so concurrent workers agree on a single winner
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+messageID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processed: %w", err)
	}
	return ok, nil
}

// IsProcessed checks if a message has already been processed
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+messageID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if message is processed: %w", err)
	}
	return n > 0, nil
}

// Close is a no-op; the client belongs to whoever created it
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
