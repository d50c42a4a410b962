package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	appcustomer "github.com/customers/backend/internal/application/customer"
	"github.com/redis/go-redis/v9"
)

// DefaultControlKeyPrefix namespaces control keys in Redis
const DefaultControlKeyPrefix = "customer:control:"

// RedisControlCache opens control-key sessions backed by Redis. Writes made
// in a session are queued on a MULTI/EXEC pipeline and sent on Commit.
type RedisControlCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisControlCache creates a RedisControlCache. The caller keeps
// ownership of client.
func NewRedisControlCache(client redis.UniversalClient, keyPrefix string) *RedisControlCache {
	if keyPrefix == "" {
		keyPrefix = DefaultControlKeyPrefix
	}
	return &RedisControlCache{client: client, keyPrefix: keyPrefix}
}

// NewSession starts a session with an empty transaction pipeline
func (c *RedisControlCache) NewSession() appcustomer.ControlCache {
	return &redisControlSession{
		client:    c.client,
		pipe:      c.client.TxPipeline(),
		keyPrefix: c.keyPrefix,
	}
}

type redisControlSession struct {
	client    redis.UniversalClient
	pipe      redis.Pipeliner
	keyPrefix string
}

func (s *redisControlSession) key(k string) string {
	return s.keyPrefix + k
}

func (s *redisControlSession) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get control key: %w", err)
	}
	return val, true, nil
}

func (s *redisControlSession) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("check control key: %w", err)
	}
	return n > 0, nil
}

func (s *redisControlSession) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.pipe.Set(ctx, s.key(key), value, ttl).Err()
}

func (s *redisControlSession) Delete(ctx context.Context, key string) error {
	return s.pipe.Del(ctx, s.key(key)).Err()
}

func (s *redisControlSession) Commit(ctx context.Context) error {
	if _, err := s.pipe.Exec(ctx); err != nil {
		return fmt.Errorf("commit control keys: %w", err)
	}
	return nil
}

func (s *redisControlSession) Rollback(context.Context) error {
	s.pipe.Discard()
	return nil
}

var _ appcustomer.CacheSessionFactory = (*RedisControlCache)(nil)
