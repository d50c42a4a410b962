package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRevocationPrefix namespaces revoked token IDs in Redis
const DefaultRevocationPrefix = "customer:revoked:"

// RevocationList reports tokens revoked before they expire
type RevocationList interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevocationList keeps revoked jti values as keys that expire with the token
type RedisRevocationList struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRevocationList uses DefaultRevocationPrefix when prefix is empty
func NewRedisRevocationList(client redis.UniversalClient, prefix string) *RedisRevocationList {
	if prefix == "" {
		prefix = DefaultRevocationPrefix
	}
	return &RedisRevocationList{client: client, prefix: prefix}
}

// Revoke rejects jti until ttl elapses
func (l *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.prefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked
func (l *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

var _ RevocationList = (*RedisRevocationList)(nil)
