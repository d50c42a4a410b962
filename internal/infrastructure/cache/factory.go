package cache

import (
	"context"
	"fmt"

	appcustomer "github.com/customers/backend/internal/application/customer"
	"github.com/customers/backend/internal/domain/shared"
	"github.com/customers/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory builds the cache-backed adapters from one Redis client, falling
// back to process-local implementations when Redis is unavailable
type Factory struct {
	client                redis.UniversalClient
	controlCfg            config.ControlCacheConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether a missing or unreachable Redis
// client degrades to in-memory adapters. Default is false.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithControlCacheConfig sets the control key prefix
func WithControlCacheConfig(cfg config.ControlCacheConfig) FactoryOption {
	return func(f *Factory) {
		f.controlCfg = cfg
	}
}

// NewFactory creates a factory. client may be nil when Redis is not configured.
func NewFactory(client redis.UniversalClient, opts ...FactoryOption) *Factory {
	f := &Factory{
		client:     client,
		controlCfg: config.ControlCacheConfig{KeyPrefix: DefaultControlKeyPrefix},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ControlCache returns the session factory used by the creation pipeline
func (f *Factory) ControlCache(ctx context.Context) (appcustomer.CacheSessionFactory, error) {
	if err := f.checkRedis(ctx); err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for control cache but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory control cache. "+
			"Concurrent registrations on other instances will not see these keys.",
			zap.Error(err),
		)
		return NewInMemoryControlCache(), nil
	}

	f.logger.Info("using Redis control cache", zap.String("key_prefix", f.controlCfg.KeyPrefix))
	return NewRedisControlCache(f.client, f.controlCfg.KeyPrefix), nil
}

// IdempotencyStore returns the store used by consumers to skip redeliveries
func (f *Factory) IdempotencyStore(ctx context.Context) (shared.IdempotencyStore, error) {
	if err := f.checkRedis(ctx); err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required for idempotency but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
			"This may cause duplicate processing in distributed deployments.",
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore(), nil
	}

	f.logger.Info("using Redis idempotency store")
	return NewRedisIdempotencyStoreWithClient(f.client, ""), nil
}

func (f *Factory) checkRedis(ctx context.Context) error {
	if f.client == nil {
		return fmt.Errorf("no Redis client configured")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return f.client.Ping(ctx).Err()
}
