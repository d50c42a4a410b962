// Package bootstrap starts the infrastructure shared by the server and the
// worker processes.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/customers/backend/internal/infrastructure/cache"
	"github.com/customers/backend/internal/infrastructure/config"
	"github.com/customers/backend/internal/infrastructure/logger"
	"github.com/customers/backend/internal/infrastructure/persistence"
	"github.com/customers/backend/internal/infrastructure/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Runtime holds the process-wide infrastructure
type Runtime struct {
	Config    *config.Config
	Logger    *zap.Logger
	Telemetry *telemetry.Telemetry
	DB        *persistence.Database
	Redis     redis.UniversalClient
}

// Start loads configuration and brings up logging, telemetry, the database
// and Redis. component is appended to the service name in logs.
func Start(ctx context.Context, component string) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return StartWithConfig(ctx, cfg, component)
}

// StartWithConfig is Start with an already loaded configuration
func StartWithConfig(ctx context.Context, cfg *config.Config, component string) (*Runtime, error) {
	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		TimeFormat:  "2006-01-02T15:04:05.000Z07:00",
		ServiceName: cfg.App.Name + "-" + component,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	rt := &Runtime{Config: cfg, Logger: log}

	rt.Telemetry, err = telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("initialize telemetry: %w", err), rt.Close(ctx))
	}
	if rt.Telemetry.Logs.IsEnabled() {
		otlpCore := rt.Telemetry.Logs.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
		rt.Logger = log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, otlpCore)
		}))
	}

	gormLog := logger.NewGormLogger(rt.Logger, logger.GormLogLevel(cfg.Database.EchoSQL))
	rt.DB, err = persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connect database: %w", err), rt.Close(ctx))
	}
	tracing := telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.DBName)
	if err := telemetry.RegisterDBTracing(rt.DB.DB, tracing, rt.Logger); err != nil {
		return nil, errors.Join(fmt.Errorf("register database tracing: %w", err), rt.Close(ctx))
	}

	client, err := cache.NewRedisClient(&cfg.Redis)
	switch {
	case err == nil:
		rt.Redis = client
	case rt.AllowInMemory():
		rt.Logger.Warn("Redis unavailable, continuing with in-memory adapters", zap.Error(err))
	default:
		return nil, errors.Join(fmt.Errorf("connect redis: %w", err), rt.Close(ctx))
	}

	rt.Logger.Info("Runtime started",
		zap.String("env", cfg.App.Env),
		zap.String("database_driver", rt.DB.Driver()),
		zap.String("broker", cfg.Messaging.Broker),
		zap.Bool("redis", rt.Redis != nil),
	)
	return rt, nil
}

// AllowInMemory reports whether process-local adapters may replace Redis.
// Only the single-process memory broker setup permits it.
func (rt *Runtime) AllowInMemory() bool {
	return rt.Config.Messaging.Broker == config.BrokerMemory
}

// CacheFactory returns the cache adapter factory for this runtime
func (rt *Runtime) CacheFactory() *cache.Factory {
	return cache.NewFactory(rt.Redis,
		cache.WithLogger(rt.Logger),
		cache.WithInMemoryFallback(rt.AllowInMemory()),
		cache.WithControlCacheConfig(rt.Config.ControlCache),
	)
}

// Close releases everything Start opened, in reverse order
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Redis != nil {
		errs = append(errs, rt.Redis.Close())
	}
	if rt.DB != nil {
		errs = append(errs, rt.DB.Close())
	}
	if rt.Telemetry != nil {
		errs = append(errs, rt.Telemetry.Shutdown(ctx))
	}
	if rt.Logger != nil {
		_ = logger.Sync(rt.Logger)
	}
	return errors.Join(errs...)
}
