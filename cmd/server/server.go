package main

import (
	"context"
	"errors"
	"fmt"

	customerapp "github.com/customers/backend/internal/application/customer"
	"github.com/customers/backend/internal/bootstrap"
	"github.com/customers/backend/internal/domain/customer"
	"github.com/customers/backend/internal/infrastructure/auth"
	"github.com/customers/backend/internal/infrastructure/config"
	"github.com/customers/backend/internal/infrastructure/health"
	"github.com/customers/backend/internal/infrastructure/messaging"
	"github.com/customers/backend/internal/infrastructure/persistence"
	"github.com/customers/backend/internal/infrastructure/telemetry"
	"github.com/customers/backend/internal/interfaces/http/handler"
	"github.com/customers/backend/internal/interfaces/http/middleware"
	"github.com/customers/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// server is the wired API process. consumers is set only with the memory
// broker, whose queues are visible to this process alone.
type server struct {
	engine    *gin.Engine
	consumers *messaging.ConsumerManager
	closers   []func()
}

func newServer(ctx context.Context, rt *bootstrap.Runtime) (_ *server, err error) {
	cfg, log := rt.Config, rt.Logger
	s := &server{}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	sessions, err := rt.CacheFactory().ControlCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize control cache: %w", err)
	}

	broker, err := messaging.NewBroker(cfg.Messaging, rt.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("initialize broker: %w", err)
	}
	s.closers = append(s.closers, func() { _ = broker.Close() })
	if err := broker.EnsureTopology(ctx); err != nil {
		return nil, fmt.Errorf("ensure broker topology: %w", err)
	}

	repo := persistence.NewGormCustomerRepository(rt.DB.DB)
	uow := persistence.NewGormUnitOfWork(rt.DB.DB)

	publisher := messaging.NewCustomerCommandPublisher(
		messaging.NewEnvelopePublisher(broker, log, messaging.WithPublishTimeout(cfg.Messaging.PublishTimeout)),
		cfg.Messaging.CustomerCreateTopic,
	)
	initiate := customerapp.NewInitiateCustomerCreation(
		sessions,
		customer.NewRegistrationService(repo),
		publisher,
		cfg.ControlCache.TTL,
		log,
	)
	service := customerapp.NewCustomerService(repo, uow, sessions, log)

	opts := router.Options{
		HTTP:           cfg.HTTP,
		SwaggerEnabled: cfg.Swagger.Enabled,
		Logger:         log,
	}

	var metrics *telemetry.CustomerMetrics
	if rt.Telemetry != nil && rt.Telemetry.Meter.IsEnabled() {
		meter := rt.Telemetry.Meter.Meter("customers.api")
		opts.Meter = meter
		if metrics, err = telemetry.NewCustomerMetrics(meter, repo, log); err != nil {
			return nil, fmt.Errorf("register customer metrics: %w", err)
		}
		s.closers = append(s.closers, func() { _ = metrics.Close() })
	}
	if rt.Telemetry != nil && rt.Telemetry.Tracer.IsEnabled() {
		opts.TracingServiceName = cfg.Telemetry.ServiceName
	}

	if cfg.JWT.Enabled {
		verifier, err := auth.NewTokenVerifier(cfg.JWT)
		if err != nil {
			return nil, fmt.Errorf("initialize token verifier: %w", err)
		}
		authCfg := &middleware.BearerAuthConfig{Verifier: verifier}
		if rt.Redis != nil {
			authCfg.Revocations = auth.NewRedisRevocationList(rt.Redis, "")
		}
		opts.Auth = authCfg
		log.Info("Bearer authentication enabled")
	}

	if cfg.Messaging.Broker == config.BrokerMemory {
		manager, closeStore, err := rt.CustomerConsumers(ctx, broker, metrics)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, closeStore)
		s.consumers = manager
		log.Info("Memory broker: create-customer consumer runs in the API process")
	}

	s.engine, err = router.NewEngine(opts, router.Handlers{
		Customer: handler.NewCustomerHandler(initiate, service, metrics),
		Health:   handler.NewHealthHandler(health.NewChecker(health.DefaultTimeout, log, readinessChecks(rt, broker)...)),
	})
	if err != nil {
		return nil, fmt.Errorf("build HTTP engine: %w", err)
	}
	return s, nil
}

// readinessChecks always reports the same keys. Redis is "disabled" when
// the process runs on in-memory adapters.
func readinessChecks(rt *bootstrap.Runtime, broker messaging.Broker) []health.Check {
	checks := []health.Check{health.DatabaseCheck("postgres", rt.DB)}
	if rt.Redis != nil {
		checks = append(checks, health.RedisCheck(rt.Redis))
	} else {
		checks = append(checks, health.DisabledCheck("redis"))
	}
	return append(checks, health.BrokerCheck(broker, rt.Config.Messaging.CustomerCreateTopic))
}

// runConsumers blocks until ctx is done. It returns at once when no
// in-process consumers are configured.
func (s *server) runConsumers(ctx context.Context) error {
	if s.consumers == nil {
		return nil
	}
	if err := s.consumers.StartAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
