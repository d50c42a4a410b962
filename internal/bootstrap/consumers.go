package bootstrap

import (
	"context"
	"fmt"

	customerapp "github.com/customers/backend/internal/application/customer"
	"github.com/customers/backend/internal/domain/shared"
	"github.com/customers/backend/internal/infrastructure/messaging"
	"github.com/customers/backend/internal/infrastructure/persistence"
	"github.com/customers/backend/internal/infrastructure/telemetry"
	"github.com/customers/backend/internal/interfaces/consumer"
)

// CustomerConsumers builds the manager that stores create-customer commands
// read from broker. The returned func closes the idempotency store.
func (rt *Runtime) CustomerConsumers(ctx context.Context, broker messaging.Broker, metrics *telemetry.CustomerMetrics) (*messaging.ConsumerManager, func(), error) {
	cfg := rt.Config

	var store shared.IdempotencyStore
	closeStore := func() {}
	if cfg.Idempotency.Enabled {
		var err error
		if store, err = rt.CacheFactory().IdempotencyStore(ctx); err != nil {
			return nil, nil, fmt.Errorf("initialize idempotency store: %w", err)
		}
		closeStore = func() { _ = store.Close() }
	}

	create := customerapp.NewCreateCustomerUseCase(persistence.NewGormUnitOfWork(rt.DB.DB), rt.Logger)

	manager := messaging.NewConsumerManager(rt.Logger)
	manager.Register(messaging.NewConsumer(
		messaging.ConsumerConfig{
			Name:              "create-customer",
			Subscription:      cfg.Messaging.CustomerCreateSubscription,
			ProcessingTimeout: cfg.Messaging.ProcessingTimeout,
			IdempotencyTTL:    cfg.Idempotency.TTL,
		},
		broker,
		consumer.NewCreateCustomerHandler(create, metrics),
		store,
		rt.Logger,
	))
	return manager, closeStore, nil
}
