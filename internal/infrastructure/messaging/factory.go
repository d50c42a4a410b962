package messaging

import (
	"fmt"

	"github.com/customers/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RoutesFromConfig returns the command routes the service publishes to and
// consumes from
func RoutesFromConfig(cfg config.MessagingConfig) []Route {
	return []Route{{
		Topic:        cfg.CustomerCreateTopic,
		Subscription: cfg.CustomerCreateSubscription,
	}}
}

// NewBroker builds the broker selected by cfg.Broker. client is required for
// the redis broker and ignored by the memory broker.
func NewBroker(cfg config.MessagingConfig, client redis.UniversalClient, logger *zap.Logger) (Broker, error) {
	routes := RoutesFromConfig(cfg)
	switch cfg.Broker {
	case config.BrokerMemory:
		logger.Warn("using in-memory broker; commands do not leave this process")
		return NewMemoryBroker(routes, cfg.MaxDeliveryAttempts, logger), nil
	case config.BrokerRedis, "":
		if client == nil {
			return nil, fmt.Errorf("redis broker requires a redis client")
		}
		return NewRedisBroker(client, RedisBrokerConfig{
			Routes:              routes,
			ConsumerName:        cfg.ConsumerName,
			MaxDeliveryAttempts: cfg.MaxDeliveryAttempts,
			AckDeadline:         cfg.AckDeadline,
			BlockTimeout:        cfg.BlockTimeout,
			BatchSize:           int64(cfg.BatchSize),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported broker %q", cfg.Broker)
	}
}
