package messaging

import (
	"context"
	"time"

	"github.com/customers/backend/internal/domain/shared"
	"github.com/customers/backend/internal/infrastructure/logger"
	"github.com/customers/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultProcessingTimeout bounds one call to a MessageHandler
const DefaultProcessingTimeout = 60 * time.Second

// MessageHandler processes a decoded message. A returned error nacks it.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg InboundMessage) error
}

// MessageHandlerFunc adapts a function to MessageHandler
type MessageHandlerFunc func(ctx context.Context, msg InboundMessage) error

func (f MessageHandlerFunc) HandleMessage(ctx context.Context, msg InboundMessage) error {
	return f(ctx, msg)
}

// ConsumerConfig configures a Consumer
type ConsumerConfig struct {
	Name              string
	Subscription      string
	ProcessingTimeout time.Duration
	IdempotencyTTL    time.Duration
}

// Consumer reads one subscription and feeds a MessageHandler. Messages whose
// ce-id was already processed are acked without calling the handler.
type Consumer struct {
	cfg        ConsumerConfig
	broker     Broker
	handler    MessageHandler
	store      shared.IdempotencyStore
	propagator propagation.TextMapPropagator
	metrics    *messagingMetrics
	logger     *zap.Logger
}

// NewConsumer creates a consumer. store may be nil to disable duplicate detection.
func NewConsumer(cfg ConsumerConfig, broker Broker, handler MessageHandler, store shared.IdempotencyStore, log *zap.Logger) *Consumer {
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = DefaultProcessingTimeout
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Subscription
	}
	named := log.Named("consumer").With(
		zap.String("consumer", cfg.Name),
		zap.String("subscription", cfg.Subscription),
	)
	return &Consumer{
		cfg:        cfg,
		broker:     broker,
		handler:    handler,
		store:      store,
		propagator: otel.GetTextMapPropagator(),
		metrics:    newMessagingMetrics(named),
		logger:     named,
	}
}

// Name identifies the consumer in logs
func (c *Consumer) Name() string {
	return c.cfg.Name
}

// Start blocks consuming until ctx is done
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	return c.broker.Subscribe(ctx, c.cfg.Subscription, c.process)
}

func (c *Consumer) process(ctx context.Context, d Delivery) error {
	start := time.Now()

	msg, err := Decode(d.Body, d.Attributes)
	if err != nil {
		c.logger.Error("failed to decode message",
			zap.String("delivery_id", d.ID),
			zap.Int("attempt", d.Attempt),
			zap.Error(err),
		)
		c.record(ctx, OutcomeNacked, start)
		return err
	}
	if msg.ID == "" {
		msg.ID = d.ID
	}
	msg.Attempt = d.Attempt

	ctx = c.propagator.Extract(ctx, propagation.MapCarrier(d.Attributes))
	ctx, span := telemetry.StartSpan(ctx, "process "+d.Topic,
		telemetry.WithSpanKind(trace.SpanKindConsumer),
		telemetry.WithAttribute("messaging.destination.name", d.Topic),
		telemetry.WithAttribute("messaging.message.id", msg.ID),
	)
	defer span.End()

	ctx, log := logger.WithCorrelationID(ctx, c.logger, msg.CorrelationID)
	log = log.With(zap.String("message_id", msg.ID), zap.Int("attempt", d.Attempt))
	ctx = logger.WithContext(ctx, log)

	if c.store != nil {
		done, err := c.store.IsProcessed(ctx, msg.ID)
		if err != nil {
			log.Warn("failed to check idempotency, processing anyway", zap.Error(err))
		} else if done {
			log.Info("duplicate message, skipping")
			c.record(ctx, OutcomeDuplicate, start)
			return nil
		}
	}

	hctx, cancel := context.WithTimeout(ctx, c.cfg.ProcessingTimeout)
	defer cancel()

	if err := c.handler.HandleMessage(hctx, msg); err != nil {
		telemetry.RecordError(span, err)
		log.Error("failed to process message", zap.String("type", msg.Type), zap.Error(err))
		c.record(ctx, OutcomeNacked, start)
		return err
	}

	if c.store != nil {
		if _, err := c.store.MarkProcessed(ctx, msg.ID, c.cfg.IdempotencyTTL); err != nil {
			log.Warn("failed to mark message as processed", zap.Error(err))
		}
	}

	log.Info("message processed", zap.Duration("duration", time.Since(start)))
	c.record(ctx, OutcomeAcked, start)
	return nil
}

func (c *Consumer) record(ctx context.Context, result string, start time.Time) {
	attrs := []attribute.KeyValue{destination(c.cfg.Subscription), outcome(result)}
	if c.metrics.consumed != nil {
		c.metrics.consumed.Inc(ctx, attrs...)
	}
	if c.metrics.duration != nil {
		c.metrics.duration.RecordDuration(ctx, time.Since(start), attrs...)
	}
}
