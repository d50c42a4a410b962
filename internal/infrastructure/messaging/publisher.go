package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/customers/backend/internal/domain/shared"
	"github.com/customers/backend/internal/infrastructure/logger"
	"github.com/customers/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Attribute names sent alongside every message
const (
	AttrCorrelationID = "correlation_id"
	AttrType          = "ce-type"
	AttrSource        = "ce-source"
	AttrID            = "ce-id"
)

// DefaultPublishTimeout bounds a single publish
const DefaultPublishTimeout = 10 * time.Second

// EnvelopePublisher wraps payloads in a CloudEvents envelope and publishes
// them with a timeout
type EnvelopePublisher struct {
	broker     Broker
	timeout    time.Duration
	propagator propagation.TextMapPropagator
	metrics    *messagingMetrics
	logger     *zap.Logger
}

// PublisherOption configures an EnvelopePublisher
type PublisherOption func(*EnvelopePublisher)

// WithPublishTimeout overrides DefaultPublishTimeout
func WithPublishTimeout(d time.Duration) PublisherOption {
	return func(p *EnvelopePublisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithPropagator overrides the global text map propagator
func WithPropagator(prop propagation.TextMapPropagator) PublisherOption {
	return func(p *EnvelopePublisher) {
		p.propagator = prop
	}
}

// NewEnvelopePublisher creates a publisher on broker
func NewEnvelopePublisher(broker Broker, logger *zap.Logger, opts ...PublisherOption) *EnvelopePublisher {
	p := &EnvelopePublisher{
		broker:     broker,
		timeout:    DefaultPublishTimeout,
		propagator: otel.GetTextMapPropagator(),
		logger:     logger.Named("publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.metrics = newMessagingMetrics(p.logger)
	return p
}

// Publish sends data to topic and returns the envelope ID. The correlation
// ID comes from ctx, or a new one is generated.
func (p *EnvelopePublisher) Publish(ctx context.Context, topic, eventType, source string, data any) (string, error) {
	correlationID := logger.GetCorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	ctx, span := telemetry.StartSpan(ctx, "publish "+topic,
		telemetry.WithSpanKind(trace.SpanKindProducer),
		telemetry.WithAttribute("messaging.destination.name", topic),
		telemetry.WithAttribute("messaging.message.type", eventType),
	)
	defer span.End()

	msg := shared.NewMessage(eventType, source, correlationID, data)
	body, err := json.Marshal(msg)
	if err != nil {
		perr := &PublishFailedError{Topic: topic, Err: err}
		telemetry.RecordError(span, perr)
		return "", perr
	}

	attrs := map[string]string{
		AttrCorrelationID: correlationID,
		AttrType:          eventType,
		AttrSource:        source,
		AttrID:            msg.ID,
	}
	p.propagator.Inject(ctx, propagation.MapCarrier(attrs))

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	log := p.logger.With(
		zap.String("topic", topic),
		zap.String("message_id", msg.ID),
		zap.String("correlation_id", correlationID),
	)

	if _, err := p.broker.Publish(pubCtx, topic, body, attrs); err != nil {
		var perr error
		if errors.Is(err, context.DeadlineExceeded) && errors.Is(pubCtx.Err(), context.DeadlineExceeded) {
			perr = &PublishTimeoutError{Topic: topic, Timeout: p.timeout}
		} else {
			perr = &PublishFailedError{Topic: topic, Err: err}
		}
		telemetry.RecordError(span, perr)
		p.record(ctx, topic, "failed")
		log.Error("failed to publish message", zap.Error(perr))
		return "", perr
	}

	p.record(ctx, topic, "ok")
	log.Info("message published", zap.String("type", eventType))
	return msg.ID, nil
}

func (p *EnvelopePublisher) record(ctx context.Context, topic, result string) {
	if p.metrics.published != nil {
		p.metrics.published.Inc(ctx, destination(topic), outcome(result))
	}
}
