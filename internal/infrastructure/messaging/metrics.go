package messaging

import (
	"github.com/customers/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const meterName = "github.com/customers/backend/messaging"

// Outcome values recorded on consumed messages
const (
	OutcomeAcked     = "acked"
	OutcomeNacked    = "nacked"
	OutcomeDuplicate = "duplicate"
)

type messagingMetrics struct {
	published *telemetry.Counter
	consumed  *telemetry.Counter
	duration  *telemetry.Histogram
}

// newMessagingMetrics registers instruments on the global meter provider.
// Any instrument that fails to register is left nil and skipped.
func newMessagingMetrics(logger *zap.Logger) *messagingMetrics {
	meter := otel.Meter(meterName)
	m := &messagingMetrics{}

	var err error
	if m.published, err = telemetry.NewCounter(meter,
		"messaging_published_total", "Messages published by outcome", "{message}"); err != nil {
		logger.Warn("failed to create metric", zap.Error(err))
	}
	if m.consumed, err = telemetry.NewCounter(meter,
		"messaging_consumed_total", "Messages consumed by outcome", "{message}"); err != nil {
		logger.Warn("failed to create metric", zap.Error(err))
	}
	if m.duration, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "messaging_process_duration_seconds",
		Description: "Time spent handling one delivery",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		logger.Warn("failed to create metric", zap.Error(err))
	}
	return m
}

func destination(name string) attribute.KeyValue {
	return telemetry.AttrMessagingDestination.String(name)
}

func outcome(o string) attribute.KeyValue {
	return telemetry.AttrMessagingOutcome.String(o)
}
