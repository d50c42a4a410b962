package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Registration outcomes recorded by RecordRegistration
const (
	RegistrationAccepted = "accepted"
	RegistrationConflict = "conflict"
	RegistrationInvalid  = "invalid"
	RegistrationFailed   = "failed"
)

// CustomerCounter reports how many customers are stored
type CustomerCounter interface {
	Count(ctx context.Context) (int64, error)
}

// CustomerMetrics holds the service-level customer instruments
type CustomerMetrics struct {
	registrations *Counter
	created       *Counter
	registration  metric.Registration
	logger        *zap.Logger
}

// NewCustomerMetrics registers the customer instruments on meter. When
// counter is non-nil a customers_stored gauge is observed on every
// collection.
func NewCustomerMetrics(meter metric.Meter, counter CustomerCounter, logger *zap.Logger) (*CustomerMetrics, error) {
	m := &CustomerMetrics{logger: logger}

	var err error
	if m.registrations, err = NewCounter(meter, "customers_registration_requests_total",
		"Customer creation requests by outcome", "{request}"); err != nil {
		return nil, err
	}
	if m.created, err = NewCounter(meter, "customers_created_total",
		"Customers persisted by the worker", "{customer}"); err != nil {
		return nil, err
	}

	if counter == nil {
		return m, nil
	}

	stored, err := meter.Int64ObservableGauge("customers_stored",
		metric.WithDescription("Customers currently stored"),
		metric.WithUnit("{customer}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge customers_stored: %w", err)
	}
	m.registration, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		n, err := counter.Count(ctx)
		if err != nil {
			logger.Warn("failed to count customers for metrics", zap.Error(err))
			return nil
		}
		o.ObserveInt64(stored, n)
		return nil
	}, stored)
	if err != nil {
		return nil, fmt.Errorf("failed to register customers_stored callback: %w", err)
	}
	return m, nil
}

// RecordRegistration counts one creation request with its outcome
func (m *CustomerMetrics) RecordRegistration(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.registrations.Inc(ctx, AttrRegistrationOutcome.String(outcome))
}

// RecordCreated counts one customer persisted by the worker
func (m *CustomerMetrics) RecordCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.created.Inc(ctx)
}

// Close stops observing the stored-customers gauge
func (m *CustomerMetrics) Close() error {
	if m == nil || m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}
