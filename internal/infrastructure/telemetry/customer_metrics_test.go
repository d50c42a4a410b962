package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/customers/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type stubCounter struct {
	n   int64
	err error
}

func (s *stubCounter) Count(context.Context) (int64, error) {
	return s.n, s.err
}

func TestCustomerMetrics_Registration(t *testing.T) {
	reader, provider := newManualMeter(t)
	ctx := context.Background()

	m, err := telemetry.NewCustomerMetrics(provider.Meter("customers"), nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	m.RecordRegistration(ctx, telemetry.RegistrationAccepted)
	m.RecordRegistration(ctx, telemetry.RegistrationAccepted)
	m.RecordRegistration(ctx, telemetry.RegistrationConflict)
	m.RecordCreated(ctx)

	data, ok := collect(t, reader, "customers_registration_requests_total")
	require.True(t, ok)
	sum := data.Data.(metricdata.Sum[int64])
	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(telemetry.AttrRegistrationOutcome)
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"accepted": 2, "conflict": 1}, byOutcome)

	created, ok := collect(t, reader, "customers_created_total")
	require.True(t, ok)
	assert.Equal(t, int64(1), created.Data.(metricdata.Sum[int64]).DataPoints[0].Value)

	_, ok = collect(t, reader, "customers_stored")
	assert.False(t, ok)
	assert.NoError(t, m.Close())
}

func TestCustomerMetrics_StoredGauge(t *testing.T) {
	reader, provider := newManualMeter(t)
	counter := &stubCounter{n: 42}

	m, err := telemetry.NewCustomerMetrics(provider.Meter("customers"), counter, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer m.Close()

	data, ok := collect(t, reader, "customers_stored")
	require.True(t, ok)
	gauge, ok := data.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(42), gauge.DataPoints[0].Value)
}

func TestCustomerMetrics_StoredGaugeCountError(t *testing.T) {
	reader, provider := newManualMeter(t)
	core, logs := observer.New(zap.WarnLevel)

	m, err := telemetry.NewCustomerMetrics(provider.Meter("customers"),
		&stubCounter{err: errors.New("db down")}, zap.New(core))
	require.NoError(t, err)
	defer m.Close()

	_, ok := collect(t, reader, "customers_stored")
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("failed to count customers for metrics").Len())
}

func TestCustomerMetrics_NilSafe(t *testing.T) {
	var m *telemetry.CustomerMetrics
	m.RecordRegistration(context.Background(), telemetry.RegistrationFailed)
	m.RecordCreated(context.Background())
	assert.NoError(t, m.Close())
}
