package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/customers/backend/internal/infrastructure/config"
	"github.com/customers/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	cfg := config.TelemetryConfig{Enabled: false, ServiceName: "customers-test"}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, logger)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	tp.EnableSpanProfiles()
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := telemetry.NewMeterProvider(ctx, cfg, logger)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := telemetry.NewLoggerProvider(ctx, cfg, logger)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))

	p, err := telemetry.NewProfiler(cfg, logger)
	require.NoError(t, err)
	assert.False(t, p.IsRunning())
	assert.NoError(t, p.Stop())
}

func TestNewLoggerProvider_LogsNeedTelemetry(t *testing.T) {
	cfg := config.TelemetryConfig{Enabled: false, LogsEnabled: true}

	lp, err := telemetry.NewLoggerProvider(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
}

func TestNewProfiler_RequiresAddress(t *testing.T) {
	cfg := config.TelemetryConfig{ProfilingEnabled: true, ServiceName: "customers-test"}

	_, err := telemetry.NewProfiler(cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address is required")
}

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	tel, err := telemetry.Setup(ctx, config.TelemetryConfig{ServiceName: "customers-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tel.Tracer.IsEnabled())
	assert.False(t, tel.Meter.IsEnabled())
	assert.False(t, tel.Logs.IsEnabled())
	assert.False(t, tel.Profiler.IsRunning())
	assert.NoError(t, tel.Shutdown(ctx))
}

func TestCounter(t *testing.T) {
	reader, provider := newManualMeter(t)
	ctx := context.Background()

	c, err := telemetry.NewCounter(provider.Meter("test"), "widgets_total", "Widgets", "{widget}")
	require.NoError(t, err)

	c.Inc(ctx, telemetry.AttrHTTPMethod.String("GET"))
	c.Add(ctx, 4, telemetry.AttrHTTPMethod.String("GET"))
	c.Inc(ctx, telemetry.AttrHTTPMethod.String("POST"))

	m, ok := collect(t, reader, "widgets_total")
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.True(t, sum.IsMonotonic)

	byMethod := map[string]int64{}
	for _, dp := range sum.DataPoints {
		method, _ := dp.Attributes.Value(telemetry.AttrHTTPMethod)
		byMethod[method.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"GET": 5, "POST": 1}, byMethod)
}

func TestHistogram_RecordDuration(t *testing.T) {
	reader, provider := newManualMeter(t)
	ctx := context.Background()

	h, err := telemetry.NewHistogram(provider.Meter("test"), telemetry.HistogramOpts{
		Name:       "op_duration_seconds",
		Unit:       "s",
		Boundaries: telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)

	h.RecordDuration(ctx, 250*time.Millisecond)
	h.Record(ctx, 0.75)

	m, ok := collect(t, reader, "op_duration_seconds")
	require.True(t, ok)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)

	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(2), dp.Count)
	assert.InDelta(t, 1.0, dp.Sum, 1e-9)
	assert.Equal(t, telemetry.HTTPDurationBuckets, dp.Bounds)
}
