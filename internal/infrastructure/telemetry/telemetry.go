package telemetry

import (
	"context"
	"errors"

	"github.com/customers/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Telemetry bundles every provider a process starts
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts traces, metrics, logs and profiling according to cfg.
// Disabled parts fall back to no-op providers.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{}
	var err error

	if t.Tracer, err = NewTracerProvider(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if t.Meter, err = NewMeterProvider(ctx, cfg, logger); err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	if t.Logs, err = NewLoggerProvider(ctx, cfg, logger); err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	if t.Profiler, err = NewProfiler(cfg, logger); err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	if t.Profiler.IsRunning() {
		t.Tracer.EnableSpanProfiles()
	}
	return t, nil
}

// Shutdown stops every started provider and joins their errors
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
