package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/customers/backend/internal/bootstrap"
	"github.com/customers/backend/internal/infrastructure/messaging"
	"github.com/customers/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, "worker")
	if err != nil {
		panic("Failed to start: " + err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = rt.Close(shutdownCtx)
	}()
	cfg, log := rt.Config, rt.Logger

	broker, err := messaging.NewBroker(cfg.Messaging, rt.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize broker", zap.Error(err))
	}
	defer func() { _ = broker.Close() }()
	if err := broker.EnsureTopology(ctx); err != nil {
		log.Fatal("Failed to ensure broker topology", zap.Error(err))
	}

	var metrics *telemetry.CustomerMetrics
	if rt.Telemetry.Meter.IsEnabled() {
		if metrics, err = telemetry.NewCustomerMetrics(rt.Telemetry.Meter.Meter("customers.worker"), nil, log); err != nil {
			log.Fatal("Failed to register customer metrics", zap.Error(err))
		}
		defer func() { _ = metrics.Close() }()
	}

	manager, closeStore, err := rt.CustomerConsumers(ctx, broker, metrics)
	if err != nil {
		log.Fatal("Failed to build consumers", zap.Error(err))
	}
	defer closeStore()

	log.Info("Worker started", zap.String("subscription", cfg.Messaging.CustomerCreateSubscription))
	if err := manager.StartAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Worker stopped with errors", zap.Error(err))
		return
	}
	log.Info("Worker exited gracefully")
}
