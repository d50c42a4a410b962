package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/customers/backend/internal/bootstrap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Customers API
//	@version		1.0
//	@description	Customer registration and management service

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	ctx := context.Background()

	rt, err := bootstrap.Start(ctx, "api")
	if err != nil {
		panic("Failed to start: " + err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = rt.Close(shutdownCtx)
	}()
	cfg, log := rt.Config, rt.Logger

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := newServer(ctx, rt)
	if err != nil {
		log.Fatal("Failed to build server", zap.Error(err))
	}
	defer app.close()

	consumerCtx, stopConsumers := context.WithCancel(ctx)
	consumersDone := make(chan struct{})
	go func() {
		defer close(consumersDone)
		if err := app.runConsumers(consumerCtx); err != nil {
			log.Error("In-process consumers stopped with errors", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        app.engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	stopConsumers()
	<-consumersDone
	if err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}
