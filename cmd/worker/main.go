package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/specimen-gateway/internal/config"
	"github.com/jwalitptl/specimen-gateway/internal/handler/health"
	promHandler "github.com/jwalitptl/specimen-gateway/internal/handler/prometheus"
	"github.com/jwalitptl/specimen-gateway/internal/repository/postgres"
	"github.com/jwalitptl/specimen-gateway/internal/worker"
	"github.com/jwalitptl/specimen-gateway/pkg/logger"
	"github.com/jwalitptl/specimen-gateway/pkg/messaging/redis"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

func main() {
	// Load config
	cfg, err := config.Load(os.Getenv("SPECIMEN_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize logger
	baseLogger := logger.WithService(logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}), "specimen-worker")
	log.Logger = baseLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = baseLogger.WithContext(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry, "specimen")

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	auditRepo := postgres.NewAuditRepository(db)
	if err := auditRepo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare audit schema")
	}

	// Initialize Redis broker
	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, baseLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	// Setup health check endpoints
	srv := healthServer(cfg.Worker.HealthPort, registry, postgres.NewHealthCheck(db, 2*time.Second))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
			stop()
		}
	}()

	consumer := worker.NewAuditConsumer(broker, cfg.Audit.Channel, auditRepo, m)
	cleanup := worker.NewAuditCleanupWorker(auditRepo, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval, m)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("audit consumer stopped")
		}
		stop()
	}()

	log.Info().Str("channel", cfg.Audit.Channel).Msg("worker started")
	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health check server forced to shutdown")
	}
	wg.Wait()
	log.Info().Msg("worker exited properly")
}

func healthServer(port int, registry *prometheus.Registry, db health.Checker) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(map[string]health.Checker{"database": db}).RegisterRoutes(&engine.RouterGroup)
	promHandler.New(registry).RegisterRoutes(&engine.RouterGroup)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
