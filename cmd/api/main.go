package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/specimen-gateway/internal/config"
	"github.com/jwalitptl/specimen-gateway/internal/handler"
	authHandler "github.com/jwalitptl/specimen-gateway/internal/handler/auth"
	draftHandler "github.com/jwalitptl/specimen-gateway/internal/handler/draft"
	"github.com/jwalitptl/specimen-gateway/internal/handler/health"
	occurrenceHandler "github.com/jwalitptl/specimen-gateway/internal/handler/occurrence"
	promHandler "github.com/jwalitptl/specimen-gateway/internal/handler/prometheus"
	referenceHandler "github.com/jwalitptl/specimen-gateway/internal/handler/reference"
	"github.com/jwalitptl/specimen-gateway/internal/middleware"
	"github.com/jwalitptl/specimen-gateway/internal/repository/backend"
	"github.com/jwalitptl/specimen-gateway/internal/router"
	auditService "github.com/jwalitptl/specimen-gateway/internal/service/audit"
	authService "github.com/jwalitptl/specimen-gateway/internal/service/auth"
	occurrenceService "github.com/jwalitptl/specimen-gateway/internal/service/occurrence"
	"github.com/jwalitptl/specimen-gateway/internal/service/presentation"
	"github.com/jwalitptl/specimen-gateway/internal/service/query"
	referenceService "github.com/jwalitptl/specimen-gateway/internal/service/reference"
	"github.com/jwalitptl/specimen-gateway/pkg/logger"
	"github.com/jwalitptl/specimen-gateway/pkg/messaging/redis"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("SPECIMEN_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	baseLogger := logger.WithService(logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}), "specimen-api")
	log.Logger = baseLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = baseLogger.WithContext(ctx)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry, "specimen")

	// Backend client
	client, err := backend.NewClient(cfg.Backend, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create backend client")
	}

	// Audit events go to Redis when configured and are only logged otherwise
	var publisher auditService.Publisher
	if cfg.Redis.URL != "" {
		broker, err := redis.NewRedisBroker(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, baseLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
		publisher = broker
	} else {
		log.Warn().Msg("redis.url not set, audit events are logged only")
	}

	// Initialize services
	auditSvc := auditService.NewService(publisher, cfg.Audit.Channel)
	authSvc := authService.NewService(client, auditSvc, cfg.Session.CookieMaxAge)
	builder := query.NewBuilder(query.Config{
		DefaultPerPage:  cfg.Search.DefaultPerPage,
		MaxPerPage:      cfg.Search.MaxPerPage,
		AllowedCriteria: cfg.Search.AllowedCriteria,
	})
	occurrenceSvc := occurrenceService.NewService(client, builder, auditSvc, m)
	referenceSvc := referenceService.NewService(client, referenceService.Config{
		CacheTTL:        cfg.Reference.CacheTTL,
		CleanupInterval: cfg.Reference.CleanupInterval,
	}, m)
	renderer, err := presentation.NewRenderer(cfg.Presentation.TimeLayout, cfg.Presentation.TimeZone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create renderer")
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authSvc, cfg.Session.CookieName)

	// Initialize handlers
	handlers := router.Handlers{
		Metrics: promHandler.New(registry),
		Health:  health.NewHandler(map[string]health.Checker{"backend": client}),
		Session: authHandler.NewHandler(authSvc, authHandler.CookieConfig{
			Name:   cfg.Session.CookieName,
			MaxAge: cfg.Session.CookieMaxAge,
			Secure: cfg.Session.SecureCookie,
		}),
		Protected: []handler.RouteRegistrar{
			occurrenceHandler.NewHandler(occurrenceSvc, referenceSvc, renderer),
			referenceHandler.NewHandler(referenceSvc),
			draftHandler.NewHandler(referenceSvc),
		},
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins

	// Setup router
	r := router.NewRouter(baseLogger, m, authMiddleware, handlers, router.RouterConfig{
		Mode: cfg.Server.Mode,
		RateLimiter: middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		},
		CORS:    corsConfig,
		Timeout: middleware.TimeoutConfig{Duration: cfg.Server.RequestTimeout},
		SizeLimit: middleware.SizeLimitConfig{
			MaxBodySize:   cfg.Server.MaxBodyBytes,
			MaxUploadSize: cfg.Server.MaxUploadBytes,
			MaxHeaderSize: middleware.DefaultSizeLimitConfig().MaxHeaderSize,
		},
		HSTS: cfg.Session.SecureCookie,
	})
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Str("backend", cfg.Backend.BaseURL).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
