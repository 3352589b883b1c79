package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/config"
	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository/backend"
	auditService "github.com/jwalitptl/specimen-gateway/internal/service/audit"
	authService "github.com/jwalitptl/specimen-gateway/internal/service/auth"
	occurrenceService "github.com/jwalitptl/specimen-gateway/internal/service/occurrence"
	"github.com/jwalitptl/specimen-gateway/internal/service/presentation"
	"github.com/jwalitptl/specimen-gateway/internal/service/query"
	referenceService "github.com/jwalitptl/specimen-gateway/internal/service/reference"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
	"github.com/jwalitptl/specimen-gateway/pkg/logger"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

// app holds the services the commands share. The CLI talks to the
// backend directly with the same services the gateway uses.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	sessions   *sessionStore
	auth       *authService.Service
	occurrence *occurrenceService.Service
	reference  *referenceService.Service
	renderer   *presentation.Renderer
}

func newApp(configPath, sessionPath string, verbose bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	l := logger.WithService(logger.New(logger.Config{Level: level, Output: os.Stderr}), "specimenctl")

	m := metrics.New(prometheus.NewRegistry(), "specimenctl")
	client, err := backend.NewClient(cfg.Backend, m)
	if err != nil {
		return nil, err
	}

	if sessionPath == "" {
		sessionPath, err = defaultSessionPath()
		if err != nil {
			return nil, err
		}
	}

	auditSvc := auditService.NewService(nil, cfg.Audit.Channel)
	renderer, err := presentation.NewRenderer(cfg.Presentation.TimeLayout, cfg.Presentation.TimeZone)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   l,
		sessions: &sessionStore{path: sessionPath},
		auth:     authService.NewService(client, auditSvc, cfg.Session.CookieMaxAge),
		occurrence: occurrenceService.NewService(client, query.NewBuilder(query.Config{
			DefaultPerPage:  cfg.Search.DefaultPerPage,
			MaxPerPage:      cfg.Search.MaxPerPage,
			AllowedCriteria: cfg.Search.AllowedCriteria,
		}), auditSvc, m),
		reference: referenceService.NewService(client, referenceService.Config{
			CacheTTL:        cfg.Reference.CacheTTL,
			CleanupInterval: cfg.Reference.CleanupInterval,
		}, m),
		renderer: renderer,
	}, nil
}

func (a *app) context(ctx context.Context) context.Context {
	return a.logger.WithContext(ctx)
}

// session loads the stored token and checks it is still usable.
func (a *app) session() (*model.Session, error) {
	token, err := a.sessions.Load()
	if err != nil {
		return nil, loginHint(err)
	}
	sess, err := a.auth.Session(token)
	if err != nil {
		return nil, loginHint(err)
	}
	return sess, nil
}

func loginHint(err error) error {
	var unauth *apperrors.UnauthenticatedError
	if errors.As(err, &unauth) {
		return fmt.Errorf("%w; run specimenctl login", err)
	}
	return err
}

func defaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(dir, "specimenctl", "session"), nil
}
