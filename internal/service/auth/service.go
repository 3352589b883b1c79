package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository"
	"github.com/jwalitptl/specimen-gateway/internal/service/audit"
	"github.com/jwalitptl/specimen-gateway/pkg/auth"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
)

// SessionKey is the gin context key under which the auth middleware stores
// the request's *model.Session.
const SessionKey = "session"

type AuditLogger interface {
	Log(ctx context.Context, action string, sess *model.Session, opts *audit.LogOptions)
}

type Service struct {
	backend    repository.AuthBackend
	auditor    AuditLogger
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService returns an auth service. sessionTTL bounds sessions whose
// token carries no expiry of its own.
func NewService(backend repository.AuthBackend, auditor AuditLogger, sessionTTL time.Duration) *Service {
	return &Service{
		backend:    backend,
		auditor:    auditor,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Login exchanges credentials for a backend token and opens a session.
func (s *Service) Login(ctx context.Context, creds model.Credentials) (*model.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)

	token, err := s.backend.Login(ctx, creds)
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("email", creds.Email).Msg("login failed")
		return nil, err
	}

	sess, err := s.Session(token)
	if err != nil {
		return nil, err
	}
	if sess.ExpiresAt.IsZero() && s.sessionTTL > 0 {
		sess.ExpiresAt = s.now().Add(s.sessionTTL)
	}
	if sess.UserName == "" {
		sess.UserName = creds.Email
	}

	s.auditor.Log(ctx, model.AuditActionLogin, sess, nil)
	return sess, nil
}

// Session rebuilds a session from a token presented by a client. Opaque
// tokens are accepted as-is and left for the backend to judge.
func (s *Service) Session(token string) (*model.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &apperrors.UnauthenticatedError{Reason: "no session"}
	}

	sess := &model.Session{Token: token}
	claims, err := auth.ParseClaims(token)
	switch {
	case errors.Is(err, auth.ErrNotJWT):
		return sess, nil
	case err != nil:
		return nil, &apperrors.UnauthenticatedError{Reason: "unreadable session token"}
	}

	sess.UserID = claims.UserID
	sess.UserName = claims.UserName
	sess.ExpiresAt = claims.ExpiresAt
	if sess.Expired(s.now()) {
		return nil, &apperrors.UnauthenticatedError{Reason: "session expired"}
	}
	return sess, nil
}

// Logout discards the session. The backend keeps no server-side session,
// so this only records the event.
func (s *Service) Logout(ctx context.Context, sess *model.Session) {
	s.auditor.Log(ctx, model.AuditActionLogout, sess, nil)
}
