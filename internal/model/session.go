package model

import (
	"time"

	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
)

// Credentials are relayed to the backend login endpoint.
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Session is the authenticated context of one user. It is created at
// login, passed explicitly to every backend call and discarded at logout.
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id,omitempty"`
	UserName  string    `json:"user_name,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session carries a known expiry that has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// BearerToken returns the token to send to the backend.
func (s *Session) BearerToken(now time.Time) (string, error) {
	if s == nil || s.Token == "" {
		return "", &apperrors.UnauthenticatedError{Reason: "no session"}
	}
	if s.Expired(now) {
		return "", &apperrors.UnauthenticatedError{Reason: "session expired"}
	}
	return s.Token, nil
}
