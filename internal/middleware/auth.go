package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/service/auth"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
	"github.com/jwalitptl/specimen-gateway/pkg/httputil"
)

// SessionResolver is satisfied by *auth.Service.
type SessionResolver interface {
	Session(token string) (*model.Session, error)
}

type AuthMiddleware struct {
	sessions   SessionResolver
	cookieName string
}

func NewAuthMiddleware(sessions SessionResolver, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:   sessions,
		cookieName: cookieName,
	}
}

// Authenticate resolves the session from a Bearer header or, failing that,
// the session cookie, and stores it under auth.SessionKey.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := m.token(c)
		if err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}

		sess, err := m.sessions.Session(token)
		if err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}

		if sess.UserID != 0 {
			logger := zerolog.Ctx(c.Request.Context()).With().Int64("user_id", sess.UserID).Logger()
			c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		}

		c.Set(auth.SessionKey, sess)
		c.Next()
	}
}

// Optional stores the session when the request carries a usable one and
// lets every request through.
func (m *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := m.token(c); err == nil {
			if sess, err := m.sessions.Session(token); err == nil {
				c.Set(auth.SessionKey, sess)
			}
		}
		c.Next()
	}
}

func (m *AuthMiddleware) token(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", &apperrors.UnauthenticatedError{Reason: "invalid authorization format"}
		}
		return strings.TrimSpace(token), nil
	}
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", &apperrors.UnauthenticatedError{Reason: "missing credentials"}
}

// SessionFrom returns the session stored by Authenticate, or nil.
func SessionFrom(c *gin.Context) *model.Session {
	if v, ok := c.Get(auth.SessionKey); ok {
		if sess, ok := v.(*model.Session); ok {
			return sess
		}
	}
	return nil
}
