package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/specimen-gateway/internal/middleware"
	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/pkg/httputil"
)

// Service is satisfied by *auth.Service.
type Service interface {
	Login(ctx context.Context, creds model.Credentials) (*model.Session, error)
	Logout(ctx context.Context, sess *model.Session)
}

type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

type Handler struct {
	svc    Service
	cookie CookieConfig
}

func NewHandler(svc Service, cookie CookieConfig) *Handler {
	return &Handler{svc: svc, cookie: cookie}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}
}

type loginResponse struct {
	Token string `json:"token"`
	*model.Session
}

// Login relays the credentials to the backend and stores the returned
// token in an HttpOnly cookie. The token is also returned for clients
// that prefer the Authorization header.
func (h *Handler) Login(c *gin.Context) {
	var creds model.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		_ = c.Error(middleware.BindingError(err))
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), creds)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setCookie(c, sess.Token, int(h.cookie.MaxAge.Seconds()))
	httputil.RespondWithSuccess(c, loginResponse{Token: sess.Token, Session: sess})
}

// Logout always clears the cookie, even when the session has already
// expired.
func (h *Handler) Logout(c *gin.Context) {
	if sess := middleware.SessionFrom(c); sess != nil {
		h.svc.Logout(c.Request.Context(), sess)
	}
	h.setCookie(c, "", -1)
	httputil.RespondWithSuccess(c, "logged out successfully")
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
