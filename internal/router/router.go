package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/handler"
	"github.com/jwalitptl/specimen-gateway/internal/middleware"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

// APIVersion is sent in the X-API-Version header of every /api/v1 answer.
const APIVersion = "1.0"

type RouterConfig struct {
	Mode        string
	RateLimiter middleware.RateLimiterConfig
	CORS        middleware.CORSConfig
	Timeout     middleware.TimeoutConfig
	SizeLimit   middleware.SizeLimitConfig
	HSTS        bool
}

// Handlers groups the feature handlers by the access they require.
type Handlers struct {
	Metrics handler.RouteRegistrar
	Health  handler.RouteRegistrar
	// Session is reachable with or without a valid session (login, logout).
	Session handler.RouteRegistrar
	// Protected require a valid session.
	Protected []handler.RouteRegistrar
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
}

func NewRouter(
	logger zerolog.Logger,
	m *metrics.Metrics,
	auth *middleware.AuthMiddleware,
	handlers Handlers,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	middleware.ConfigureValidator()

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}

	// Add core middlewares
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(logger),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig(config.HSTS)),
		middleware.CORS(config.CORS),
	)

	rateLimiter := middleware.NewRateLimiter(config.RateLimiter)
	engine.Use(
		rateLimiter.RateLimit(),
		middleware.Timeout(config.Timeout),
		middleware.SizeLimit(config.SizeLimit),
	)

	return r
}

func (r *Router) Setup() {
	if r.handlers.Metrics != nil {
		r.handlers.Metrics.RegisterRoutes(&r.engine.RouterGroup)
	}

	api := r.engine.Group("/api/v1")

	// Add version header
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", APIVersion)
		c.Next()
	})

	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(api)
	}

	// Public routes
	if r.handlers.Session != nil {
		r.handlers.Session.RegisterRoutes(api.Group("", r.auth.Optional()))
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range r.handlers.Protected {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
