package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type CORSConfig struct {
	AllowOrigins  []string
	AllowMethods  []string
	AllowHeaders  []string
	ExposeHeaders []string
	// AllowCredentials lets the session cookie travel with cross-origin
	// requests from the listed origins. A "*" entry never gets credentials.
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows no cross-origin callers until origins are
// listed explicitly.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", HeaderXRequestID},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Location", HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
}

// corsPolicy is a CORSConfig resolved once at startup.
type corsPolicy struct {
	origins  map[string]struct{}
	wildcard bool
	creds    bool
	headers  map[string]string
}

func newCORSPolicy(config CORSConfig) *corsPolicy {
	p := &corsPolicy{
		origins: make(map[string]struct{}, len(config.AllowOrigins)),
		creds:   config.AllowCredentials,
		headers: map[string]string{
			"Access-Control-Allow-Methods":  strings.Join(config.AllowMethods, ", "),
			"Access-Control-Allow-Headers":  strings.Join(config.AllowHeaders, ", "),
			"Access-Control-Expose-Headers": strings.Join(config.ExposeHeaders, ", "),
			"Access-Control-Max-Age":        strconv.Itoa(int(config.MaxAge.Seconds())),
		},
	}
	for _, o := range config.AllowOrigins {
		if o == "*" {
			p.wildcard = true
			continue
		}
		p.origins[o] = struct{}{}
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or ""
// when the origin is not allowed. Only listed origins are echoed back; a
// wildcard match answers "*", which browsers never pair with credentials.
func (p *corsPolicy) allow(origin string) string {
	if origin == "" {
		return ""
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	if p.wildcard {
		return "*"
	}
	return ""
}

// CORS answers preflight requests and decorates responses for allowed
// origins. Requests from other origins get no CORS headers.
func CORS(config CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(config)

	return func(c *gin.Context) {
		if allowed := policy.allow(c.GetHeader("Origin")); allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			for k, v := range policy.headers {
				c.Header(k, v)
			}
			if allowed != "*" {
				c.Header("Vary", "Origin")
				if policy.creds {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
