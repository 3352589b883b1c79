package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type CacheConfig struct {
	// MaxAge is ignored when NoStore is set.
	MaxAge         time.Duration
	Private        bool
	NoStore        bool
	MustRevalidate bool
	Vary           []string
}

// DefaultCacheConfig suits per-user reference data.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxAge:         5 * time.Minute,
		Private:        true,
		MustRevalidate: true,
		Vary:           []string{"Accept", "Authorization", "Cookie"},
	}
}

// NoStoreConfig keeps search and detail answers out of every cache.
func NoStoreConfig() CacheConfig {
	return CacheConfig{Private: true, NoStore: true}
}

func (c CacheConfig) header() string {
	directives := []string{"public"}
	if c.Private {
		directives[0] = "private"
	}
	switch {
	case c.NoStore:
		directives = append(directives, "no-store")
	case c.MaxAge > 0:
		directives = append(directives, "max-age="+strconv.Itoa(int(c.MaxAge.Seconds())))
	}
	if c.MustRevalidate && !c.NoStore {
		directives = append(directives, "must-revalidate")
	}
	return strings.Join(directives, ", ")
}

// Cache sets Cache-Control on GET answers. Writes are never cacheable.
func Cache(config CacheConfig) gin.HandlerFunc {
	cacheControl := config.header()
	vary := strings.Join(config.Vary, ", ")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Header("Cache-Control", "no-store")
			c.Next()
			return
		}

		c.Header("Cache-Control", cacheControl)
		if vary != "" {
			c.Header("Vary", vary)
		}
		c.Next()
	}
}
