package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultSecurityConfig fits a JSON-only API: nothing it serves should be
// rendered, framed or sniffed by a browser. HSTS is only meaningful behind
// TLS and is therefore opt-in.
func DefaultSecurityConfig(hsts bool) http.Header {
	h := http.Header{}
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	if hsts {
		h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", int((365*24*time.Hour).Seconds())))
	}
	return h
}

// SecurityHeaders copies headers onto every response.
func SecurityHeaders(headers http.Header) gin.HandlerFunc {
	return func(c *gin.Context) {
		for k, v := range headers {
			if len(v) > 0 {
				c.Header(k, v[0])
			}
		}
		c.Next()
	}
}
