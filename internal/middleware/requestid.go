package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/pkg/httputil"
)

const (
	HeaderXRequestID = httputil.HeaderRequestID
	ContextRequestID = "request_id"
)

// RequestID adds a unique request ID to each request and attaches a
// request-scoped logger to the request context.
func RequestID(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if request ID exists in header
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" || len(rid) > 128 {
			rid = uuid.New().String()
		}

		logger := base.With().Str("request_id", rid).Logger()
		ctx := httputil.WithRequestID(c.Request.Context(), rid)
		c.Request = c.Request.WithContext(logger.WithContext(ctx))

		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}
