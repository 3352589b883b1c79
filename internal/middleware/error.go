package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/specimen-gateway/pkg/httputil"
)

// ErrorHandler renders the last error a handler pushed with c.Error,
// unless the handler already wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httputil.RespondWithError(c, c.Errors.Last().Err)
	}
}
