package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resumeai-backend/internal/shared/server/respond"
	"resumeai-backend/internal/shared/telemetry"
)

// Recovery recovers from panics and returns a standardized error response.
// When the response is already streaming, the connection is aborted without a body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			reqID := RequestIDFromContext(c)
			telemetry.Error("panic", map[string]any{
				"request_id": reqID,
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"resume_id":  c.Param("id"),
				"written":    c.Writer.Written(),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", gin.H{"requestId": reqID})
		}()
		c.Next()
	}
}
