package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDHeader is the gin context key and response header for the
// per-request correlation id.
const requestIDHeader = "X-Request-Id"

// RequestID assigns a UUID to every request and echoes it in the
// response so log lines can be correlated with client reports.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDHeader, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// Logging logs every request with its route, status, identity and
// duration.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start).Milliseconds()
		status := c.Writer.Status()
		identity := GetIdentity(c)

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"user_id", identity.UserID,
			"duration_ms", duration,
			"request_id", c.GetString(requestIDHeader),
		}
		switch {
		case status >= 500:
			slog.Error("request failed", attrs...)
		case status >= 400:
			slog.Warn("request rejected", attrs...)
		default:
			slog.Info("request ok", attrs...)
		}
	}
}
