package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// maxLoggedBody caps how much of a request body is echoed at debug level.
const maxLoggedBody = 2048

// Logging emits one structured line per request. Request bodies are only
// logged at debug level.
func Logging(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var body []byte
		if log.Enabled(c.Request.Context(), slog.LevelDebug) && c.Request.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxLoggedBody))
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
		}

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", GetRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if p, ok := GetPlayer(c); ok {
			attrs = append(attrs, "player_id", p.ID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("request", attrs...)
		case status >= 400:
			log.Warn("request", attrs...)
		default:
			log.Info("request", attrs...)
		}
		if len(body) > 0 {
			log.Debug("request body", "request_id", GetRequestID(c), "body", string(body))
		}
	}
}
