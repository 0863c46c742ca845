package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/guttosm/marketpulse/internal/logger"
)

// RequestLogger is a Gin middleware that logs method, path, status code,
// request latency, client IP and request ID (if available).
//
// 5xx responses are logged at error level and 4xx at warn; everything else at info.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RequestID(), middleware.RequestLogger())
//
// Example log output:
//
//	{"level":"info","component":"http","request_id":"123e4567-e89b-12d3-a456-426614174000","method":"GET","path":"/api/v1/market-pulse","status":200,"latency_ms":15}
func RequestLogger() gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		rid, _ := c.Get(RequestIDKey)

		event := levelFor(log, status)
		if user, ok := c.Get(UsernameKey); ok {
			event = event.Str("user", toString(user))
		}
		event.
			Str("request_id", toString(rid)).
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func levelFor(log zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return log.Error()
	case status >= http.StatusBadRequest:
		return log.Warn()
	default:
		return log.Info()
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
