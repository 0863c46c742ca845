package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/marketpulse/internal/logger"
)

// RecoveryMiddleware recovers from panics in later handlers, logs the panic
// value with its stack and request id, and answers 500 with an ErrorResponse.
//
// Example:
//
//	router := gin.New()
//	router.Use(middleware.RecoveryMiddleware())
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Ctx(c.Request.Context()).Error().
				Str("component", "http").
				Str("panic", fmt.Sprintf("%v", r)).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			AbortWithError(c, http.StatusInternalServerError, "Internal server error", fmt.Errorf("%v", r))
		}()

		c.Next()
	}
}
