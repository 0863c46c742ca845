package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/marketpulse/internal/domain/dto"
	"github.com/guttosm/marketpulse/internal/logger"
)

// ErrorHandler renders errors attached with c.Error() as a 500 ErrorResponse
// when the handler did not write a response itself.
var ErrorHandler gin.HandlerFunc = func(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	last := c.Errors.Last()
	rid, _ := c.Get(RequestIDKey)
	logger.Named("http").Error().Str("request_id", toString(rid)).Err(last.Err).Msg("unhandled request error")
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", last.Err))
}

// AbortWithError aborts the chain with status and a dto.ErrorResponse body.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
