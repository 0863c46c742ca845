package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/marketpulse/internal/domain/dto"
	"github.com/guttosm/marketpulse/internal/logger"
	"github.com/guttosm/marketpulse/internal/middleware"
	"github.com/guttosm/marketpulse/internal/pulse"
	"github.com/guttosm/marketpulse/internal/service"
)

// Handler provides the HTTP handlers for market-pulse and stock endpoints.
//
// Responsibilities:
//   - Validate incoming path, query and body parameters
//   - Call the service layer with the request context
//   - Translate service errors into dto.ErrorResponse with a matching status
type Handler struct {
	pulse  service.PulseService
	stocks service.StockService
}

// NewHandler constructs a new Handler instance.
func NewHandler(pulse service.PulseService, stocks service.StockService) *Handler {
	return &Handler{pulse: pulse, stocks: stocks}
}

// fail maps a service error to a status code and aborts the request.
//
//   - validation errors: 400
//   - unknown symbol or no stored data: 404
//   - market-data provider failure: 502
//   - request deadline exceeded: 504
//   - anything else: 500
func fail(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsInvalid(err):
		status = http.StatusBadRequest
	case service.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, pulse.ErrSourceUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		logger.Ctx(c.Request.Context()).Error().Str("component", "api").Str("path", c.FullPath()).Err(err).Msg(message)
	}
	middleware.AbortWithError(c, status, message, err)
}

// queryDate parses an optional YYYY-MM-DD query parameter, answering 400 on
// malformed input. ok is false when the request was aborted.
func queryDate(c *gin.Context, name string) (d *time.Time, ok bool) {
	d, err := dto.ParseOptionalDate(c.Query(name))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid "+name+" format, expected YYYY-MM-DD", err)
		return nil, false
	}
	return d, true
}

// partialStatus is 207 when some symbols failed and 200 otherwise.
func partialStatus(partial bool) int {
	if partial {
		return http.StatusMultiStatus
	}
	return http.StatusOK
}
