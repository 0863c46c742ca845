package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/marketpulse/internal/domain/dto"
	"github.com/guttosm/marketpulse/internal/middleware"
	"github.com/guttosm/marketpulse/internal/pulse"
	"github.com/guttosm/marketpulse/internal/service"
)

// GetMarketPulse godoc
// @Summary      Market breadth series
// @Description  Returns the breadth series (new highs/lows, advance/decline, cumulative A/D line, rates of change, acceleration) with a summary of the latest point
// @Tags         market-pulse
// @Produce      json
// @Param        range        query     string  false  "Window ending at end_date"  Enums(1W, 1M, 3M, 6M, YTD, 1Y, ALL)  default(1Y)
// @Param        start_date   query     string  false  "Start date in YYYY-MM-DD, overrides range"  example(2025-01-02)
// @Param        end_date     query     string  false  "End date in YYYY-MM-DD (default today)"  example(2025-09-12)
// @Param        granularity  query     string  false  "Row grouping"  Enums(daily, weekly)  default(daily)
// @Success      200          {object}  dto.MarketPulseResponse
// @Failure      400          {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500          {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/market-pulse [get]
func (h *Handler) GetMarketPulse(c *gin.Context) {
	granularity, err := pulse.ParseGranularity(c.Query("granularity"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid granularity, use daily or weekly", err)
		return
	}
	start, ok := queryDate(c, "start_date")
	if !ok {
		return
	}
	end, ok := queryDate(c, "end_date")
	if !ok {
		return
	}

	res, err := h.pulse.Series(c.Request.Context(), service.SeriesQuery{
		Range:       c.Query("range"),
		Start:       start,
		End:         end,
		Granularity: granularity,
	})
	if err != nil {
		fail(c, "failed to load market pulse", err)
		return
	}

	c.JSON(http.StatusOK, dto.MarketPulseResponse{
		Range:       res.Range,
		Granularity: string(granularity),
		StartDate:   dto.FormatDate(res.From),
		EndDate:     *dto.FormatDate(&res.To),
		Points:      res.Points,
		Summary:     res.Summary,
	})
}

// RunMarketPulse godoc
// @Summary      Run the daily breadth aggregation
// @Description  Fetches, stores and classifies every symbol for one trading day and writes the day's breadth row. Responds 207 when some symbols failed.
// @Tags         market-pulse
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.RunRequest  false  "Target date (default last trading day) and symbols (default universe)"
// @Success      200   {object}  pulse.RunReport
// @Success      207   {object}  pulse.RunReport  "Some symbols failed"
// @Failure      400   {object}  dto.ErrorResponse  "Bad Request"
// @Failure      401   {object}  dto.ErrorResponse  "Unauthorized"
// @Failure      500   {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/market-pulse/run [post]
func (h *Handler) RunMarketPulse(c *gin.Context) {
	var req dto.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	date, err := req.ParseDate()
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD", err)
		return
	}

	report, err := h.pulse.Run(c.Request.Context(), date, req.Symbols)
	if err != nil {
		fail(c, "market pulse run failed", err)
		return
	}

	c.JSON(partialStatus(report.Partial()), report)
}
