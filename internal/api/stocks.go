package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/marketpulse/internal/domain/dto"
	"github.com/guttosm/marketpulse/internal/middleware"
)

// GetStockHistory godoc
// @Summary      Stored quote history
// @Description  Returns the stored daily quotes of a symbol with its company info
// @Tags         stocks
// @Produce      json
// @Param        symbol      path      string  true   "Ticker symbol"  example(AAPL)
// @Param        start_date  query     string  false  "Start date in YYYY-MM-DD"  example(2025-01-02)
// @Param        end_date    query     string  false  "End date in YYYY-MM-DD"  example(2025-09-12)
// @Success      200         {object}  models.StockHistory
// @Failure      400         {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500         {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/stocks/history/{symbol} [get]
func (h *Handler) GetStockHistory(c *gin.Context) {
	start, ok := queryDate(c, "start_date")
	if !ok {
		return
	}
	end, ok := queryDate(c, "end_date")
	if !ok {
		return
	}

	out, err := h.stocks.History(c.Request.Context(), c.Param("symbol"), start, end)
	if err != nil {
		fail(c, "failed to load stock history", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetPeriodHistory godoc
// @Summary      Labelled closing prices for a period
// @Description  Returns closes rounded to cents labelled "Jan 02" (week, month) or "Jan 2006" (year, 5 years). Cached hourly.
// @Tags         stocks
// @Produce      json
// @Param        symbol  query     string  true   "Ticker symbol"  example(AAPL)
// @Param        period  query     string  false  "History period"  Enums(week, month, year, 5 years)  default(week)
// @Success      200     {object}  models.PeriodHistory
// @Failure      400     {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse  "Not Found"
// @Failure      500     {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/stocks/history [get]
func (h *Handler) GetPeriodHistory(c *gin.Context) {
	out, err := h.stocks.PeriodHistory(c.Request.Context(), c.Query("symbol"), c.DefaultQuery("period", "week"))
	if err != nil {
		fail(c, "failed to load period history", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetFiftyTwoWeek godoc
// @Summary      Trailing 52-week range
// @Description  Returns the highest high and lowest low of the last 52 weeks from the market-data provider
// @Tags         stocks
// @Produce      json
// @Param        symbol  path      string  true  "Ticker symbol"  example(AAPL)
// @Success      200     {object}  models.FiftyTwoWeek
// @Failure      404     {object}  dto.ErrorResponse  "Not Found"
// @Failure      502     {object}  dto.ErrorResponse  "Provider unavailable"
// @Failure      500     {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/stocks/52week/{symbol} [get]
func (h *Handler) GetFiftyTwoWeek(c *gin.Context) {
	out, err := h.stocks.FiftyTwoWeek(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		fail(c, "failed to load 52-week range", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetStockInfo godoc
// @Summary      Stock info
// @Description  Returns provider metadata with the latest price and 52-week range
// @Tags         stocks
// @Produce      json
// @Param        symbol  query     string  true  "Ticker symbol"  example(AAPL)
// @Success      200     {object}  models.StockInfo
// @Failure      400     {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse  "Not Found"
// @Failure      502     {object}  dto.ErrorResponse  "Provider unavailable"
// @Router       /api/v1/stocks/info [get]
func (h *Handler) GetStockInfo(c *gin.Context) {
	out, err := h.stocks.Info(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		fail(c, "failed to load stock info", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UpdateHistory godoc
// @Summary      Backfill historical data
// @Description  Seeds metadata and historical quotes for the given symbols. Responds 207 with per-symbol errors on partial success.
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.UpdateHistoryRequest  true  "Symbols and optional history depth in days"
// @Success      200   {object}  dto.UpdateHistoryResponse
// @Success      207   {object}  dto.UpdateHistoryResponse  "Some symbols failed"
// @Failure      400   {object}  dto.ErrorResponse  "Bad Request"
// @Failure      401   {object}  dto.ErrorResponse  "Unauthorized"
// @Failure      500   {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/stocks/history/update [post]
func (h *Handler) UpdateHistory(c *gin.Context) {
	var req dto.UpdateHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "No stock symbols provided", err)
		return
	}

	rep, err := h.stocks.UpdateHistory(c.Request.Context(), req.Symbols, req.Days)
	if err != nil {
		fail(c, "historical data update failed", err)
		return
	}
	c.JSON(partialStatus(rep.Partial()), dto.NewUpdateHistoryResponse(rep))
}

// AddStocks godoc
// @Summary      Register stocks
// @Description  Stores provider metadata for the given symbols so scheduled and default runs include them. Symbols that are already registered are reported as existing. Responds 207 with per-symbol errors on partial success.
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.AddStocksRequest  true  "Symbols to register"
// @Success      200   {object}  dto.AddStocksResponse
// @Success      207   {object}  dto.AddStocksResponse  "Some symbols failed"
// @Failure      400   {object}  dto.ErrorResponse  "Bad Request"
// @Failure      401   {object}  dto.ErrorResponse  "Unauthorized"
// @Failure      500   {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/stocks/add [post]
func (h *Handler) AddStocks(c *gin.Context) {
	var req dto.AddStocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "No stock symbols provided", err)
		return
	}

	rep, err := h.stocks.AddStocks(c.Request.Context(), req.Symbols)
	if err != nil {
		fail(c, "add stocks failed", err)
		return
	}
	c.JSON(partialStatus(rep.Partial()), dto.NewAddStocksResponse(rep))
}
