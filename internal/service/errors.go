package service

import "errors"

// Validation and lookup errors returned by the services. Handlers map them to
// 400 or 404 responses; anything else is a 500.
var (
	ErrSymbolRequired = errors.New("symbol is required")
	ErrInvalidPeriod  = errors.New("invalid period, use 'week', 'month', 'year' or '5 years'")
	ErrInvalidRange   = errors.New("invalid range, use 1W, 1M, 3M, 6M, YTD, 1Y or ALL")
	ErrInvalidDates   = errors.New("start_date must not be after end_date")
	ErrNotTradingDay  = errors.New("date is not a trading day")
	ErrFutureDate     = errors.New("date is in the future")
	ErrNoHistory      = errors.New("no historical data available")
)
