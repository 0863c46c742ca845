package dto

import (
	"time"

	"github.com/guttosm/marketpulse/internal/domain/models"
	"github.com/guttosm/marketpulse/internal/pulse"
)

// MarketPulseResponse is returned by GET /api/v1/market-pulse.
type MarketPulseResponse struct {
	Range       string                      `json:"range" example:"3M"`
	Granularity string                      `json:"granularity" example:"daily"`
	StartDate   *string                     `json:"start_date,omitempty" example:"2025-06-12"`
	EndDate     string                      `json:"end_date" example:"2025-09-12"`
	Points      []models.BreadthSeriesPoint `json:"points"`
	Summary     pulse.Summary               `json:"summary"`
}

// RunRequest is the optional body of POST /api/v1/market-pulse/run.
type RunRequest struct {
	Date    string   `json:"date,omitempty" example:"2025-09-12"`
	Symbols []string `json:"symbols,omitempty"`
}

// ParseDate returns nil when no date was given.
func (r RunRequest) ParseDate() (*time.Time, error) {
	return ParseOptionalDate(r.Date)
}

// UpdateHistoryRequest is the body of POST /api/v1/stocks/history/update.
type UpdateHistoryRequest struct {
	Symbols []string `json:"symbols" binding:"required,min=1"`
	Days    int      `json:"days,omitempty" binding:"omitempty,min=1,max=7300" example:"1825"`
}

// AddStocksRequest is the body of POST /api/v1/stocks/add.
type AddStocksRequest struct {
	Symbols []string `json:"symbols" binding:"required,min=1" example:"AAPL,MSFT"`
}

// ParseOptionalDate parses a YYYY-MM-DD value; empty input yields nil.
func ParseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders an optional date as YYYY-MM-DD.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
