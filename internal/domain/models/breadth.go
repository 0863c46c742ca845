package models

import "time"

// MovementResult classifies one symbol's move for one trading day.
// It is derived and consumed by the aggregator, never persisted.
//
// HasPrevious is false for a symbol's first stored day; such a result
// contributes to no bucket.
type MovementResult struct {
	Symbol      string
	HasPrevious bool
	Advanced    bool
	Declined    bool
	Unchanged   bool
	NewHigh     bool
	NewLow      bool
}

// DailyBreadth is the aggregated market breadth for one trading date.
//
// ADSpread is always Advanced - Declined. Build values with NewDailyBreadth
// so the spread is never set independently.
//
// swagger:model DailyBreadth
type DailyBreadth struct {
	TradingDate time.Time `json:"date" example:"2025-09-12T00:00:00Z"`
	NewHighs    int       `json:"new_highs" example:"42"`
	NewLows     int       `json:"new_lows" example:"17"`
	Advanced    int       `json:"advanced" example:"310"`
	Declined    int       `json:"declined" example:"180"`
	Unchanged   int       `json:"unchanged" example:"10"`
	ADSpread    int       `json:"ad_spread" example:"130"`
}

// NewDailyBreadth builds a DailyBreadth and derives ADSpread.
func NewDailyBreadth(date time.Time, newHighs, newLows, advanced, declined, unchanged int) DailyBreadth {
	return DailyBreadth{
		TradingDate: date,
		NewHighs:    newHighs,
		NewLows:     newLows,
		Advanced:    advanced,
		Declined:    declined,
		Unchanged:   unchanged,
		ADSpread:    advanced - declined,
	}
}

// BreadthSeriesPoint is one presentation row derived from an ordered
// sequence of DailyBreadth records.
//
// swagger:model BreadthSeriesPoint
type BreadthSeriesPoint struct {
	Date                time.Time `json:"date" example:"2025-09-12T00:00:00Z"`
	NewHighs            int       `json:"new_highs" example:"42"`
	NewLows             int       `json:"new_lows" example:"17"`
	Advanced            int       `json:"advanced" example:"310"`
	Declined            int       `json:"declined" example:"180"`
	Unchanged           int       `json:"unchanged" example:"10"`
	ADSpread            int       `json:"ad_spread" example:"130"`
	CumulativeADLine    int       `json:"cumulative_ad_line" example:"1290"`
	NewHighRateOfChange float64   `json:"new_high_rate_of_change_pct" example:"12.5"`
	NewLowRateOfChange  float64   `json:"new_low_rate_of_change_pct" example:"-3.33"`
	Acceleration        float64   `json:"acceleration" example:"-5"`
}
