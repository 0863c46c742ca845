package models

import "time"

// Bar is one daily OHLC record as returned by a market-data provider.
// Providers return bars in ascending date order.
type Bar struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Quote is the canonical daily quote stored per symbol.
//
// Fields:
//   - Symbol: ticker symbol (e.g., "AAPL").
//   - TradingDate: the trading day the close belongs to (date only, UTC).
//   - ClosingPrice: closing price for the day.
//   - High52Week / Low52Week: max(High) / min(Low) over the trailing
//     365-calendar-day window ending on TradingDate.
//
// A Quote is immutable once written: re-inserting the same (Symbol, TradingDate)
// is a no-op.
//
// swagger:model Quote
type Quote struct {
	Symbol       string    `json:"symbol" example:"AAPL"`
	TradingDate  time.Time `json:"date" example:"2025-09-12T00:00:00Z"`
	ClosingPrice float64   `json:"closing_price" example:"229.43"`
	High52Week   float64   `json:"high_52week" example:"260.10"`
	Low52Week    float64   `json:"low_52week" example:"164.08"`
}

// SymbolMetadata describes a listed company.
//
// Only Symbol, CompanyName, Sector and Industry are persisted. MarketCap,
// PERatio and DividendYield are carried from the provider when it exposes
// them and are nil otherwise.
//
// swagger:model SymbolMetadata
type SymbolMetadata struct {
	Symbol        string   `json:"symbol" example:"AAPL"`
	CompanyName   string   `json:"company_name" example:"Apple Inc."`
	Sector        string   `json:"sector,omitempty" example:"Technology"`
	Industry      string   `json:"industry,omitempty" example:"Consumer Electronics"`
	MarketCap     *int64   `json:"market_cap,omitempty"`
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
}
