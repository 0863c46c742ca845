package models

// PricePoint is one labelled close in a period history.
type PricePoint struct {
	Time  string  `json:"time" example:"Sep 12"`
	Price float64 `json:"price" example:"229.43"`
}

// StockSnapshot is the summary card shown next to a period history.
//
// swagger:model StockSnapshot
type StockSnapshot struct {
	Name         string   `json:"name" example:"Apple Inc."`
	CurrentPrice *float64 `json:"currentPrice"`
	Week52High   *float64 `json:"week52High"`
	Week52Low    *float64 `json:"week52Low"`
}

// PeriodHistory is the closing-price history of a symbol over a named period.
//
// swagger:model PeriodHistory
type PeriodHistory struct {
	Symbol    string        `json:"symbol" example:"AAPL"`
	Period    string        `json:"period" example:"month"`
	Data      []PricePoint  `json:"data"`
	StockInfo StockSnapshot `json:"stockInfo"`
}

// StockHistory is the stored quote history of a symbol with its metadata.
//
// swagger:model StockHistory
type StockHistory struct {
	Symbol         string          `json:"symbol" example:"AAPL"`
	CompanyInfo    *SymbolMetadata `json:"company_info,omitempty"`
	HistoricalData []Quote         `json:"historical_data"`
	Count          int             `json:"count" example:"252"`
}

// FiftyTwoWeek is the trailing 52-week range of a symbol.
//
// swagger:model FiftyTwoWeek
type FiftyTwoWeek struct {
	Symbol     string  `json:"symbol" example:"AAPL"`
	High52Week float64 `json:"high_52week" example:"260.10"`
	Low52Week  float64 `json:"low_52week" example:"164.08"`
}

// StockInfo combines provider metadata with the latest price and 52-week range.
//
// swagger:model StockInfo
type StockInfo struct {
	Symbol        string   `json:"symbol" example:"AAPL"`
	Name          string   `json:"name" example:"Apple Inc."`
	Sector        string   `json:"sector,omitempty" example:"Technology"`
	Industry      string   `json:"industry,omitempty" example:"Consumer Electronics"`
	CurrentPrice  *float64 `json:"currentPrice"`
	MarketCap     *int64   `json:"marketCap"`
	PERatio       *float64 `json:"peRatio"`
	DividendYield *float64 `json:"dividendYield,omitempty"`
	Week52High    *float64 `json:"week52High"`
	Week52Low     *float64 `json:"week52Low"`
}
