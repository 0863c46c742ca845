package app

import (
	"fmt"
	"time"

	"github.com/guttosm/marketpulse/config"
	"github.com/guttosm/marketpulse/internal/cache"
	"github.com/guttosm/marketpulse/internal/marketdata"
)

// NewSource builds the configured market data provider behind the
// request-coalescing cache.
func NewSource(cfg config.Config, clock cache.Clock) (marketdata.Source, error) {
	var next marketdata.Source
	switch cfg.MarketData.Provider {
	case "yahoo":
		next = marketdata.NewYahooSource(marketdata.YahooConfig{
			BaseURL:   cfg.MarketData.BaseURL,
			Timeout:   cfg.MarketData.Timeout,
			Retries:   cfg.MarketData.Retries,
			RetryWait: 500 * time.Millisecond,
		})
	case "financego":
		next = marketdata.NewFinanceGoSource()
	case "csv":
		if cfg.MarketData.CSVDir == "" {
			return nil, fmt.Errorf("csv provider requires MARKETDATA_CSV_DIR")
		}
		next = marketdata.NewCSVSource(cfg.MarketData.CSVDir)
	default:
		return nil, fmt.Errorf("unknown market data provider %q", cfg.MarketData.Provider)
	}
	return marketdata.NewCachedSource(next, clock, cfg.Server.CacheBucket), nil
}
