package marketdata

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/guttosm/marketpulse/internal/domain/models"
)

var (
	// ErrSymbolNotFound is returned when the provider does not know the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrSourceUnavailable is returned when the provider cannot be reached
	// or answers with a server-side failure.
	ErrSourceUnavailable = errors.New("market data source unavailable")
)

// Source is the market-data contract used by the aggregator, the backfill
// and the stock service.
//
// FetchSeries returns daily bars for symbol dated in
// [end - lookbackDays, end], in ascending date order. An empty slice with a
// nil error means the provider knows the symbol but has no bars in range.
//
// FetchMetadata returns descriptive data for symbol. Fields the provider does
// not expose are left empty (strings) or nil (optional numbers).
type Source interface {
	FetchSeries(ctx context.Context, symbol string, end time.Time, lookbackDays int) ([]models.Bar, error)
	FetchMetadata(ctx context.Context, symbol string) (*models.SymbolMetadata, error)
}

// windowStart returns the first calendar date covered by a lookback ending at end.
func windowStart(end time.Time, lookbackDays int) time.Time {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	return dateOnly(end).AddDate(0, 0, -lookbackDays)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// clip keeps bars dated within [from, to] and returns them sorted ascending.
func clip(bars []models.Bar, from, to time.Time) []models.Bar {
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	sortBars(out)
	return out
}

func sortBars(bars []models.Bar) {
	slices.SortStableFunc(bars, func(a, b models.Bar) int { return a.Date.Compare(b.Date) })
}
