package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/guttosm/marketpulse/internal/cache"
	"github.com/guttosm/marketpulse/internal/domain/models"
)

// CachedSource memoizes another Source per (symbol, period, time bucket).
// The period of a series is its end date plus lookback, so different windows
// never share an entry. Errors are not cached.
type CachedSource struct {
	next   Source
	series *cache.Cache[[]models.Bar]
	meta   *cache.Cache[*models.SymbolMetadata]
}

// NewCachedSource wraps next. bucket is the cache lifetime granularity; a nil
// clock uses the wall clock.
func NewCachedSource(next Source, clock cache.Clock, bucket time.Duration) *CachedSource {
	return &CachedSource{
		next:   next,
		series: cache.New[[]models.Bar](clock, bucket, 0),
		meta:   cache.New[*models.SymbolMetadata](clock, bucket, 0),
	}
}

// FetchSeries implements Source. Callers get their own copy of the cached slice.
func (c *CachedSource) FetchSeries(ctx context.Context, symbol string, end time.Time, lookbackDays int) ([]models.Bar, error) {
	period := fmt.Sprintf("%s/%d", dateOnly(end).Format(time.DateOnly), lookbackDays)
	bars, err := c.series.GetOrLoad(symbol, period, func() ([]models.Bar, error) {
		return c.next.FetchSeries(ctx, symbol, end, lookbackDays)
	})
	if err != nil {
		return nil, err
	}
	return append([]models.Bar(nil), bars...), nil
}

// FetchMetadata implements Source.
func (c *CachedSource) FetchMetadata(ctx context.Context, symbol string) (*models.SymbolMetadata, error) {
	m, err := c.meta.GetOrLoad(symbol, "metadata", func() (*models.SymbolMetadata, error) {
		return c.next.FetchMetadata(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	cp := *m
	return &cp, nil
}
