package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"github.com/guttosm/marketpulse/internal/domain/models"
)

// FinanceGoSource reads Yahoo data through piquette/finance-go.
// The library is not context aware, so calls run in a goroutine and are
// abandoned when ctx is done.
type FinanceGoSource struct {
	// seams for tests
	fetchBars func(p *chart.Params) ([]models.Bar, error)
	fetchName func(symbol string) (string, bool, error)
}

func NewFinanceGoSource() *FinanceGoSource {
	return &FinanceGoSource{fetchBars: chartBars, fetchName: quoteName}
}

// FetchSeries implements Source.
func (s *FinanceGoSource) FetchSeries(ctx context.Context, symbol string, end time.Time, lookbackDays int) ([]models.Bar, error) {
	from := windowStart(end, lookbackDays)
	to := dateOnly(end)
	params := &chart.Params{
		Symbol:   symbol,
		Start:    toDatetime(from),
		End:      toDatetime(to.AddDate(0, 0, 1)),
		Interval: datetime.OneDay,
	}

	bars, err := withContext(ctx, func() ([]models.Bar, error) { return s.fetchBars(params) })
	if err != nil {
		return nil, classifyFinanceErr(symbol, err)
	}
	return clip(bars, from, to), nil
}

// FetchMetadata implements Source.
func (s *FinanceGoSource) FetchMetadata(ctx context.Context, symbol string) (*models.SymbolMetadata, error) {
	type named struct {
		name  string
		found bool
	}
	res, err := withContext(ctx, func() (named, error) {
		n, ok, err := s.fetchName(symbol)
		return named{n, ok}, err
	})
	if err != nil {
		return nil, classifyFinanceErr(symbol, err)
	}
	if !res.found {
		return nil, fmt.Errorf("finance-go quote %s: %w", symbol, ErrSymbolNotFound)
	}
	return &models.SymbolMetadata{Symbol: symbol, CompanyName: res.name}, nil
}

func chartBars(p *chart.Params) ([]models.Bar, error) {
	iter := chart.Get(p)
	var bars []models.Bar
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, models.Bar{
			Date:  dateOnly(time.Unix(int64(b.Timestamp), 0).UTC()),
			Open:  b.Open.InexactFloat64(),
			High:  b.High.InexactFloat64(),
			Low:   b.Low.InexactFloat64(),
			Close: b.Close.InexactFloat64(),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

func quoteName(symbol string) (string, bool, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return "", false, err
	}
	if q == nil {
		return "", false, nil
	}
	return q.ShortName, true, nil
}

func toDatetime(t time.Time) *datetime.Datetime {
	return &datetime.Datetime{Month: int(t.Month()), Day: t.Day(), Year: t.Year()}
}

func classifyFinanceErr(symbol string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("finance-go %s: %w", symbol, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") || strings.Contains(msg, "no data found") {
		return fmt.Errorf("finance-go %s: %v: %w", symbol, err, ErrSymbolNotFound)
	}
	return fmt.Errorf("finance-go %s: %w: %w", symbol, ErrSourceUnavailable, err)
}

// withContext runs fn in its own goroutine and returns early with ctx.Err()
// when ctx is done first.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.v, r.err
	}
}
