package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/marketpulse/internal/calendar"
	"github.com/guttosm/marketpulse/internal/domain/models"
	"github.com/guttosm/marketpulse/internal/logger"
	"github.com/guttosm/marketpulse/internal/marketdata"
	"github.com/guttosm/marketpulse/internal/pulse"
	"github.com/guttosm/marketpulse/internal/storage"
	"github.com/guttosm/marketpulse/internal/universe"
)

const (
	defaultDays     = 1825
	maxParallel     = 16
	defaultParallel = 8
)

// Store is the persistence surface the backfill needs.
type Store interface {
	InsertMetadataIfAbsent(ctx context.Context, m models.SymbolMetadata) (bool, error)
	LatestQuoteDates(ctx context.Context, symbols []string) (map[string]time.Time, error)
	InsertQuotesBatch(ctx context.Context, quotes []models.Quote) (int64, error)
}

// repoCtor is an indirection for creating the repository; tests can override this.
var repoCtor = func(db *sql.DB) Store {
	return storage.NewMarketRepository(db)
}

// Options controls a backfill.
//
// Fields:
//   - Days: calendar days of history to seed, ending at End (default 1825).
//   - Parallel: symbols processed concurrently; <= 0 means min(8, NumCPU), capped at 16.
//   - End: last date to seed; zero means the last trading day before now.
//   - Force: ignore already stored dates and re-request the full window.
//     Existing quotes are still left untouched.
type Options struct {
	Days     int
	Parallel int
	End      time.Time
	Force    bool
}

// Report summarises a backfill.
//
// swagger:model BackfillReport
type Report struct {
	Symbols        int                  `json:"symbols"`
	InsertedQuotes int64                `json:"inserted_quotes"`
	UpToDate       int                  `json:"up_to_date"`
	Errors         []*pulse.SymbolError `json:"errors"`
}

// Partial reports whether at least one symbol failed.
func (r *Report) Partial() bool { return len(r.Errors) > 0 }

// Backfiller seeds metadata and historical quotes for a set of symbols.
type Backfiller struct {
	store  Store
	source marketdata.Source
}

func NewBackfiller(store Store, source marketdata.Source) *Backfiller {
	return &Backfiller{store: store, source: source}
}

// ProcessUniverse opens a repository on db and backfills symbols from src.
//
// Behavior:
//   - Symbols are normalized (trimmed, upper-cased, deduplicated).
//   - Each symbol is seeded incrementally from the day after its latest stored quote.
//   - Per-symbol failures are collected in the report; they never abort the run.
//
// Returns:
//   - *Report: counts and per-symbol errors.
//   - error: only for setup failures or cancellation.
func ProcessUniverse(ctx context.Context, db *sql.DB, src marketdata.Source, symbols []string, opts Options) (*Report, error) {
	return NewBackfiller(repoCtor(db), src).Run(ctx, symbols, opts)
}

// Run executes the backfill described by opts.
func (b *Backfiller) Run(ctx context.Context, symbols []string, opts Options) (*Report, error) {
	log := logger.Named("backfill")

	symbols = universe.Normalize(symbols)
	report := &Report{Symbols: len(symbols), Errors: []*pulse.SymbolError{}}
	if len(symbols) == 0 {
		return report, nil
	}

	days := opts.Days
	if days < 1 {
		days = defaultDays
	}
	end := calendar.TruncateToDate(opts.End)
	if opts.End.IsZero() {
		end = calendar.LastTradingDay(time.Now())
	}
	from := end.AddDate(0, 0, -days+1)

	latest := map[string]time.Time{}
	if !opts.Force {
		var err error
		latest, err = b.store.LatestQuoteDates(ctx, symbols)
		if err != nil {
			return nil, fmt.Errorf("load latest quote dates: %w", err)
		}
	}

	parallel := parallelism(opts.Parallel)
	log.Info().Int("symbols", len(symbols)).Int("days", days).Time("end", end).Int("max_parallel", parallel).Msg("backfill start")

	var mu sync.Mutex
	record := func(symbol string, err error) {
		mu.Lock()
		defer mu.Unlock()
		report.Errors = append(report.Errors, pulse.NewSymbolError(symbol, err))
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, parallel)

	for i, symbol := range symbols {
		symbolFrom := from
		if last, ok := latest[symbol]; ok {
			if !last.Before(end) {
				mu.Lock()
				report.UpToDate++
				mu.Unlock()
				continue
			}
			if next := last.AddDate(0, 0, 1); next.After(symbolFrom) {
				symbolFrom = next
			}
		}

		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			defer func() { <-sem }()
			start := time.Now()

			n, err := b.seed(gctx, symbol, symbolFrom, end)
			if err != nil {
				log.Warn().Str("symbol", symbol).Err(err).Msg("symbol failed")
				record(symbol, err)
				return nil
			}

			mu.Lock()
			report.InsertedQuotes += n
			mu.Unlock()
			log.Debug().Int("idx", i+1).Int("total", len(symbols)).Str("symbol", symbol).Int64("rows", n).Dur("elapsed", time.Since(start)).Msg("symbol done")
			return nil
		})
	}

	_ = g.Wait()

	slices.SortFunc(report.Errors, func(a, b *pulse.SymbolError) int {
		return strings.Compare(a.Symbol, b.Symbol)
	})

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("backfill interrupted: %w", err)
	}

	log.Info().Int("symbols", report.Symbols).Int64("inserted", report.InsertedQuotes).Int("up_to_date", report.UpToDate).Int("errors", len(report.Errors)).Msg("backfill done")
	return report, nil
}

// seed stores metadata and the quotes for [from, end] of one symbol.
func (b *Backfiller) seed(ctx context.Context, symbol string, from, end time.Time) (int64, error) {
	meta, err := b.source.FetchMetadata(ctx, symbol)
	switch {
	case errors.Is(err, marketdata.ErrSymbolNotFound):
		return 0, err
	case err != nil:
		// Metadata is optional; the placeholder row created with the quotes is enough.
		logger.Named("backfill").Warn().Str("symbol", symbol).Err(err).Msg("metadata unavailable")
	default:
		meta.Symbol = symbol
		if _, err := b.store.InsertMetadataIfAbsent(ctx, *meta); err != nil {
			return 0, fmt.Errorf("%w: metadata: %w", pulse.ErrStoreWrite, err)
		}
	}

	lookback := int(end.Sub(from).Hours()/24) + 1 + pulse.WindowDays
	bars, err := b.source.FetchSeries(ctx, symbol, end, lookback)
	if err != nil {
		return 0, err
	}

	quotes, err := pulse.RollingQuotes(symbol, bars, from)
	if err != nil {
		return 0, err
	}
	quotes = slices.DeleteFunc(quotes, func(q models.Quote) bool { return q.TradingDate.After(end) })
	if len(quotes) == 0 {
		return 0, nil
	}

	n, err := b.store.InsertQuotesBatch(ctx, quotes)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", pulse.ErrStoreWrite, err)
	}
	return n, nil
}

func parallelism(requested int) int {
	if requested > 0 {
		return min(requested, maxParallel)
	}
	return min(defaultParallel, runtime.NumCPU())
}
