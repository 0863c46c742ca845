package pulse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/marketpulse/internal/calendar"
	"github.com/guttosm/marketpulse/internal/domain/models"
	"github.com/guttosm/marketpulse/internal/logger"
	"github.com/guttosm/marketpulse/internal/marketdata"
	"github.com/guttosm/marketpulse/internal/universe"
)

const (
	defaultParallel      = 8
	defaultSymbolTimeout = 15 * time.Second
	defaultLookbackDays  = 400
	DefaultRetentionDays = 365
)

// Store is the persistence the aggregator writes through.
type Store interface {
	UpsertQuote(ctx context.Context, q models.Quote) (bool, error)
	FindPreviousQuote(ctx context.Context, symbol string, before time.Time) (*models.Quote, error)
	UpsertBreadth(ctx context.Context, b models.DailyBreadth) error
	AcquireWriterLock(ctx context.Context) (release func(), err error)
	RetentionStore
}

// Config tunes an Aggregator. Zero values fall back to defaults.
type Config struct {
	Parallel      int
	SymbolTimeout time.Duration
	LookbackDays  int
	RetentionDays int
}

// RunReport summarises one aggregation run.
//
// swagger:model RunReport
type RunReport struct {
	TradingDate    time.Time            `json:"trading_date" example:"2025-09-12T00:00:00Z"`
	UniverseSize   int                  `json:"universe_size" example:"500"`
	Processed      int                  `json:"processed" example:"498"`
	InsertedQuotes int                  `json:"inserted_quotes" example:"498"`
	NoData         bool                 `json:"no_data"`
	Breadth        *models.DailyBreadth `json:"breadth,omitempty"`
	EvictedDate    *time.Time           `json:"evicted_date,omitempty"`
	Errors         []*SymbolError       `json:"errors"`
}

// Partial reports whether any symbol was left out of the run.
func (r *RunReport) Partial() bool { return len(r.Errors) > 0 }

// MarshalJSON renders a SymbolError as {symbol, kind, message}.
func (e *SymbolError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Symbol  string    `json:"symbol"`
		Kind    ErrorKind `json:"kind"`
		Message string    `json:"message"`
	}{e.Symbol, e.Kind, e.Err.Error()})
}

// Aggregator computes and persists the daily breadth for a symbol universe.
//
// Behavior:
//   - Stage 1 fetches and normalizes every symbol in parallel, each with its
//     own timeout.
//   - Stage 2 is serial and runs under both an in-process mutex and the store's
//     writer lock: persist quote, find previous, classify, tally.
//   - Per-symbol failures are recorded in the report and never fail the run.
type Aggregator struct {
	source marketdata.Source
	store  Store
	cfg    Config

	mu sync.Mutex
}

// NewAggregator builds an Aggregator.
//
// Parameters:
//   - source (marketdata.Source): Provider of daily bars.
//   - store (Store): Quote and breadth persistence, including the writer lock.
//   - cfg (Config): Tuning; zero fields fall back to 8 workers, a 15s
//     per-symbol timeout, a 400-day lookback and 365 retained rows.
//
// Returns:
//   - *Aggregator: ready to use; safe for concurrent Run calls, which are
//     serialized during stage 2.
func NewAggregator(source marketdata.Source, store Store, cfg Config) *Aggregator {
	if cfg.Parallel <= 0 {
		cfg.Parallel = defaultParallel
	}
	if cfg.SymbolTimeout <= 0 {
		cfg.SymbolTimeout = defaultSymbolTimeout
	}
	if cfg.LookbackDays < WindowDays {
		cfg.LookbackDays = defaultLookbackDays
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	return &Aggregator{source: source, store: store, cfg: cfg}
}

type normalized struct {
	quote models.Quote
	err   error
}

// Run aggregates one trading date over symbolSet.
//
// Parameters:
//   - ctx (context.Context): Bounds the whole run. Each fetch additionally
//     gets Config.SymbolTimeout.
//   - date (time.Time): The trading date; only its calendar date is used.
//   - symbolSet ([]string): Symbols to aggregate; normalized and de-duplicated.
//
// Behavior:
//   - Fetches and normalizes every symbol in parallel. A fetch failure is
//     recorded against its symbol only.
//   - Persists quotes, looks up previous quotes and classifies serially while
//     holding the writer lock. Cancellation is checked before each symbol.
//   - Writes one breadth row when at least one symbol was processed, then
//     enforces retention.
//
// Returns:
//   - *RunReport: always non-nil when err is nil; NoData is set when no symbol
//     produced a quote, in which case nothing is written to market_breadth.
//   - error: lock acquisition, breadth write or retention failures, or the
//     caller's context error when the run was abandoned mid-way (no breadth is
//     written in that case).
func (a *Aggregator) Run(ctx context.Context, date time.Time, symbolSet []string) (*RunReport, error) {
	target := calendar.TruncateToDate(date)
	symbols := universe.Normalize(symbolSet)
	log := logger.Named("aggregator").With().Str("date", target.Format(time.DateOnly)).Logger()

	report := &RunReport{
		TradingDate:  target,
		UniverseSize: len(symbols),
		Errors:       []*SymbolError{},
	}
	start := time.Now()
	log.Info().Int("symbols", len(symbols)).Int("parallel", a.cfg.Parallel).Msg("aggregation start")

	// ─── Stage 1: fetch + normalize (parallel) ─────────────
	results := a.fetchAll(ctx, target, symbols)

	// ─── Stage 2: persist + classify + tally (serial) ──────
	a.mu.Lock()
	defer a.mu.Unlock()

	release, err := a.store.AcquireWriterLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire writer lock: %w", err)
	}
	defer release()

	var t tally
	for i, sym := range symbols {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("remaining", len(symbols)-i).Err(err).Msg("aggregation abandoned")
			return report, fmt.Errorf("aggregation for %s abandoned: %w", target.Format(time.DateOnly), err)
		}

		res := results[i]
		if res.err != nil {
			report.Errors = append(report.Errors, NewSymbolError(sym, res.err))
			continue
		}

		inserted, err := a.store.UpsertQuote(ctx, res.quote)
		if err != nil {
			report.Errors = append(report.Errors, NewSymbolError(sym, fmt.Errorf("upsert quote: %w: %v", ErrStoreWrite, err)))
			continue
		}
		report.Processed++
		if inserted {
			report.InsertedQuotes++
		}

		prev, err := a.store.FindPreviousQuote(ctx, sym, target)
		if err != nil {
			report.Errors = append(report.Errors, NewSymbolError(sym, fmt.Errorf("find previous quote: %w: %v", ErrStoreRead, err)))
			continue
		}

		move, err := ClassifyMovement(res.quote, prev)
		if err != nil {
			log.Error().Str("symbol", sym).Err(err).Msg("integrity violation, symbol excluded from tallies")
			report.Errors = append(report.Errors, NewSymbolError(sym, err))
			continue
		}
		t.add(move)
	}

	if report.Processed == 0 {
		report.NoData = true
		log.Warn().Int("errors", len(report.Errors)).Msg("no symbol produced data, breadth not written")
		return report, nil
	}

	breadth := models.NewDailyBreadth(target, t.newHighs, t.newLows, t.advanced, t.declined, t.unchanged)
	if err := a.store.UpsertBreadth(ctx, breadth); err != nil {
		return nil, fmt.Errorf("upsert breadth %s: %w", target.Format(time.DateOnly), err)
	}
	report.Breadth = &breadth

	evicted, err := EnforceRetention(ctx, a.store, a.cfg.RetentionDays)
	if err != nil {
		return nil, fmt.Errorf("enforce retention: %w", err)
	}
	report.EvictedDate = evicted

	log.Info().
		Int("processed", report.Processed).
		Int("inserted", report.InsertedQuotes).
		Int("errors", len(report.Errors)).
		Int("advanced", breadth.Advanced).
		Int("declined", breadth.Declined).
		Int("new_highs", breadth.NewHighs).
		Int("new_lows", breadth.NewLows).
		Dur("elapsed", time.Since(start)).
		Msg("aggregation done")
	return report, nil
}

// RunRange runs Run for every trading day in [from, to], oldest first, so each
// day's previous quote is already stored when it is classified.
//
// Parameters:
//   - from, to (time.Time): Inclusive calendar bounds; non-trading days are skipped.
//   - symbolSet ([]string): Passed unchanged to every Run.
//
// Returns:
//   - []*RunReport: one report per completed day, plus the partial report of
//     an abandoned day when Run returned one.
//   - error: the first run-level error; later days are not attempted.
func (a *Aggregator) RunRange(ctx context.Context, from, to time.Time, symbolSet []string) ([]*RunReport, error) {
	days := calendar.TradingDaysBetween(from, to)
	reports := make([]*RunReport, 0, len(days))
	for _, d := range days {
		rep, err := a.Run(ctx, d, symbolSet)
		if err != nil {
			if rep != nil {
				reports = append(reports, rep)
			}
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (a *Aggregator) fetchAll(ctx context.Context, date time.Time, symbols []string) []normalized {
	results := make([]normalized, len(symbols))

	var g errgroup.Group
	g.SetLimit(a.cfg.Parallel)
	for i, sym := range symbols {
		g.Go(func() error {
			results[i] = a.fetchOne(ctx, date, sym)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *Aggregator) fetchOne(ctx context.Context, date time.Time, symbol string) normalized {
	sctx, cancel := context.WithTimeout(ctx, a.cfg.SymbolTimeout)
	defer cancel()

	bars, err := a.source.FetchSeries(sctx, symbol, date, a.cfg.LookbackDays)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(sctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("fetch %s timed out after %s: %w", symbol, a.cfg.SymbolTimeout, ErrDataUnavailable)
		}
		return normalized{err: err}
	}
	q, err := Normalize(symbol, bars, date)
	return normalized{quote: q, err: err}
}
