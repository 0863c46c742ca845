package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/guttosm/marketpulse/internal/cache"
	"github.com/guttosm/marketpulse/internal/calendar"
	"github.com/guttosm/marketpulse/internal/domain/models"
	"github.com/guttosm/marketpulse/internal/logger"
	"github.com/guttosm/marketpulse/internal/pulse"
)

// Runner executes breadth aggregations. *pulse.Aggregator implements it.
type Runner interface {
	Run(ctx context.Context, date time.Time, symbols []string) (*pulse.RunReport, error)
	RunRange(ctx context.Context, from, to time.Time, symbols []string) ([]*pulse.RunReport, error)
}

// BreadthReader loads stored DailyBreadth rows in ascending date order.
type BreadthReader interface {
	FindBreadthInRange(ctx context.Context, startDate *time.Time, endDate *time.Time) ([]models.DailyBreadth, error)
}

// SeriesQuery selects a window of the breadth series.
//
// Start and End override Range when set. An empty Range means 1Y.
type SeriesQuery struct {
	Range       string
	Start       *time.Time
	End         *time.Time
	Granularity pulse.Granularity
}

// SeriesResult is the transformed breadth series for a window.
type SeriesResult struct {
	Range       string
	Granularity pulse.Granularity
	From        *time.Time
	To          time.Time
	Points      []models.BreadthSeriesPoint
	Summary     pulse.Summary
}

// PulseService runs aggregations and serves the breadth series.
type PulseService interface {
	Run(ctx context.Context, date *time.Time, symbols []string) (*pulse.RunReport, error)
	RunRange(ctx context.Context, from, to time.Time, symbols []string) ([]*pulse.RunReport, error)
	Series(ctx context.Context, q SeriesQuery) (*SeriesResult, error)
}

// SymbolLister returns the symbols registered through AddStocks or a
// backfill. storage.MarketRepository implements it.
type SymbolLister interface {
	ListTrackedSymbols(ctx context.Context) ([]string, error)
}

// PulseOption customizes a PulseService.
type PulseOption func(*pulseService)

// WithTrackedSymbols extends the default universe with the symbols lister
// reports, looked up at the start of every run that names no symbols.
func WithTrackedSymbols(lister SymbolLister) PulseOption {
	return func(s *pulseService) { s.tracked = lister }
}

type pulseService struct {
	runner   Runner
	reader   BreadthReader
	universe []string
	tracked  SymbolLister
	clock    cache.Clock
	loc      *time.Location
}

// NewPulseService wires a PulseService. universe is used when a run names no
// symbols; loc is the market timezone used to resolve "today".
func NewPulseService(runner Runner, reader BreadthReader, universe []string, clock cache.Clock, loc *time.Location, opts ...PulseOption) PulseService {
	if clock == nil {
		clock = cache.SystemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	s := &pulseService{runner: runner, reader: reader, universe: universe, clock: clock, loc: loc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today is the current calendar date in the market timezone, as a UTC date.
func (s *pulseService) today() time.Time {
	return calendar.TruncateToDate(s.clock.Now().In(s.loc))
}

// symbols resolves the symbol set of a run. Without an explicit request it is
// the configured universe followed by any tracked symbol not already in it.
// A failed lookup degrades to the configured universe.
func (s *pulseService) symbols(ctx context.Context, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	if s.tracked == nil {
		return s.universe
	}
	extra, err := s.tracked.ListTrackedSymbols(ctx)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("tracked symbols lookup failed, using configured universe")
		return s.universe
	}

	out := slices.Clone(s.universe)
	seen := make(map[string]struct{}, len(out)+len(extra))
	for _, sym := range out {
		seen[sym] = struct{}{}
	}
	for _, sym := range extra {
		if _, ok := seen[sym]; !ok {
			seen[sym] = struct{}{}
			out = append(out, sym)
		}
	}
	return out
}

func (s *pulseService) Run(ctx context.Context, date *time.Time, symbols []string) (*pulse.RunReport, error) {
	today := s.today()
	target := calendar.LastTradingDay(today)
	if date != nil {
		target = calendar.TruncateToDate(*date)
		if target.After(today) {
			return nil, fmt.Errorf("%s: %w", target.Format(time.DateOnly), ErrFutureDate)
		}
		if !calendar.IsTradingDay(target) {
			return nil, fmt.Errorf("%s: %w", target.Format(time.DateOnly), ErrNotTradingDay)
		}
	}
	return s.runner.Run(ctx, target, s.symbols(ctx, symbols))
}

func (s *pulseService) RunRange(ctx context.Context, from, to time.Time, symbols []string) ([]*pulse.RunReport, error) {
	from, to = calendar.TruncateToDate(from), calendar.TruncateToDate(to)
	if from.After(to) {
		return nil, ErrInvalidDates
	}
	if today := s.today(); to.After(today) {
		return nil, fmt.Errorf("%s: %w", to.Format(time.DateOnly), ErrFutureDate)
	}
	return s.runner.RunRange(ctx, from, to, s.symbols(ctx, symbols))
}

func (s *pulseService) Series(ctx context.Context, q SeriesQuery) (*SeriesResult, error) {
	rng := strings.ToUpper(strings.TrimSpace(q.Range))
	if rng == "" {
		rng = "1Y"
	}

	to := s.today()
	if q.End != nil {
		to = calendar.TruncateToDate(*q.End)
	}
	from, err := rangeStart(rng, to)
	if err != nil {
		return nil, err
	}
	if q.Start != nil {
		start := calendar.TruncateToDate(*q.Start)
		from = &start
	}
	if from != nil && from.After(to) {
		return nil, ErrInvalidDates
	}

	rows, err := s.reader.FindBreadthInRange(ctx, from, &to)
	if err != nil {
		return nil, fmt.Errorf("load breadth: %w", err)
	}

	points := slices.Collect(pulse.Series(pulse.Resample(rows, q.Granularity)))
	if points == nil {
		points = []models.BreadthSeriesPoint{}
	}

	return &SeriesResult{
		Range:       rng,
		Granularity: q.Granularity,
		From:        from,
		To:          to,
		Points:      points,
		Summary:     pulse.Summarize(points),
	}, nil
}

// rangeStart resolves a named range ending at end. ALL has no lower bound.
func rangeStart(rng string, end time.Time) (*time.Time, error) {
	var from time.Time
	switch rng {
	case "1W":
		from = end.AddDate(0, 0, -7)
	case "1M":
		from = end.AddDate(0, -1, 0)
	case "3M":
		from = end.AddDate(0, -3, 0)
	case "6M":
		from = end.AddDate(0, -6, 0)
	case "YTD":
		from = time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case "1Y":
		from = end.AddDate(-1, 0, 0)
	case "ALL":
		return nil, nil
	default:
		return nil, fmt.Errorf("%q: %w", rng, ErrInvalidRange)
	}
	return &from, nil
}
