package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/marketpulse/internal/cache"
	"github.com/guttosm/marketpulse/internal/calendar"
	"github.com/guttosm/marketpulse/internal/domain/models"
	"github.com/guttosm/marketpulse/internal/ingestion"
	"github.com/guttosm/marketpulse/internal/logger"
	"github.com/guttosm/marketpulse/internal/marketdata"
	"github.com/guttosm/marketpulse/internal/pulse"
)

// periods maps the accepted period names to their length in calendar days.
var periods = map[string]int{
	"week":    7,
	"month":   30,
	"year":    365,
	"5 years": 1825,
}

const (
	shortLabel = "Jan 02"
	longLabel  = "Jan 2006"
)

// StockStore is the quote and symbol tables as StockService uses them.
// storage.MarketRepository implements it.
type StockStore interface {
	FindQuotesInRange(ctx context.Context, symbol string, startDate *time.Time, endDate *time.Time) ([]models.Quote, error)
	GetMetadata(ctx context.Context, symbol string) (*models.SymbolMetadata, error)
	InsertMetadataIfAbsent(ctx context.Context, m models.SymbolMetadata) (bool, error)
}

// HistoryUpdater seeds historical data. *ingestion.Backfiller implements it.
type HistoryUpdater interface {
	Run(ctx context.Context, symbols []string, opts ingestion.Options) (*ingestion.Report, error)
}

// StockConfig tunes a StockService.
type StockConfig struct {
	CacheBucket  time.Duration
	Location     *time.Location
	BackfillDays int
	Parallel     int
}

// StockService serves per-symbol history and provider lookups.
type StockService interface {
	History(ctx context.Context, symbol string, startDate, endDate *time.Time) (*models.StockHistory, error)
	PeriodHistory(ctx context.Context, symbol, period string) (*models.PeriodHistory, error)
	FiftyTwoWeek(ctx context.Context, symbol string) (*models.FiftyTwoWeek, error)
	Info(ctx context.Context, symbol string) (*models.StockInfo, error)
	UpdateHistory(ctx context.Context, symbols []string, days int) (*ingestion.Report, error)
	AddStocks(ctx context.Context, symbols []string) (*AddReport, error)
}

// AddReport is the outcome of registering symbols with AddStocks.
type AddReport struct {
	Added    []string             `json:"added"`
	Existing []string             `json:"existing"`
	Errors   []*pulse.SymbolError `json:"errors"`
}

// Partial reports whether at least one symbol could not be registered.
func (r *AddReport) Partial() bool { return len(r.Errors) > 0 }

type stockService struct {
	reader  StockStore
	source  marketdata.Source
	updater HistoryUpdater
	clock   cache.Clock
	cfg     StockConfig
	periods *cache.Cache[*models.PeriodHistory]
}

// NewStockService wires a StockService. Period histories are cached per
// (symbol, period) for cfg.CacheBucket (one hour by default).
func NewStockService(reader StockStore, source marketdata.Source, updater HistoryUpdater, clock cache.Clock, cfg StockConfig) StockService {
	if clock == nil {
		clock = cache.SystemClock
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &stockService{
		reader:  reader,
		source:  source,
		updater: updater,
		clock:   clock,
		cfg:     cfg,
		periods: cache.New[*models.PeriodHistory](clock, cfg.CacheBucket, 1000),
	}
}

func normalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", ErrSymbolRequired
	}
	return s, nil
}

func (s *stockService) today() time.Time {
	return calendar.TruncateToDate(s.clock.Now().In(s.cfg.Location))
}

func (s *stockService) History(ctx context.Context, symbol string, startDate, endDate *time.Time) (*models.StockHistory, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if startDate != nil && endDate != nil && startDate.After(*endDate) {
		return nil, ErrInvalidDates
	}

	quotes, err := s.reader.FindQuotesInRange(ctx, sym, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("load quotes for %s: %w", sym, err)
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}

	// company info is best-effort
	meta, err := s.reader.GetMetadata(ctx, sym)
	if err != nil {
		logger.Named("stock").Warn().Str("symbol", sym).Err(err).Msg("metadata lookup failed")
		meta = nil
	}

	return &models.StockHistory{
		Symbol:         sym,
		CompanyInfo:    meta,
		HistoricalData: quotes,
		Count:          len(quotes),
	}, nil
}

func (s *stockService) PeriodHistory(ctx context.Context, symbol, period string) (*models.PeriodHistory, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "week"
	}
	days, ok := periods[period]
	if !ok {
		return nil, fmt.Errorf("%q: %w", period, ErrInvalidPeriod)
	}

	return s.periods.GetOrLoad(sym, period, func() (*models.PeriodHistory, error) {
		return s.loadPeriod(ctx, sym, period, days)
	})
}

func (s *stockService) loadPeriod(ctx context.Context, sym, period string, days int) (*models.PeriodHistory, error) {
	start := s.today().AddDate(0, 0, -days)
	quotes, err := s.reader.FindQuotesInRange(ctx, sym, &start, nil)
	if err != nil {
		return nil, fmt.Errorf("load quotes for %s: %w", sym, err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%s: %w", sym, ErrNoHistory)
	}

	layout := longLabel
	if period == "week" || period == "month" {
		layout = shortLabel
	}
	data := make([]models.PricePoint, len(quotes))
	for i, q := range quotes {
		data[i] = models.PricePoint{Time: q.TradingDate.Format(layout), Price: round2(q.ClosingPrice)}
	}

	last := quotes[len(quotes)-1]
	info := models.StockSnapshot{
		Name:         sym,
		CurrentPrice: ptr(data[len(data)-1].Price),
		Week52High:   ptr(round2(last.High52Week)),
		Week52Low:    ptr(round2(last.Low52Week)),
	}
	if meta, err := s.reader.GetMetadata(ctx, sym); err == nil && meta != nil && meta.CompanyName != "" {
		info.Name = meta.CompanyName
	}

	return &models.PeriodHistory{Symbol: sym, Period: period, Data: data, StockInfo: info}, nil
}

func (s *stockService) FiftyTwoWeek(ctx context.Context, symbol string) (*models.FiftyTwoWeek, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	high, low, _, err := s.trailingRange(ctx, sym)
	if err != nil {
		return nil, err
	}
	return &models.FiftyTwoWeek{Symbol: sym, High52Week: high, Low52Week: low}, nil
}

func (s *stockService) Info(ctx context.Context, symbol string) (*models.StockInfo, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	meta, err := s.source.FetchMetadata(ctx, sym)
	if err != nil {
		return nil, err
	}
	high, low, last, err := s.trailingRange(ctx, sym)
	if err != nil {
		return nil, err
	}

	name := meta.CompanyName
	if name == "" {
		name = sym
	}
	return &models.StockInfo{
		Symbol:        sym,
		Name:          name,
		Sector:        meta.Sector,
		Industry:      meta.Industry,
		CurrentPrice:  ptr(last),
		MarketCap:     meta.MarketCap,
		PERatio:       meta.PERatio,
		DividendYield: meta.DividendYield,
		Week52High:    ptr(high),
		Week52Low:     ptr(low),
	}, nil
}

// trailingRange fetches the last 52 weeks from the source and returns the
// highest high, lowest low and latest close, rounded to cents.
func (s *stockService) trailingRange(ctx context.Context, sym string) (high, low, last float64, err error) {
	end := s.today()
	bars, err := s.source.FetchSeries(ctx, sym, end, pulse.WindowDays)
	if err != nil {
		return 0, 0, 0, err
	}
	from := end.AddDate(0, 0, -pulse.WindowDays)

	var seen bool
	for _, b := range bars {
		d := calendar.TruncateToDate(b.Date)
		if !d.After(from) || d.After(end) {
			continue
		}
		if !seen {
			high, low, seen = b.High, b.Low, true
		}
		high, low, last = max(high, b.High), min(low, b.Low), b.Close
	}
	if !seen {
		return 0, 0, 0, fmt.Errorf("%s: %w", sym, ErrNoHistory)
	}
	return round2(high), round2(low), round2(last), nil
}

func (s *stockService) UpdateHistory(ctx context.Context, symbols []string, days int) (*ingestion.Report, error) {
	if len(symbols) == 0 {
		return nil, ErrSymbolRequired
	}
	if days <= 0 {
		days = s.cfg.BackfillDays
	}
	return s.updater.Run(ctx, symbols, ingestion.Options{
		Days:     days,
		Parallel: s.cfg.Parallel,
		End:      calendar.LastTradingDay(s.today()),
	})
}

// AddStocks registers symbols with the provider's metadata so that later
// aggregations include them in the default universe.
//
// Behavior:
//   - Symbols are upper-cased and de-duplicated; blanks are ignored.
//   - Metadata is fetched from the source one symbol at a time. A symbol
//     without a company name is stored under its ticker.
//   - Symbols that already carry metadata are reported as Existing and left
//     untouched.
//   - Provider and store failures are recorded per symbol and never abort
//     the call.
//
// Returns:
//   - *AddReport: the per-symbol outcome.
//   - error: ErrSymbolRequired when no usable symbol was given, or the
//     context error when ctx ends mid-way.
func (s *stockService) AddStocks(ctx context.Context, symbols []string) (*AddReport, error) {
	seen := make(map[string]struct{}, len(symbols))
	var unique []string
	for _, raw := range symbols {
		sym, err := normalizeSymbol(raw)
		if err != nil {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		unique = append(unique, sym)
	}
	if len(unique) == 0 {
		return nil, ErrSymbolRequired
	}

	rep := &AddReport{Added: []string{}, Existing: []string{}, Errors: []*pulse.SymbolError{}}
	for _, sym := range unique {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta, err := s.source.FetchMetadata(ctx, sym)
		if err != nil {
			rep.Errors = append(rep.Errors, pulse.NewSymbolError(sym, err))
			continue
		}
		m := *meta
		m.Symbol = sym
		if m.CompanyName == "" {
			m.CompanyName = sym
		}
		added, err := s.reader.InsertMetadataIfAbsent(ctx, m)
		if err != nil {
			rep.Errors = append(rep.Errors, pulse.NewSymbolError(sym, fmt.Errorf("store metadata: %w: %v", pulse.ErrStoreWrite, err)))
			continue
		}
		if added {
			rep.Added = append(rep.Added, sym)
		} else {
			rep.Existing = append(rep.Existing, sym)
		}
	}
	logger.Named("stock").Info().Int("added", len(rep.Added)).Int("existing", len(rep.Existing)).Int("errors", len(rep.Errors)).Msg("stocks registered")
	return rep, nil
}

// IsNotFound reports whether err means the symbol or its data does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, marketdata.ErrSymbolNotFound) || errors.Is(err, ErrNoHistory)
}

// IsInvalid reports whether err is a request validation error.
func IsInvalid(err error) bool {
	for _, target := range []error{ErrSymbolRequired, ErrInvalidPeriod, ErrInvalidRange, ErrInvalidDates, ErrNotTradingDay, ErrFutureDate} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func ptr[T any](v T) *T { return &v }
