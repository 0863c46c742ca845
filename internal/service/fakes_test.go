package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guttosm/marketpulse/internal/cache"
	"github.com/guttosm/marketpulse/internal/domain/models"
	"github.com/guttosm/marketpulse/internal/ingestion"
	"github.com/guttosm/marketpulse/internal/marketdata"
	"github.com/guttosm/marketpulse/internal/pulse"
)

func d(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }

// fixedClock returns a clock frozen at t, advanced by moving *t.
func fixedClock(t *time.Time) cache.Clock {
	return cache.ClockFunc(func() time.Time { return *t })
}

type stubRunner struct {
	gotDate    time.Time
	gotSymbols []string
	gotFrom    time.Time
	gotTo      time.Time
	report     *pulse.RunReport
	err        error
}

func (s *stubRunner) Run(_ context.Context, date time.Time, symbols []string) (*pulse.RunReport, error) {
	s.gotDate, s.gotSymbols = date, symbols
	if s.err != nil {
		return nil, s.err
	}
	if s.report != nil {
		return s.report, nil
	}
	return &pulse.RunReport{TradingDate: date, UniverseSize: len(symbols)}, nil
}

func (s *stubRunner) RunRange(_ context.Context, from, to time.Time, symbols []string) ([]*pulse.RunReport, error) {
	s.gotFrom, s.gotTo, s.gotSymbols = from, to, symbols
	return []*pulse.RunReport{{TradingDate: from}}, s.err
}

type stubBreadth struct {
	rows     []models.DailyBreadth
	err      error
	gotStart *time.Time
	gotEnd   *time.Time
}

func (s *stubBreadth) FindBreadthInRange(_ context.Context, start, end *time.Time) ([]models.DailyBreadth, error) {
	s.gotStart, s.gotEnd = start, end
	return s.rows, s.err
}

type stubQuotes struct {
	mu        sync.Mutex
	quotes    []models.Quote
	meta      *models.SymbolMetadata
	err       error
	metaErr   error
	calls     int
	gotStart  *time.Time
	stored    map[string]models.SymbolMetadata
	insertErr error
}

func (s *stubQuotes) FindQuotesInRange(_ context.Context, _ string, start, _ *time.Time) ([]models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.gotStart = start
	return s.quotes, s.err
}

func (s *stubQuotes) GetMetadata(context.Context, string) (*models.SymbolMetadata, error) {
	return s.meta, s.metaErr
}

func (s *stubQuotes) InsertMetadataIfAbsent(_ context.Context, m models.SymbolMetadata) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return false, s.insertErr
	}
	if s.stored == nil {
		s.stored = map[string]models.SymbolMetadata{}
	}
	if _, ok := s.stored[m.Symbol]; ok {
		return false, nil
	}
	s.stored[m.Symbol] = m
	return true, nil
}

type stubLister struct {
	symbols []string
	err     error
}

func (s stubLister) ListTrackedSymbols(context.Context) ([]string, error) { return s.symbols, s.err }

// metaSource serves metadata only for the symbols it knows.
type metaSource struct {
	known map[string]models.SymbolMetadata
}

func (metaSource) FetchSeries(context.Context, string, time.Time, int) ([]models.Bar, error) {
	return nil, nil
}

func (s metaSource) FetchMetadata(_ context.Context, symbol string) (*models.SymbolMetadata, error) {
	m, ok := s.known[symbol]
	if !ok {
		return nil, fmt.Errorf("stub %s: %w", symbol, marketdata.ErrSymbolNotFound)
	}
	return &m, nil
}

type stubSource struct {
	bars []models.Bar
	meta *models.SymbolMetadata
	err  error
}

func (s *stubSource) FetchSeries(_ context.Context, symbol string, _ time.Time, _ int) ([]models.Bar, error) {
	if s.err != nil {
		return nil, fmt.Errorf("stub %s: %w", symbol, s.err)
	}
	return s.bars, nil
}

func (s *stubSource) FetchMetadata(_ context.Context, symbol string) (*models.SymbolMetadata, error) {
	if s.err != nil {
		return nil, fmt.Errorf("stub %s: %w", symbol, s.err)
	}
	if s.meta == nil {
		return nil, fmt.Errorf("stub %s: %w", symbol, marketdata.ErrSymbolNotFound)
	}
	m := *s.meta
	return &m, nil
}

type stubUpdater struct {
	gotSymbols []string
	gotOpts    ingestion.Options
}

func (s *stubUpdater) Run(_ context.Context, symbols []string, opts ingestion.Options) (*ingestion.Report, error) {
	s.gotSymbols, s.gotOpts = symbols, opts
	return &ingestion.Report{Symbols: len(symbols)}, nil
}
