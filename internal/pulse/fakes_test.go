package pulse

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/guttosm/marketpulse/internal/domain/models"
	"github.com/guttosm/marketpulse/internal/marketdata"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// fakeSource serves fixed bars per symbol. Symbols listed in errs fail with
// the given error; symbols in slow block until the context is done.
type fakeSource struct {
	mu    sync.Mutex
	bars  map[string][]models.Bar
	errs  map[string]error
	slow  map[string]bool
	calls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		bars: map[string][]models.Bar{},
		errs: map[string]error{},
		slow: map[string]bool{},
	}
}

// addClose appends a flat bar (open=high=low=close) for symbol on date.
func (f *fakeSource) addClose(symbol string, date time.Time, price float64) {
	f.bar(symbol, date, price, price, price)
}

func (f *fakeSource) bar(symbol string, date time.Time, high, low, c float64) {
	f.bars[symbol] = append(f.bars[symbol], models.Bar{Date: date, Open: c, High: high, Low: low, Close: c})
	sort.Slice(f.bars[symbol], func(i, j int) bool { return f.bars[symbol][i].Date.Before(f.bars[symbol][j].Date) })
}

func (f *fakeSource) FetchSeries(ctx context.Context, symbol string, end time.Time, lookbackDays int) ([]models.Bar, error) {
	f.mu.Lock()
	f.calls++
	slow := f.slow[symbol]
	err := f.errs[symbol]
	f.mu.Unlock()

	if slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, marketdata.ErrSymbolNotFound
	}
	from := end.AddDate(0, 0, -lookbackDays)
	var out []models.Bar
	for _, b := range bars {
		if !b.Date.Before(from) && !b.Date.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeSource) FetchMetadata(ctx context.Context, symbol string) (*models.SymbolMetadata, error) {
	return &models.SymbolMetadata{Symbol: symbol}, nil
}

// memStore is an in-memory Store.
type memStore struct {
	mu         sync.Mutex
	quotes     map[string]map[time.Time]models.Quote
	breadth    map[time.Time]models.DailyBreadth
	upsertErr  map[string]error
	prevErr    map[string]error
	breadthErr error
	lockErr    error
	lockHeld   bool
	lockCalls  int
	releases   int
}

func newMemStore() *memStore {
	return &memStore{
		quotes:    map[string]map[time.Time]models.Quote{},
		breadth:   map[time.Time]models.DailyBreadth{},
		upsertErr: map[string]error{},
		prevErr:   map[string]error{},
	}
}

func (s *memStore) UpsertQuote(ctx context.Context, q models.Quote) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upsertErr[q.Symbol]; err != nil {
		return false, err
	}
	m, ok := s.quotes[q.Symbol]
	if !ok {
		m = map[time.Time]models.Quote{}
		s.quotes[q.Symbol] = m
	}
	if _, exists := m[q.TradingDate]; exists {
		return false, nil
	}
	m[q.TradingDate] = q
	return true, nil
}

func (s *memStore) FindPreviousQuote(ctx context.Context, symbol string, before time.Time) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.prevErr[symbol]; err != nil {
		return nil, err
	}
	var best *models.Quote
	for dt, q := range s.quotes[symbol] {
		if !dt.Before(before) {
			continue
		}
		if best == nil || dt.After(best.TradingDate) {
			q := q
			best = &q
		}
	}
	return best, nil
}

func (s *memStore) UpsertBreadth(ctx context.Context, b models.DailyBreadth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.breadthErr != nil {
		return s.breadthErr
	}
	s.breadth[b.TradingDate] = b
	return nil
}

func (s *memStore) AcquireWriterLock(ctx context.Context) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockCalls++
	if s.lockErr != nil {
		return nil, s.lockErr
	}
	if s.lockHeld {
		return nil, errors.New("writer lock already held")
	}
	s.lockHeld = true
	return func() {
		s.mu.Lock()
		s.lockHeld = false
		s.releases++
		s.mu.Unlock()
	}, nil
}

func isWeekday(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

func (s *memStore) CountWeekdayBreadthRows(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for dt := range s.breadth {
		if isWeekday(dt) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteOldestWeekdayBreadthRow(ctx context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest *time.Time
	for dt := range s.breadth {
		if !isWeekday(dt) {
			continue
		}
		if oldest == nil || dt.Before(*oldest) {
			dt := dt
			oldest = &dt
		}
	}
	if oldest != nil {
		delete(s.breadth, *oldest)
	}
	return oldest, nil
}

func (s *memStore) weekdayDates() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	for dt := range s.breadth {
		if isWeekday(dt) {
			out = append(out, dt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
