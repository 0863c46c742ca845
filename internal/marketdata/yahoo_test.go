package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fptr(v float64) *float64 { return &v }

func chartPayload(t *testing.T, name string, stamps []time.Time, closes []*float64) []byte {
	t.Helper()
	ts := make([]int64, len(stamps))
	for i, s := range stamps {
		ts[i] = s.Unix()
	}
	highs := make([]*float64, len(closes))
	lows := make([]*float64, len(closes))
	for i, c := range closes {
		if c != nil {
			highs[i] = fptr(*c + 1)
			lows[i] = fptr(*c - 1)
		}
	}
	body := map[string]any{
		"chart": map[string]any{
			"result": []any{map[string]any{
				"meta":      map[string]any{"symbol": "AAPL", "longName": name, "shortName": "Apple", "gmtoffset": -14400},
				"timestamp": ts,
				"indicators": map[string]any{"quote": []any{map[string]any{
					"open": closes, "high": highs, "low": lows, "close": closes,
				}}},
			}},
			"error": nil,
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func newYahooServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	open := func(d int) time.Time { return time.Date(2025, 9, d, 13, 30, 0, 0, time.UTC) }

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/AAPL"):
			if r.URL.Query().Get("interval") != "1d" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(chartPayload(t, "Apple Inc.",
				[]time.Time{open(10), open(11), open(12)},
				[]*float64{fptr(226.8), nil, fptr(229.43)}))
		case strings.HasSuffix(r.URL.Path, "/NOPE"):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
}

func TestYahooSource_FetchSeries(t *testing.T) {
	var hits int32
	srv := newYahooServer(t, &hits)
	defer srv.Close()

	src := NewYahooSource(YahooConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	bars, err := src.FetchSeries(context.Background(), "AAPL", day(2025, 9, 12), 30)
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("null rows must be skipped, got %d bars", len(bars))
	}
	if !bars[0].Date.Equal(day(2025, 9, 10)) || !bars[1].Date.Equal(day(2025, 9, 12)) {
		t.Fatalf("bars not dated in exchange calendar: %v %v", bars[0].Date, bars[1].Date)
	}
	if bars[1].Close != 229.43 || bars[1].High <= bars[1].Close || bars[1].Low >= bars[1].Close {
		t.Fatalf("unexpected bar %+v", bars[1])
	}
}

func TestYahooSource_FetchMetadata(t *testing.T) {
	var hits int32
	srv := newYahooServer(t, &hits)
	defer srv.Close()

	src := NewYahooSource(YahooConfig{BaseURL: srv.URL})
	m, err := src.FetchMetadata(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchMetadata: %v", err)
	}
	if m.Symbol != "AAPL" || m.CompanyName != "Apple Inc." || m.Sector != "" || m.MarketCap != nil {
		t.Fatalf("unexpected metadata %+v", m)
	}
}

func TestYahooSource_Errors(t *testing.T) {
	var hits int32
	srv := newYahooServer(t, &hits)
	defer srv.Close()

	src := NewYahooSource(YahooConfig{BaseURL: srv.URL, Retries: 1, RetryWait: time.Millisecond})

	if _, err := src.FetchSeries(context.Background(), "NOPE", day(2025, 9, 12), 30); !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("want ErrSymbolNotFound, got %v", err)
	}

	atomic.StoreInt32(&hits, 0)
	if _, err := src.FetchSeries(context.Background(), "DOWN", day(2025, 9, 12), 30); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("want ErrSourceUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("5xx should be retried once, server saw %d requests", got)
	}
}

func TestYahooSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	src := NewYahooSource(YahooConfig{BaseURL: url, Timeout: time.Second})
	if _, err := src.FetchMetadata(context.Background(), "AAPL"); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("want ErrSourceUnavailable, got %v", err)
	}
}
