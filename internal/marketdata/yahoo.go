package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/guttosm/marketpulse/internal/domain/models"
)

const (
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	chartPath           = "/v8/finance/chart/{symbol}"
	userAgent           = "Mozilla/5.0 (compatible; marketpulse/1.0)"
)

// YahooConfig configures the Yahoo chart client.
type YahooConfig struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
}

// YahooSource reads daily bars and display names from the Yahoo Finance chart API.
type YahooSource struct {
	client *resty.Client
}

// NewYahooSource builds a resty client with retries on transport errors,
// 429 and 5xx responses.
func NewYahooSource(cfg YahooConfig) *YahooSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetRetryCount(cfg.Retries)
	client.SetRetryWaitTime(cfg.RetryWait)
	client.SetHeader("User-Agent", userAgent)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
		return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
	})

	return &YahooSource{client: client}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		LongName  string `json:"longName"`
		ShortName string `json:"shortName"`
		GMTOffset int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open  []*float64 `json:"open"`
			High  []*float64 `json:"high"`
			Low   []*float64 `json:"low"`
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (s *YahooSource) chart(ctx context.Context, symbol string, params map[string]string) (*chartResult, error) {
	var ok, failed chartResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(params).
		SetResult(&ok).
		SetError(&failed).
		Get(chartPath)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w: %w", symbol, ErrSourceUnavailable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrSymbolNotFound)
	case resp.IsError():
		return nil, fmt.Errorf("yahoo chart %s: status %d: %w", symbol, resp.StatusCode(), ErrSourceUnavailable)
	}
	if e := ok.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo chart %s: %s: %w", symbol, e.Description, ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("yahoo chart %s: %s: %w", symbol, e.Description, ErrSourceUnavailable)
	}
	if len(ok.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: empty result: %w", symbol, ErrSymbolNotFound)
	}
	return &ok.Chart.Result[0], nil
}

// FetchSeries implements Source.
func (s *YahooSource) FetchSeries(ctx context.Context, symbol string, end time.Time, lookbackDays int) ([]models.Bar, error) {
	from := windowStart(end, lookbackDays)
	to := dateOnly(end)
	res, err := s.chart(ctx, symbol, map[string]string{
		"period1":  strconv.FormatInt(from.Unix(), 10),
		"period2":  strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10),
		"interval": "1d",
		"events":   "history",
	})
	if err != nil {
		return nil, err
	}
	return clip(res.bars(), from, to), nil
}

// FetchMetadata implements Source. The chart API exposes the display name only.
func (s *YahooSource) FetchMetadata(ctx context.Context, symbol string) (*models.SymbolMetadata, error) {
	res, err := s.chart(ctx, symbol, map[string]string{"range": "5d", "interval": "1d"})
	if err != nil {
		return nil, err
	}
	name := res.Meta.LongName
	if name == "" {
		name = res.Meta.ShortName
	}
	return &models.SymbolMetadata{Symbol: symbol, CompanyName: name}, nil
}

// bars converts the columnar chart payload into rows, dating each bar in the
// exchange's local calendar and skipping rows with missing prices.
func (r *chartResult) bars() []models.Bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	offset := time.Duration(r.Meta.GMTOffset) * time.Second

	out := make([]models.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || i >= len(q.High) || i >= len(q.Low) {
			break
		}
		if q.Close[i] == nil || q.High[i] == nil || q.Low[i] == nil {
			continue
		}
		open := *q.Close[i]
		if i < len(q.Open) && q.Open[i] != nil {
			open = *q.Open[i]
		}
		out = append(out, models.Bar{
			Date:  dateOnly(time.Unix(ts, 0).UTC().Add(offset)),
			Open:  open,
			High:  *q.High[i],
			Low:   *q.Low[i],
			Close: *q.Close[i],
		})
	}
	return out
}
