package pulse

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/marketpulse/internal/calendar"
	"github.com/guttosm/marketpulse/internal/domain/models"
)

// WindowDays is the calendar length of the rolling 52-week window, target date inclusive.
const WindowDays = 365

// PriceScale is the number of decimals daily_quotes keeps for every price column.
// Quotes are rounded to it before they are stored or classified.
const PriceScale = 4

// StoredPrice rounds v half away from zero to PriceScale decimals.
func StoredPrice(v float64) float64 {
	return decimal.NewFromFloat(v).Round(PriceScale).InexactFloat64()
}

// Normalize builds the Quote for symbol on date from an ascending bar series.
//
// The rolling high/low are max(High)/min(Low) over bars dated in
// (date - 365 days, date]. Bars after date are ignored. With less than a
// year of history the window is whatever is available. All three prices are
// rounded to PriceScale.
//
// Parameters:
//   - symbol: ticker the quote is built for; only used in errors and the result.
//   - bars: ascending daily bars from a marketdata.Source.
//   - date: target trading day; the time of day is ignored.
//
// Returns:
//   - ErrDataUnavailable when bars is empty or has no bar dated exactly date.
//   - ErrDataIntegrity when a bar inside the window has High < Low.
func Normalize(symbol string, bars []models.Bar, date time.Time) (models.Quote, error) {
	target := calendar.TruncateToDate(date)
	if len(bars) == 0 {
		return models.Quote{}, fmt.Errorf("%s: empty series: %w", symbol, ErrDataUnavailable)
	}

	from := target.AddDate(0, 0, -WindowDays)
	var (
		current *models.Bar
		high    float64
		low     float64
		seen    bool
	)
	for i := range bars {
		b := &bars[i]
		d := calendar.TruncateToDate(b.Date)
		if !d.After(from) || d.After(target) {
			continue
		}
		if b.High < b.Low {
			return models.Quote{}, fmt.Errorf("%s: bar %s high %.4f below low %.4f: %w",
				symbol, d.Format(time.DateOnly), b.High, b.Low, ErrDataIntegrity)
		}
		if !seen || b.High > high {
			high = b.High
		}
		if !seen || b.Low < low {
			low = b.Low
		}
		seen = true
		if d.Equal(target) {
			current = b
		}
	}
	if current == nil {
		return models.Quote{}, fmt.Errorf("%s: no bar for %s: %w", symbol, target.Format(time.DateOnly), ErrDataUnavailable)
	}

	return models.Quote{
		Symbol:       symbol,
		TradingDate:  target,
		ClosingPrice: StoredPrice(current.Close),
		High52Week:   StoredPrice(high),
		Low52Week:    StoredPrice(low),
	}, nil
}

// RollingQuotes produces one Quote per bar dated on or after from, each carrying
// the rolling 52-week high/low as of its own date. Used when seeding history.
// A later bar replaces an earlier one carrying the same date. Prices are
// rounded to PriceScale, like Normalize.
func RollingQuotes(symbol string, bars []models.Bar, from time.Time) ([]models.Quote, error) {
	start := calendar.TruncateToDate(from)
	bars = dedupe(bars)

	out := make([]models.Quote, 0, len(bars))
	lo := 0
	for i := range bars {
		d := calendar.TruncateToDate(bars[i].Date)
		if bars[i].High < bars[i].Low {
			return nil, fmt.Errorf("%s: bar %s high %.4f below low %.4f: %w",
				symbol, d.Format(time.DateOnly), bars[i].High, bars[i].Low, ErrDataIntegrity)
		}
		windowFrom := d.AddDate(0, 0, -WindowDays)
		for !calendar.TruncateToDate(bars[lo].Date).After(windowFrom) {
			lo++
		}
		if d.Before(start) {
			continue
		}
		high, low := bars[lo].High, bars[lo].Low
		for _, b := range bars[lo+1 : i+1] {
			high = max(high, b.High)
			low = min(low, b.Low)
		}
		out = append(out, models.Quote{
			Symbol:       symbol,
			TradingDate:  d,
			ClosingPrice: StoredPrice(bars[i].Close),
			High52Week:   StoredPrice(high),
			Low52Week:    StoredPrice(low),
		})
	}
	return out, nil
}

func dedupe(bars []models.Bar) []models.Bar {
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if n := len(out); n > 0 && calendar.TruncateToDate(out[n-1].Date).Equal(calendar.TruncateToDate(b.Date)) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
