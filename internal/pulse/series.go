package pulse

import (
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/marketpulse/internal/domain/models"
)

// Granularity selects how breadth rows are grouped before transformation.
type Granularity string

const (
	Daily  Granularity = "daily"
	Weekly Granularity = "weekly"
)

// ParseGranularity accepts "daily" or "weekly"; empty means daily.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "", Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// Series turns ascending DailyBreadth rows into presentation points in one
// forward pass. Points are produced lazily as the sequence is ranged over.
//
//   - CumulativeADLine is the running sum of Advanced - Declined.
//   - Rates of change are 0 for the first row and whenever the previous value is 0.
//   - Acceleration is 0 for the first two rows, then
//     (newHighs - prevNewHighs) - previousDiff.
//   - Rates and acceleration are rounded to 2 decimals.
func Series(rows []models.DailyBreadth) iter.Seq[models.BreadthSeriesPoint] {
	return func(yield func(models.BreadthSeriesPoint) bool) {
		var (
			cumulative int
			prev       models.DailyBreadth
			prevDiff   int
		)
		for i, r := range rows {
			cumulative += r.Advanced - r.Declined

			p := models.BreadthSeriesPoint{
				Date:             r.TradingDate,
				NewHighs:         r.NewHighs,
				NewLows:          r.NewLows,
				Advanced:         r.Advanced,
				Declined:         r.Declined,
				Unchanged:        r.Unchanged,
				ADSpread:         r.ADSpread,
				CumulativeADLine: cumulative,
			}
			if i > 0 {
				p.NewHighRateOfChange = rateOfChange(r.NewHighs, prev.NewHighs)
				p.NewLowRateOfChange = rateOfChange(r.NewLows, prev.NewLows)

				diff := r.NewHighs - prev.NewHighs
				if i > 1 {
					p.Acceleration = round2(float64(diff - prevDiff))
				}
				prevDiff = diff
			}
			prev = r

			if !yield(p) {
				return
			}
		}
	}
}

func rateOfChange(cur, prev int) float64 {
	if prev == 0 {
		return 0
	}
	return round2(float64(cur-prev) / float64(prev) * 100)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Resample groups ascending rows by granularity. Daily returns rows unchanged.
// Weekly sums the counts of each ISO week into one row dated at the week's
// last row; ADSpread is recomputed from the summed counts.
func Resample(rows []models.DailyBreadth, g Granularity) []models.DailyBreadth {
	if g != Weekly || len(rows) == 0 {
		return rows
	}

	out := make([]models.DailyBreadth, 0, len(rows)/5+1)
	var (
		cur     models.DailyBreadth
		curYear int
		curWeek int
		open    bool
	)
	flush := func() {
		if open {
			out = append(out, models.NewDailyBreadth(cur.TradingDate, cur.NewHighs, cur.NewLows, cur.Advanced, cur.Declined, cur.Unchanged))
		}
	}
	for _, r := range rows {
		y, w := r.TradingDate.ISOWeek()
		if !open || y != curYear || w != curWeek {
			flush()
			cur = models.DailyBreadth{}
			curYear, curWeek, open = y, w, true
		}
		cur.TradingDate = r.TradingDate
		cur.NewHighs += r.NewHighs
		cur.NewLows += r.NewLows
		cur.Advanced += r.Advanced
		cur.Declined += r.Declined
		cur.Unchanged += r.Unchanged
	}
	flush()
	return out
}

// Summary holds the latest point of a series and its change versus the previous one.
//
// swagger:model BreadthSummary
type Summary struct {
	AsOf             *time.Time `json:"as_of,omitempty" example:"2025-09-12T00:00:00Z"`
	Points           int        `json:"points" example:"252"`
	NewHighs         int        `json:"new_highs" example:"42"`
	NewHighsChange   int        `json:"new_highs_change" example:"5"`
	NewLows          int        `json:"new_lows" example:"17"`
	NewLowsChange    int        `json:"new_lows_change" example:"-3"`
	ADSpread         int        `json:"ad_spread" example:"130"`
	ADSpreadChange   int        `json:"ad_spread_change" example:"40"`
	CumulativeADLine int        `json:"cumulative_ad_line" example:"1290"`
	Acceleration     float64    `json:"acceleration" example:"-5"`
}

// Summarize reduces a series to its latest values.
//
// Parameters:
//   - points ([]models.BreadthSeriesPoint): The series in ascending date order.
//
// Returns:
//   - Summary: the last point's values and their change from the point before.
//     Changes are 0 when there is only one point, and the zero Summary is
//     returned for an empty series.
func Summarize(points []models.BreadthSeriesPoint) Summary {
	s := Summary{Points: len(points)}
	if len(points) == 0 {
		return s
	}
	last := points[len(points)-1]
	asOf := last.Date
	s.AsOf = &asOf
	s.NewHighs = last.NewHighs
	s.NewLows = last.NewLows
	s.ADSpread = last.ADSpread
	s.CumulativeADLine = last.CumulativeADLine
	s.Acceleration = last.Acceleration
	if len(points) > 1 {
		prev := points[len(points)-2]
		s.NewHighsChange = last.NewHighs - prev.NewHighs
		s.NewLowsChange = last.NewLows - prev.NewLows
		s.ADSpreadChange = last.ADSpread - prev.ADSpread
	}
	return s
}
