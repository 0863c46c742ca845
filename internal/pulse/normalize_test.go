package pulse

import (
	"errors"
	"testing"
	"time"

	"github.com/guttosm/marketpulse/internal/domain/models"
)

func TestNormalize_RollingWindow(t *testing.T) {
	target := d(2025, 9, 12)
	bars := []models.Bar{
		{Date: target.AddDate(0, 0, -365), High: 500, Low: 1, Close: 10}, // just outside the window
		{Date: target.AddDate(0, 0, -364), High: 130, Low: 80, Close: 100},
		{Date: target.AddDate(0, 0, -30), High: 140, Low: 90, Close: 120},
		{Date: target.AddDate(0, 0, -1), High: 125, Low: 110, Close: 115},
		{Date: target, High: 121, Low: 112, Close: 118},
		{Date: target.AddDate(0, 0, 1), High: 999, Low: 0.5, Close: 300}, // after target
	}

	q, err := Normalize("AAPL", bars, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.Quote{Symbol: "AAPL", TradingDate: target, ClosingPrice: 118, High52Week: 140, Low52Week: 80}
	if q != want {
		t.Fatalf("got %+v want %+v", q, want)
	}
}

func TestNormalize_ShortHistoryUsesAllBars(t *testing.T) {
	target := d(2025, 9, 12)
	bars := []models.Bar{
		{Date: target.AddDate(0, 0, -2), High: 12, Low: 9, Close: 10},
		{Date: target, High: 11, Low: 10, Close: 10.5},
	}
	q, err := Normalize("NEW", bars, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.High52Week != 12 || q.Low52Week != 9 {
		t.Fatalf("got high=%v low=%v", q.High52Week, q.Low52Week)
	}

	single, err := Normalize("NEW", bars[1:], target)
	if err != nil {
		t.Fatalf("single bar: %v", err)
	}
	if single.High52Week != 11 || single.Low52Week != 10 {
		t.Fatalf("single bar range: %+v", single)
	}
}

func TestNormalize_TargetIgnoresTimeOfDay(t *testing.T) {
	target := time.Date(2025, 9, 12, 21, 30, 0, 0, time.UTC)
	bars := []models.Bar{{Date: d(2025, 9, 12), High: 2, Low: 1, Close: 1.5}}
	q, err := Normalize("X", bars, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.TradingDate.Equal(d(2025, 9, 12)) {
		t.Fatalf("trading date not truncated: %v", q.TradingDate)
	}
}

func TestNormalize_Errors(t *testing.T) {
	target := d(2025, 9, 12)
	cases := []struct {
		name string
		bars []models.Bar
		want error
	}{
		{"empty", nil, ErrDataUnavailable},
		{"no bar on target", []models.Bar{{Date: target.AddDate(0, 0, -1), High: 2, Low: 1, Close: 1}}, ErrDataUnavailable},
		{"only future bars", []models.Bar{{Date: target.AddDate(0, 0, 1), High: 2, Low: 1, Close: 1}}, ErrDataUnavailable},
		{"high below low", []models.Bar{
			{Date: target.AddDate(0, 0, -3), High: 1, Low: 2, Close: 1.5},
			{Date: target, High: 2, Low: 1, Close: 1},
		}, ErrDataIntegrity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize("X", tc.bars, target)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNormalize_IntegrityOutsideWindowIgnored(t *testing.T) {
	target := d(2025, 9, 12)
	bars := []models.Bar{
		{Date: target.AddDate(-2, 0, 0), High: 1, Low: 5, Close: 3},
		{Date: target, High: 2, Low: 1, Close: 1.5},
	}
	if _, err := Normalize("X", bars, target); err != nil {
		t.Fatalf("bad bar outside the window must be ignored: %v", err)
	}
}

func TestRollingQuotes(t *testing.T) {
	bars := []models.Bar{
		{Date: d(2024, 1, 2), High: 50, Low: 40, Close: 45},
		{Date: d(2024, 6, 3), High: 60, Low: 55, Close: 58},
		{Date: d(2025, 1, 2), High: 52, Low: 48, Close: 50},
		{Date: d(2025, 1, 3), High: 53, Low: 49, Close: 51},
		{Date: d(2025, 1, 3), High: 54, Low: 49, Close: 52}, // duplicate date, later wins
	}
	qs, err := RollingQuotes("ABC", bars, d(2025, 1, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("want 2 quotes, got %d", len(qs))
	}
	// 2024-01-02 is 366 days before 2025-01-02 (leap year), so it is outside the window.
	if qs[0].High52Week != 60 || qs[0].Low52Week != 48 {
		t.Fatalf("first quote range: %+v", qs[0])
	}
	if qs[1].ClosingPrice != 52 || qs[1].High52Week != 60 || qs[1].Low52Week != 48 {
		t.Fatalf("second quote: %+v", qs[1])
	}

	for _, q := range qs {
		single, err := Normalize("ABC", bars[:4], q.TradingDate)
		if err != nil {
			t.Fatalf("normalize %s: %v", q.TradingDate, err)
		}
		if q.TradingDate.Equal(d(2025, 1, 2)) && single != q {
			t.Fatalf("rolling quote disagrees with Normalize: %+v vs %+v", q, single)
		}
	}
}

func TestRollingQuotes_Integrity(t *testing.T) {
	bars := []models.Bar{{Date: d(2025, 1, 2), High: 1, Low: 2, Close: 1}}
	if _, err := RollingQuotes("X", bars, d(2025, 1, 1)); !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("want ErrDataIntegrity, got %v", err)
	}
}

func TestNormalize_RoundsToStoredScale(t *testing.T) {
	target := d(2025, 9, 12)
	bars := []models.Bar{
		{Date: target.AddDate(0, 0, -1), High: 180.12345678, Low: 170.00004999, Close: 172.52999877929688},
		{Date: target, High: 172.52999877929688, Low: 172.52999877929688, Close: 172.52999877929688},
	}
	q, err := Normalize("AAPL", bars, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ClosingPrice != 172.53 || q.High52Week != 180.1235 || q.Low52Week != 170 {
		t.Fatalf("prices not rounded to %d decimals: %+v", PriceScale, q)
	}

	qs, err := RollingQuotes("AAPL", bars, target)
	if err != nil {
		t.Fatalf("rolling: %v", err)
	}
	if len(qs) != 1 || qs[0] != q {
		t.Fatalf("rolling quote %+v differs from normalized %+v", qs, q)
	}
}

func TestStoredPrice(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{172.52999877929688, 172.53},
		{10.00005, 10.0001},
		{99.99994, 99.9999},
		{118, 118},
	}
	for _, c := range cases {
		if got := StoredPrice(c.in); got != c.want {
			t.Fatalf("StoredPrice(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
