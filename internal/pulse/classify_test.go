package pulse

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/guttosm/marketpulse/internal/domain/models"
	"github.com/guttosm/marketpulse/internal/marketdata"
)

func TestClassifyMovement(t *testing.T) {
	prev := &models.Quote{Symbol: "X", TradingDate: d(2025, 9, 11), ClosingPrice: 100, High52Week: 115, Low52Week: 90}

	cases := []struct {
		name  string
		close float64
		want  models.MovementResult
	}{
		{"advanced", 105, models.MovementResult{Symbol: "X", HasPrevious: true, Advanced: true}},
		{"declined", 95, models.MovementResult{Symbol: "X", HasPrevious: true, Declined: true}},
		{"unchanged", 100, models.MovementResult{Symbol: "X", HasPrevious: true, Unchanged: true}},
		{"new high", 120, models.MovementResult{Symbol: "X", HasPrevious: true, Advanced: true, NewHigh: true}},
		{"equal to high is not new", 115, models.MovementResult{Symbol: "X", HasPrevious: true, Advanced: true}},
		{"new low", 80, models.MovementResult{Symbol: "X", HasPrevious: true, Declined: true, NewLow: true}},
		{"equal to low is not new", 90, models.MovementResult{Symbol: "X", HasPrevious: true, Declined: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cur := models.Quote{Symbol: "X", TradingDate: d(2025, 9, 12), ClosingPrice: tc.close}
			got, err := ClassifyMovement(cur, prev)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestClassifyMovement_WarmUp(t *testing.T) {
	got, err := ClassifyMovement(models.Quote{Symbol: "NEW", ClosingPrice: 10}, nil)
	if err != nil {
		t.Fatalf("warm-up must not be an error: %v", err)
	}
	if got != (models.MovementResult{Symbol: "NEW"}) {
		t.Fatalf("warm-up result must have every flag false: %+v", got)
	}

	var tl tally
	tl.add(got)
	if tl != (tally{}) {
		t.Fatalf("warm-up must not contribute to tallies: %+v", tl)
	}
}

func TestClassifyMovement_InvertedPreviousRange(t *testing.T) {
	prev := &models.Quote{Symbol: "X", ClosingPrice: 100, High52Week: 90, Low52Week: 110}
	_, err := ClassifyMovement(models.Quote{Symbol: "X", ClosingPrice: 100}, prev)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("want ErrDataIntegrity, got %v", err)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{ErrDataUnavailable, KindDataUnavailable},
		{ErrDataIntegrity, KindDataIntegrity},
		{ErrStoreWrite, KindStoreWrite},
		{fmt.Errorf("find previous quote: %w: timeout", ErrStoreRead), KindStoreRead},
		{fmt.Errorf("fetch: %w", context.Canceled), KindDataUnavailable},
		{ErrSourceUnavailable, KindSourceUnavailable},
		{fmt.Errorf("wrapped: %w", marketdata.ErrSymbolNotFound), KindDataUnavailable},
		{context.DeadlineExceeded, KindDataUnavailable},
		{errors.New("anything else"), KindSourceUnavailable},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
