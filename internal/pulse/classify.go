package pulse

import (
	"fmt"

	"github.com/guttosm/marketpulse/internal/domain/models"
)

// ClassifyMovement compares today's quote against the most recent stored quote
// strictly before it.
//
// Parameters:
//   - current (models.Quote): The quote being classified.
//   - previous (*models.Quote): The prior stored quote, or nil on a symbol's
//     first day.
//
// Behavior:
//   - A nil previous yields a warm-up result (HasPrevious false, every flag
//     false) which contributes to no tally.
//   - Exactly one of Advanced, Declined or Unchanged is set otherwise.
//   - New highs and lows are measured against the previous day's rolling
//     range, so a close equal to the prior high is not a new high.
//
// Returns:
//   - models.MovementResult: the flags for current.Symbol.
//   - error: ErrDataIntegrity when previous has High < Low or current would be
//     both a new high and a new low; the result is then empty.
func ClassifyMovement(current models.Quote, previous *models.Quote) (models.MovementResult, error) {
	res := models.MovementResult{Symbol: current.Symbol}
	if previous == nil {
		return res, nil
	}
	if previous.High52Week < previous.Low52Week {
		return res, fmt.Errorf("%s: previous quote %s has high %.4f below low %.4f: %w",
			current.Symbol, previous.TradingDate.Format("2006-01-02"), previous.High52Week, previous.Low52Week, ErrDataIntegrity)
	}

	res.HasPrevious = true
	switch {
	case current.ClosingPrice > previous.ClosingPrice:
		res.Advanced = true
	case current.ClosingPrice < previous.ClosingPrice:
		res.Declined = true
	default:
		res.Unchanged = true
	}
	res.NewHigh = current.ClosingPrice > previous.High52Week
	res.NewLow = current.ClosingPrice < previous.Low52Week

	if res.NewHigh && res.NewLow {
		return models.MovementResult{Symbol: current.Symbol}, fmt.Errorf("%s: close %.4f is both a new high and a new low: %w",
			current.Symbol, current.ClosingPrice, ErrDataIntegrity)
	}
	return res, nil
}

// tally accumulates movement results into breadth counts.
type tally struct {
	newHighs, newLows             int
	advanced, declined, unchanged int
}

func (t *tally) add(m models.MovementResult) {
	if !m.HasPrevious {
		return
	}
	switch {
	case m.Advanced:
		t.advanced++
	case m.Declined:
		t.declined++
	case m.Unchanged:
		t.unchanged++
	}
	if m.NewHigh {
		t.newHighs++
	}
	if m.NewLow {
		t.newLows++
	}
}
