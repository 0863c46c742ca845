package pulse

import (
	"context"
	"fmt"
	"time"
)

// RetentionStore is the part of the store that retention needs.
type RetentionStore interface {
	CountWeekdayBreadthRows(ctx context.Context) (int, error)
	DeleteOldestWeekdayBreadthRow(ctx context.Context) (*time.Time, error)
}

// EnforceRetention keeps at most maxRows weekday breadth rows by evicting the
// single oldest weekday row when the count exceeds maxRows. Weekend rows are
// neither counted nor evicted.
//
// Parameters:
//   - store (RetentionStore): The breadth table.
//   - maxRows (int): The weekday row cap; values <= 0 mean DefaultRetentionDays.
//
// Returns:
//   - *time.Time: the evicted date, or nil when nothing was removed.
//   - error: if counting or deleting fails.
func EnforceRetention(ctx context.Context, store RetentionStore, maxRows int) (*time.Time, error) {
	if maxRows <= 0 {
		maxRows = DefaultRetentionDays
	}
	n, err := store.CountWeekdayBreadthRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("count weekday rows: %w", err)
	}
	if n <= maxRows {
		return nil, nil
	}
	evicted, err := store.DeleteOldestWeekdayBreadthRow(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete oldest weekday row: %w", err)
	}
	return evicted, nil
}
