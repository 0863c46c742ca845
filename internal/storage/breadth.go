package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/marketpulse/internal/domain/models"
)

const weekdayPredicate = `EXTRACT(ISODOW FROM trade_date) BETWEEN 1 AND 5`

// UpsertBreadth writes the breadth row for b.TradingDate.
//
// Behavior:
//   - Overwrites any existing row for the date, so re-running a day replaces
//     its counts.
//   - ad_spread is recomputed from the counts rather than taken from b.
//
// Returns:
//   - error: if the statement fails.
func (r *marketRepository) UpsertBreadth(ctx context.Context, b models.DailyBreadth) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO market_breadth (trade_date, new_highs, new_lows, advanced, declined, unchanged, ad_spread)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (trade_date)
		DO UPDATE SET new_highs = EXCLUDED.new_highs,
		              new_lows = EXCLUDED.new_lows,
		              advanced = EXCLUDED.advanced,
		              declined = EXCLUDED.declined,
		              unchanged = EXCLUDED.unchanged,
		              ad_spread = EXCLUDED.ad_spread,
		              computed_at = NOW()
	`, asDate(b.TradingDate), b.NewHighs, b.NewLows, b.Advanced, b.Declined, b.Unchanged, b.Advanced-b.Declined)
	return err
}

// FindBreadthInRange returns breadth rows in ascending date order. Nil bounds are open.
func (r *marketRepository) FindBreadthInRange(ctx context.Context, startDate *time.Time, endDate *time.Time) ([]models.DailyBreadth, error) {
	conditions, args := dateRange("TRUE", nil, "trade_date", startDate, endDate)

	query := fmt.Sprintf(`
		SELECT trade_date, new_highs, new_lows, advanced, declined, unchanged
		FROM market_breadth
		WHERE %s
		ORDER BY trade_date ASC
	`, conditions)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []models.DailyBreadth{}
	for rows.Next() {
		var (
			date                                   time.Time
			newHighs, newLows, adv, dec, unchanged int
		)
		if err := rows.Scan(&date, &newHighs, &newLows, &adv, &dec, &unchanged); err != nil {
			return nil, err
		}
		out = append(out, models.NewDailyBreadth(asDate(date), newHighs, newLows, adv, dec, unchanged))
	}
	return out, rows.Err()
}

// CountWeekdayBreadthRows counts breadth rows dated Monday through Friday.
func (r *marketRepository) CountWeekdayBreadthRows(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM market_breadth WHERE `+weekdayPredicate).Scan(&n)
	return n, err
}

// DeleteOldestWeekdayBreadthRow removes the earliest weekday-dated breadth row.
// Weekend-dated rows are never touched.
//
// Returns:
//   - *time.Time: the deleted date, or nil when there was no weekday row.
//   - error: if the statement fails.
func (r *marketRepository) DeleteOldestWeekdayBreadthRow(ctx context.Context) (*time.Time, error) {
	var date time.Time
	err := r.db.QueryRowContext(ctx, `
		DELETE FROM market_breadth
		WHERE trade_date = (
			SELECT trade_date FROM market_breadth
			WHERE `+weekdayPredicate+`
			ORDER BY trade_date ASC
			LIMIT 1
		)
		RETURNING trade_date
	`).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	date = asDate(date)
	return &date, nil
}
