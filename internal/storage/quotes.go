package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/marketpulse/internal/domain/models"
	pq "github.com/lib/pq"
)

// UpsertQuote inserts q unless (symbol, trade_date) already exists.
//
// Parameters:
//   - ctx (context.Context): Bounds both statements of the transaction.
//   - q (models.Quote): The quote to store. Prices are expected at storage
//     scale already (four decimals, see pulse.StoredPrice).
//
// Behavior:
//   - Creates a placeholder symbols row first so the foreign key holds for
//     symbols whose metadata was never fetched.
//   - Never overwrites a stored quote: the first write for a key wins.
//
// Returns:
//   - bool: true when a new row was written, false when the quote already existed.
//   - error: if either statement or the commit fails.
func (r *marketRepository) UpsertQuote(ctx context.Context, q models.Quote) (bool, error) {
	var inserted bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO symbols (symbol) VALUES ($1) ON CONFLICT (symbol) DO NOTHING`, q.Symbol); err != nil {
			return fmt.Errorf("ensure symbol: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO daily_quotes (symbol, trade_date, closing_price, high_52week, low_52week)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (symbol, trade_date) DO NOTHING
		`, q.Symbol, asDate(q.TradingDate), q.ClosingPrice, q.High52Week, q.Low52Week)
		if err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = n == 1
		return nil
	})
	return inserted, err
}

// InsertQuotesBatch bulk-loads quotes with COPY into a staging table and moves
// them into daily_quotes, skipping rows whose key already exists.
//
// Parameters:
//   - ctx (context.Context): Bounds the whole transaction.
//   - quotes ([]models.Quote): Rows to load; duplicates inside the batch are
//     collapsed.
//
// Behavior:
//   - Runs in one transaction with synchronous_commit off.
//   - Creates missing symbols rows as placeholders before moving the quotes.
//
// Returns:
//   - int64: the number of newly inserted rows; 0 for an empty batch.
//   - error: if any step fails, in which case nothing is kept.
func (r *marketRepository) InsertQuotesBatch(ctx context.Context, quotes []models.Quote) (int64, error) {
	if len(quotes) == 0 {
		return 0, nil
	}

	var inserted int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		// Small optimization for bulk load
		if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			CREATE TEMP TABLE staging_quotes
			(LIKE daily_quotes INCLUDING DEFAULTS) ON COMMIT DROP
		`); err != nil {
			return fmt.Errorf("create staging: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
			"staging_quotes",
			"symbol",
			"trade_date",
			"closing_price",
			"high_52week",
			"low_52week",
		))
		if err != nil {
			return fmt.Errorf("prepare copy: %w", err)
		}
		for _, q := range quotes {
			if _, err := stmt.ExecContext(ctx, q.Symbol, asDate(q.TradingDate), q.ClosingPrice, q.High52Week, q.Low52Week); err != nil {
				_ = stmt.Close()
				return fmt.Errorf("copy %s %s: %w", q.Symbol, q.TradingDate.Format(time.DateOnly), err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("flush copy: %w", err)
		}
		if err := stmt.Close(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO symbols (symbol)
			SELECT DISTINCT symbol FROM staging_quotes
			ON CONFLICT (symbol) DO NOTHING
		`); err != nil {
			return fmt.Errorf("ensure symbols: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO daily_quotes (symbol, trade_date, closing_price, high_52week, low_52week)
			SELECT symbol, trade_date, closing_price, high_52week, low_52week FROM staging_quotes
			ON CONFLICT (symbol, trade_date) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("merge staging: %w", err)
		}
		inserted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// FindPreviousQuote returns the most recent quote for symbol strictly before
// the given date.
//
// Parameters:
//   - symbol (string): The ticker, as stored.
//   - before (time.Time): Exclusive upper bound; only its calendar date is used.
//
// Returns:
//   - *models.Quote: the previous quote, or nil when the symbol has no earlier history.
//   - error: if the query fails. A missing row is not an error.
func (r *marketRepository) FindPreviousQuote(ctx context.Context, symbol string, before time.Time) (*models.Quote, error) {
	var q models.Quote
	err := r.db.QueryRowContext(ctx, `
		SELECT symbol, trade_date, closing_price, high_52week, low_52week
		FROM daily_quotes
		WHERE symbol = $1 AND trade_date < $2
		ORDER BY trade_date DESC
		LIMIT 1
	`, symbol, asDate(before)).Scan(&q.Symbol, &q.TradingDate, &q.ClosingPrice, &q.High52Week, &q.Low52Week)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	q.TradingDate = asDate(q.TradingDate)
	return &q, nil
}

// FindQuotesInRange returns the quotes of symbol in ascending date order.
// Nil bounds are open.
func (r *marketRepository) FindQuotesInRange(ctx context.Context, symbol string, startDate *time.Time, endDate *time.Time) ([]models.Quote, error) {
	conditions, args := dateRange("symbol = $1", []interface{}{symbol}, "trade_date", startDate, endDate)

	query := fmt.Sprintf(`
		SELECT symbol, trade_date, closing_price, high_52week, low_52week
		FROM daily_quotes
		WHERE %s
		ORDER BY trade_date ASC
	`, conditions)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []models.Quote{}
	for rows.Next() {
		var q models.Quote
		if err := rows.Scan(&q.Symbol, &q.TradingDate, &q.ClosingPrice, &q.High52Week, &q.Low52Week); err != nil {
			return nil, err
		}
		q.TradingDate = asDate(q.TradingDate)
		out = append(out, q)
	}
	return out, rows.Err()
}

// LatestQuoteDates returns, for each of symbols that has stored quotes, the
// date of its newest quote.
func (r *marketRepository) LatestQuoteDates(ctx context.Context, symbols []string) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, MAX(trade_date)
		FROM daily_quotes
		WHERE symbol = ANY($1)
		GROUP BY symbol
	`, pq.Array(symbols))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			sym  string
			last time.Time
		)
		if err := rows.Scan(&sym, &last); err != nil {
			return nil, err
		}
		out[sym] = asDate(last)
	}
	return out, rows.Err()
}
