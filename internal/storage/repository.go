package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guttosm/marketpulse/internal/domain/models"
)

// MarketRepository defines the contract for quote, breadth and symbol persistence.
type MarketRepository interface {
	UpsertQuote(ctx context.Context, q models.Quote) (bool, error)
	InsertQuotesBatch(ctx context.Context, quotes []models.Quote) (int64, error)
	FindPreviousQuote(ctx context.Context, symbol string, before time.Time) (*models.Quote, error)
	FindQuotesInRange(ctx context.Context, symbol string, startDate *time.Time, endDate *time.Time) ([]models.Quote, error)
	LatestQuoteDates(ctx context.Context, symbols []string) (map[string]time.Time, error)

	UpsertBreadth(ctx context.Context, b models.DailyBreadth) error
	FindBreadthInRange(ctx context.Context, startDate *time.Time, endDate *time.Time) ([]models.DailyBreadth, error)
	CountWeekdayBreadthRows(ctx context.Context) (int, error)
	DeleteOldestWeekdayBreadthRow(ctx context.Context) (*time.Time, error)

	InsertMetadataIfAbsent(ctx context.Context, m models.SymbolMetadata) (bool, error)
	GetMetadata(ctx context.Context, symbol string) (*models.SymbolMetadata, error)
	ListTrackedSymbols(ctx context.Context) ([]string, error)

	AcquireWriterLock(ctx context.Context) (release func(), err error)
}

type marketRepository struct {
	db *sql.DB
}

func NewMarketRepository(db *sql.DB) MarketRepository {
	return &marketRepository{db: db}
}

// withTx runs fn inside a transaction that is committed when fn returns nil
// and rolled back otherwise, including on panic.
func (r *marketRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// dateRange appends optional bounds on column to conditions, continuing the
// positional placeholders after args.
func dateRange(conditions string, args []interface{}, column string, startDate, endDate *time.Time) (string, []interface{}) {
	if startDate != nil {
		placeholder := len(args) + 1
		conditions += fmt.Sprintf(" AND %s >= $%d", column, placeholder)
		args = append(args, *startDate)
	}
	if endDate != nil {
		placeholder := len(args) + 1
		conditions += fmt.Sprintf(" AND %s <= $%d", column, placeholder)
		args = append(args, *endDate)
	}
	return conditions, args
}

func asDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
