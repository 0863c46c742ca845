package storage

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/guttosm/marketpulse/internal/domain/models"
)

type dummyErr struct{}

func (dummyErr) Error() string { return "dummy" }

func newMockRepo(t *testing.T) (*marketRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	repo := &marketRepository{db: db}
	cleanup := func() { _ = db.Close() }
	return repo, mock, cleanup
}

var (
	ctx  = context.Background()
	day  = time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
)

func TestNewMarketRepository_Construct(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()
	if NewMarketRepository(db) == nil {
		t.Fatalf("expected non-nil repository")
	}
}

func TestUpsertQuote_SQLMock(t *testing.T) {
	q := models.Quote{Symbol: "AAPL", TradingDate: day.Add(15 * time.Hour), ClosingPrice: 229.43, High52Week: 260.1, Low52Week: 164.08}

	cases := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"new row", 1, true},
		{"existing row", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, done := newMockRepo(t)
			defer done()

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO symbols (symbol) VALUES ($1) ON CONFLICT (symbol) DO NOTHING")).
				WithArgs("AAPL").WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (symbol, trade_date) DO NOTHING")).
				WithArgs("AAPL", day, 229.43, 260.1, 164.08).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectCommit()

			got, err := repo.UpsertQuote(ctx, q)
			if err != nil || got != tc.want {
				t.Fatalf("got inserted=%v err=%v, want %v", got, err, tc.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestUpsertQuote_RollsBackOnError(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO symbols").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO daily_quotes").WillReturnError(dummyErr{})
	mock.ExpectRollback()

	if _, err := repo.UpsertQuote(ctx, models.Quote{Symbol: "X", TradingDate: day}); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertQuote_ErrorOnBegin(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin().WillReturnError(dummyErr{})
	if _, err := repo.UpsertQuote(ctx, models.Quote{Symbol: "X"}); err == nil {
		t.Fatalf("expected error on begin")
	}
}

func TestInsertQuotesBatch_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL synchronous_commit = OFF")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TEMP TABLE staging_quotes").WillReturnResult(sqlmock.NewResult(0, 0))
	// pq.CopyIn is driver specific; sqlmock only sees the prepared statement and its execs.
	prep := mock.ExpectPrepare(".*")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0)) // final flush
	mock.ExpectExec(regexp.QuoteMeta("SELECT DISTINCT symbol FROM staging_quotes")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("FROM staging_quotes ON CONFLICT (symbol, trade_date) DO NOTHING")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	quotes := []models.Quote{
		{Symbol: "AAPL", TradingDate: day, ClosingPrice: 1, High52Week: 2, Low52Week: 0.5},
		{Symbol: "AAPL", TradingDate: day2, ClosingPrice: 1.5, High52Week: 2, Low52Week: 0.5},
	}
	n, err := repo.InsertQuotesBatch(ctx, quotes)
	if err != nil || n != 1 {
		t.Fatalf("got n=%d err=%v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertQuotesBatch_Empty(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	if n, err := repo.InsertQuotesBatch(ctx, nil); err != nil || n != 0 {
		t.Fatalf("got n=%d err=%v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statements expected: %v", err)
	}
}

func TestInsertQuotesBatch_ErrorOnRowExec(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL synchronous_commit = OFF")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(".*")
	prep.ExpectExec().WillReturnError(dummyErr{})
	mock.ExpectRollback()

	if _, err := repo.InsertQuotesBatch(ctx, []models.Quote{{Symbol: "X", TradingDate: day}}); err == nil {
		t.Fatalf("expected error on row exec")
	}
}

func TestFindPreviousQuote_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	cols := []string{"symbol", "trade_date", "closing_price", "high_52week", "low_52week"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE symbol = $1 AND trade_date < $2 ORDER BY trade_date DESC LIMIT 1")).
		WithArgs("AAPL", day2).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("AAPL", day, 100.0, 115.0, 90.0))

	q, err := repo.FindPreviousQuote(ctx, "AAPL", day2)
	if err != nil || q == nil {
		t.Fatalf("got q=%v err=%v", q, err)
	}
	if !q.TradingDate.Equal(day) || q.High52Week != 115 {
		t.Fatalf("unexpected quote %+v", q)
	}

	mock.ExpectQuery("FROM daily_quotes").WithArgs("NEW", day2).WillReturnRows(sqlmock.NewRows(cols))
	q, err = repo.FindPreviousQuote(ctx, "NEW", day2)
	if err != nil || q != nil {
		t.Fatalf("want nil,nil got q=%v err=%v", q, err)
	}

	mock.ExpectQuery("FROM daily_quotes").WillReturnError(dummyErr{})
	if _, err := repo.FindPreviousQuote(ctx, "ERR", day2); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindQuotesInRange_SQLMock(t *testing.T) {
	cols := []string{"symbol", "trade_date", "closing_price", "high_52week", "low_52week"}
	cases := []struct {
		name  string
		start *time.Time
		end   *time.Time
		where string
		args  []driver.Value
	}{
		{"open", nil, nil, "WHERE symbol = $1 ORDER BY", []driver.Value{"AAPL"}},
		{"start", &day, nil, "WHERE symbol = $1 AND trade_date >= $2 ORDER BY", []driver.Value{"AAPL", day}},
		{"end", nil, &day2, "WHERE symbol = $1 AND trade_date <= $2 ORDER BY", []driver.Value{"AAPL", day2}},
		{"both", &day, &day2, "WHERE symbol = $1 AND trade_date >= $2 AND trade_date <= $3 ORDER BY", []driver.Value{"AAPL", day, day2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, done := newMockRepo(t)
			defer done()

			mock.ExpectQuery(regexp.QuoteMeta(tc.where)).WithArgs(tc.args...).
				WillReturnRows(sqlmock.NewRows(cols).
					AddRow("AAPL", day, 1.0, 2.0, 0.5).
					AddRow("AAPL", day2, 1.5, 2.0, 0.5))

			out, err := repo.FindQuotesInRange(ctx, "AAPL", tc.start, tc.end)
			if err != nil || len(out) != 2 {
				t.Fatalf("got %d quotes err=%v", len(out), err)
			}
			if !out[0].TradingDate.Before(out[1].TradingDate) {
				t.Fatalf("quotes not ascending")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestLatestQuoteDates_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE symbol = ANY($1) GROUP BY symbol")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"symbol", "max"}).AddRow("AAPL", day))

	out, err := repo.LatestQuoteDates(ctx, []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("LatestQuoteDates: %v", err)
	}
	if len(out) != 1 || !out["AAPL"].Equal(day) {
		t.Fatalf("unexpected result %v", out)
	}

	empty, err := repo.LatestQuoteDates(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input: %v %v", empty, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertBreadth_RecomputesSpread(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (trade_date) DO UPDATE SET new_highs = EXCLUDED.new_highs")).
		WithArgs(day, 4, 2, 30, 10, 5, 20).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// ADSpread set inconsistently on purpose; the stored spread must be advanced - declined.
	b := models.DailyBreadth{TradingDate: day, NewHighs: 4, NewLows: 2, Advanced: 30, Declined: 10, Unchanged: 5, ADSpread: 999}
	if err := repo.UpsertBreadth(ctx, b); err != nil {
		t.Fatalf("UpsertBreadth: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindBreadthInRange_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	cols := []string{"trade_date", "new_highs", "new_lows", "advanced", "declined", "unchanged"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE TRUE AND trade_date >= $1 AND trade_date <= $2 ORDER BY trade_date ASC")).
		WithArgs(day, day2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(day, 3, 1, 20, 25, 2).
			AddRow(day2, 5, 0, 30, 10, 1))

	out, err := repo.FindBreadthInRange(ctx, &day, &day2)
	if err != nil || len(out) != 2 {
		t.Fatalf("got %d rows err=%v", len(out), err)
	}
	if out[0].ADSpread != -5 || out[1].ADSpread != 20 {
		t.Fatalf("spread not derived from counts: %+v", out)
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE TRUE ORDER BY")).WillReturnRows(sqlmock.NewRows(cols))
	out, err = repo.FindBreadthInRange(ctx, nil, nil)
	if err != nil || out == nil || len(out) != 0 {
		t.Fatalf("want empty non-nil slice, got %v err=%v", out, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRetentionQueries_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM market_breadth WHERE EXTRACT(ISODOW FROM trade_date) BETWEEN 1 AND 5")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(366))
	n, err := repo.CountWeekdayBreadthRows(ctx)
	if err != nil || n != 366 {
		t.Fatalf("count: n=%d err=%v", n, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY trade_date ASC LIMIT 1 ) RETURNING trade_date")).
		WillReturnRows(sqlmock.NewRows([]string{"trade_date"}).AddRow(day))
	evicted, err := repo.DeleteOldestWeekdayBreadthRow(ctx)
	if err != nil || evicted == nil || !evicted.Equal(day) {
		t.Fatalf("delete: evicted=%v err=%v", evicted, err)
	}

	mock.ExpectQuery("DELETE FROM market_breadth").WillReturnRows(sqlmock.NewRows([]string{"trade_date"}))
	evicted, err = repo.DeleteOldestWeekdayBreadthRow(ctx)
	if err != nil || evicted != nil {
		t.Fatalf("empty table: evicted=%v err=%v", evicted, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMetadata_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	meta := models.SymbolMetadata{Symbol: "AAPL", CompanyName: "Apple Inc.", Sector: "Technology", Industry: "Consumer Electronics"}
	mock.ExpectExec(regexp.QuoteMeta("WHERE symbols.company_name IS NULL")).
		WithArgs("AAPL", "Apple Inc.", "Technology", "Consumer Electronics").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.InsertMetadataIfAbsent(ctx, meta)
	if err != nil || !ok {
		t.Fatalf("insert: ok=%v err=%v", ok, err)
	}

	mock.ExpectExec("INSERT INTO symbols").WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.InsertMetadataIfAbsent(ctx, meta)
	if err != nil || ok {
		t.Fatalf("existing metadata must not be overwritten: ok=%v err=%v", ok, err)
	}

	cols := []string{"symbol", "company_name", "sector", "industry"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM symbols WHERE symbol = $1")).WithArgs("AAPL").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("AAPL", "Apple Inc.", nil, nil))
	got, err := repo.GetMetadata(ctx, "AAPL")
	if err != nil || got == nil || got.CompanyName != "Apple Inc." || got.Sector != "" {
		t.Fatalf("get: %+v err=%v", got, err)
	}

	mock.ExpectQuery("FROM symbols").WithArgs("ZZZ").WillReturnRows(sqlmock.NewRows(cols))
	got, err = repo.GetMetadata(ctx, "ZZZ")
	if err != nil || got != nil {
		t.Fatalf("unknown symbol: %+v err=%v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListTrackedSymbols_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM symbols WHERE company_name IS NOT NULL ORDER BY symbol")).
		WillReturnRows(sqlmock.NewRows([]string{"symbol"}).AddRow("AAPL").AddRow("MSFT"))
	got, err := repo.ListTrackedSymbols(ctx)
	if err != nil || len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Fatalf("list: %v err=%v", got, err)
	}

	mock.ExpectQuery("FROM symbols").WillReturnRows(sqlmock.NewRows([]string{"symbol"}))
	got, err = repo.ListTrackedSymbols(ctx)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("empty table: %v err=%v", got, err)
	}

	mock.ExpectQuery("FROM symbols").WillReturnError(dummyErr{})
	if _, err := repo.ListTrackedSymbols(ctx); err == nil {
		t.Fatalf("expected query error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAcquireWriterLock_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_lock($1)")).WithArgs(writerLockKey).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_unlock($1)")).WithArgs(writerLockKey).WillReturnResult(sqlmock.NewResult(0, 0))

	release, err := repo.AcquireWriterLock(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAcquireWriterLock_Error(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectExec("pg_advisory_lock").WillReturnError(dummyErr{})
	if _, err := repo.AcquireWriterLock(ctx); err == nil {
		t.Fatalf("expected lock error")
	}
}
