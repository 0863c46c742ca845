package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/guttosm/marketpulse/internal/domain/models"
)

// InsertMetadataIfAbsent stores metadata for a symbol that has none yet.
// Placeholder rows created by UpsertQuote (company_name NULL) are filled in;
// rows that already carry metadata are left untouched.
//
// Returns true when a row was inserted or a placeholder was filled.
func (r *marketRepository) InsertMetadataIfAbsent(ctx context.Context, m models.SymbolMetadata) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO symbols (symbol, company_name, sector, industry)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (symbol)
		DO UPDATE SET company_name = EXCLUDED.company_name,
		              sector = EXCLUDED.sector,
		              industry = EXCLUDED.industry
		WHERE symbols.company_name IS NULL
	`, m.Symbol, m.CompanyName, m.Sector, m.Industry)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetMetadata returns the stored metadata for symbol, or nil when unknown.
func (r *marketRepository) GetMetadata(ctx context.Context, symbol string) (*models.SymbolMetadata, error) {
	var name, sector, industry sql.NullString
	m := models.SymbolMetadata{}
	err := r.db.QueryRowContext(ctx,
		`SELECT symbol, company_name, sector, industry FROM symbols WHERE symbol = $1`, symbol,
	).Scan(&m.Symbol, &name, &sector, &industry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.CompanyName = name.String
	m.Sector = sector.String
	m.Industry = industry.String
	return &m, nil
}

// ListTrackedSymbols returns, in ascending order, every symbol whose metadata
// has been stored. Placeholder rows written by UpsertQuote are excluded.
//
// Returns:
//   - []string: the tracked symbols; empty when none.
//   - error: if the query or a scan fails.
func (r *marketRepository) ListTrackedSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT symbol FROM symbols WHERE company_name IS NOT NULL ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}
