package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/guttosm/marketpulse/internal/domain/models"
)

// barHeaders is the exact header every <SYMBOL>.csv must start with.
var barHeaders = []string{"Date", "Open", "High", "Low", "Close"}

// metadataHeaders is the exact header of the optional metadata.csv.
var metadataHeaders = []string{"Symbol", "Name", "Sector", "Industry"}

const metadataFile = "metadata.csv"

// CSVSource serves bars from <dir>/<SYMBOL>.csv files, one row per trading
// day, dates as YYYY-MM-DD. It is meant for offline runs and fixtures.
type CSVSource struct {
	dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// FetchSeries implements Source.
//
// It fails on:
//   - a missing file (ErrSymbolNotFound)
//   - a header not matching Date,Open,High,Low,Close exactly
//   - any row with the wrong column count or an unparsable value
func (s *CSVSource) FetchSeries(ctx context.Context, symbol string, end time.Time, lookbackDays int) ([]models.Bar, error) {
	path := filepath.Join(s.dir, strings.ToUpper(symbol)+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("csv %s: %w", symbol, ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("csv %s: open: %w: %w", symbol, ErrSourceUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // checked explicitly below
	r.TrimLeadingSpace = true

	if err := readHeader(r, barHeaders); err != nil {
		return nil, fmt.Errorf("csv %s: %w", symbol, err)
	}

	var bars []models.Bar
	lineNumber := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		lineNumber++
		if err != nil {
			return nil, fmt.Errorf("csv %s: line %d: %w", symbol, lineNumber, err)
		}
		if len(rec) != len(barHeaders) {
			return nil, fmt.Errorf("csv %s: invalid column count on line %d: expected %d got %d", symbol, lineNumber, len(barHeaders), len(rec))
		}
		b, err := recordToBar(rec)
		if err != nil {
			return nil, fmt.Errorf("csv %s: line %d: %w", symbol, lineNumber, err)
		}
		bars = append(bars, b)
	}

	return clip(bars, windowStart(end, lookbackDays), dateOnly(end)), nil
}

// FetchMetadata implements Source. Without metadata.csv, or without a row for
// symbol, only the symbol is returned.
func (s *CSVSource) FetchMetadata(ctx context.Context, symbol string) (*models.SymbolMetadata, error) {
	symbol = strings.ToUpper(symbol)
	if _, err := os.Stat(filepath.Join(s.dir, symbol+".csv")); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("csv %s: %w", symbol, ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("csv %s: %w: %w", symbol, ErrSourceUnavailable, err)
	}
	meta := &models.SymbolMetadata{Symbol: symbol}

	f, err := os.Open(filepath.Join(s.dir, metadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return meta, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv metadata: %w: %w", ErrSourceUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	if err := readHeader(r, metadataHeaders); err != nil {
		return nil, fmt.Errorf("csv metadata: %w", err)
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return meta, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv metadata: %w", err)
		}
		if strings.EqualFold(rec[0], symbol) {
			meta.CompanyName = rec[1]
			meta.Sector = rec[2]
			meta.Industry = rec[3]
			return meta, nil
		}
	}
}

func readHeader(r *csv.Reader, want []string) error {
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(want) {
		return fmt.Errorf("invalid header length: expected %d, got %d", len(want), len(header))
	}
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) != want[i] {
			return fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, want[i], h)
		}
	}
	return nil
}

func recordToBar(rec []string) (models.Bar, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[0]))
	if err != nil {
		return models.Bar{}, fmt.Errorf("parse date %q: %w", rec[0], err)
	}
	var prices [4]float64
	for i := range prices {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("parse %s %q: %w", barHeaders[i+1], rec[i+1], err)
		}
		prices[i] = v
	}
	return models.Bar{Date: date, Open: prices[0], High: prices[1], Low: prices[2], Close: prices[3]}, nil
}
