package pulse

import (
	"context"
	"errors"
	"fmt"

	"github.com/guttosm/marketpulse/internal/marketdata"
)

var (
	// ErrDataUnavailable means no usable bar exists for the symbol on the target date.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrSourceUnavailable is the market-data provider failure sentinel.
	ErrSourceUnavailable = marketdata.ErrSourceUnavailable
	// ErrDataIntegrity flags inconsistent inputs (high below low, simultaneous new high and new low).
	ErrDataIntegrity = errors.New("data integrity violation")
	// ErrStoreWrite wraps persistence failures for a single symbol.
	ErrStoreWrite = errors.New("store write failed")
	// ErrStoreRead wraps lookup failures for a single symbol.
	ErrStoreRead = errors.New("store read failed")
)

// ErrorKind names the category of a per-symbol failure in a RunReport.
type ErrorKind string

const (
	KindDataUnavailable   ErrorKind = "data_unavailable"
	KindSourceUnavailable ErrorKind = "source_unavailable"
	KindDataIntegrity     ErrorKind = "data_integrity"
	KindStoreWrite        ErrorKind = "store_write"
	KindStoreRead         ErrorKind = "store_read"
)

// SymbolError records why one symbol was left out of a run.
type SymbolError struct {
	Symbol string
	Kind   ErrorKind
	Err    error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Symbol, e.Kind, e.Err)
}

func (e *SymbolError) Unwrap() error { return e.Err }

// KindOf maps an error to its ErrorKind. Unknown symbols, timeouts and
// cancellation are reported as unavailable data; anything unrecognised is
// treated as a source failure.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrDataIntegrity):
		return KindDataIntegrity
	case errors.Is(err, ErrStoreWrite):
		return KindStoreWrite
	case errors.Is(err, ErrStoreRead):
		return KindStoreRead
	case errors.Is(err, ErrDataUnavailable),
		errors.Is(err, marketdata.ErrSymbolNotFound),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindDataUnavailable
	default:
		return KindSourceUnavailable
	}
}

// NewSymbolError classifies err with KindOf and attaches it to symbol.
func NewSymbolError(symbol string, err error) *SymbolError {
	return &SymbolError{Symbol: symbol, Kind: KindOf(err), Err: err}
}
