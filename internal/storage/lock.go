package storage

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/guttosm/marketpulse/internal/logger"
)

// writerLockKey identifies the breadth writer in pg_advisory_lock.
const writerLockKey int64 = 0x6d6b7470756c7365 // "mktpulse"

// AcquireWriterLock takes the session-level advisory lock that serializes
// breadth writes across processes. The lock lives on a dedicated connection
// which is returned to the pool by release; release is safe to call once on
// every exit path. A connection whose unlock fails is discarded instead of
// going back to the pool with the lock still held.
func (r *marketRepository) AcquireWriterLock(ctx context.Context) (func(), error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("dedicated connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, writerLockKey); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("pg_advisory_lock: %w", err)
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, writerLockKey); err != nil {
			logger.L().Error().Err(err).Msg("pg_advisory_unlock failed")
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		}
		_ = conn.Close()
	}
	return release, nil
}
