package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guttosm/marketpulse/config"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

const pingTimeout = 5 * time.Second

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

// DSN returns POSTGRES_URL when set, otherwise a URL assembled from the
// discrete POSTGRES_* settings.
func DSN(cfg config.Config) string {
	if cfg.Postgres.URL != "" {
		return cfg.Postgres.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}

// InitPostgres initializes a PostgreSQL connection pool using the provided configuration.
//
// Parameters:
//   - cfg (config.Config): The application configuration; only cfg.Postgres is read.
//
// Behavior:
//   - Builds the connection URL with DSN.
//   - Opens a database handle and caps the pool at 20 open and 5 idle
//     connections, each recycled after 30 minutes.
//   - Pings the database once, giving up after five seconds, and closes the
//     handle again when the ping fails.
//
// Returns:
//   - *sql.DB: an open database connection pool (safe for concurrent use).
//   - error: if opening or pinging the database fails.
//
// Example usage:
//
//	db, err := app.InitPostgres(config.AppConfig)
//	if err != nil {
//	    log.Fatalf("failed to connect: %v", err)
//	}
//	defer db.Close()
func InitPostgres(cfg config.Config) (*sql.DB, error) {
	db, err := sqlOpener("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// postgresOpener is an indirection used by Build; overridden in tests to avoid real connections.
var postgresOpener = InitPostgres
