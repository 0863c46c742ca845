package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	migrations "github.com/guttosm/marketpulse/db"
	"github.com/guttosm/marketpulse/internal/logger"
)

// Migrate applies the embedded goose migrations up to the latest version.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrations.MigrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	l := logger.Named("migrate")
	l.Info().Msgf(format, v...)
}

func (gooseLogger) Fatalf(format string, v ...any) {
	l := logger.Named("migrate")
	l.Fatal().Msgf(format, v...)
}
