package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/marketpulse/config"
	"github.com/guttosm/marketpulse/internal/api"
	"github.com/guttosm/marketpulse/internal/cache"
	"github.com/guttosm/marketpulse/internal/ingestion"
	"github.com/guttosm/marketpulse/internal/logger"
	"github.com/guttosm/marketpulse/internal/marketdata"
	"github.com/guttosm/marketpulse/internal/pulse"
	"github.com/guttosm/marketpulse/internal/scheduler"
	"github.com/guttosm/marketpulse/internal/service"
	"github.com/guttosm/marketpulse/internal/storage"
	"github.com/guttosm/marketpulse/internal/universe"
)

const (
	migrateTimeout = 2 * time.Minute
	stopTimeout    = 10 * time.Second
)

// Components holds the wired application graph shared by the HTTP server
// and the command line modes.
type Components struct {
	DB         *sql.DB
	Repo       storage.MarketRepository
	Source     marketdata.Source
	Universe   *universe.Universe
	Aggregator *pulse.Aggregator
	Backfiller *ingestion.Backfiller
	Pulse      service.PulseService
	Stocks     service.StockService
	Config     config.Config
}

// Build connects to PostgreSQL, optionally migrates, and wires the
// repository, market data source, aggregator, backfiller and services.
// The returned cleanup closes the database.
func Build(cfg config.Config) (*Components, func(), error) {
	logger.Configure(cfg.Log.Level, cfg.Log.Pretty)

	u, err := universe.Load(cfg.Pulse.UniverseFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load universe: %w", err)
	}

	source, err := NewSource(cfg, cache.SystemClock)
	if err != nil {
		return nil, nil, err
	}

	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	if cfg.Postgres.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
		err := Migrate(ctx, db)
		cancel()
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}

	repo := storage.NewMarketRepository(db)
	loc := cfg.Location()

	aggregator := pulse.NewAggregator(source, repo, pulse.Config{
		Parallel:      cfg.Pulse.Parallel,
		SymbolTimeout: cfg.MarketData.Timeout,
		LookbackDays:  cfg.MarketData.LookbackDays,
		RetentionDays: cfg.Pulse.RetentionDays,
	})
	backfiller := ingestion.NewBackfiller(repo, source)

	c := &Components{
		DB:         db,
		Repo:       repo,
		Source:     source,
		Universe:   u,
		Aggregator: aggregator,
		Backfiller: backfiller,
		Pulse:      service.NewPulseService(aggregator, repo, u.Symbols, cache.SystemClock, loc, service.WithTrackedSymbols(repo)),
		Stocks: service.NewStockService(repo, source, backfiller, cache.SystemClock, service.StockConfig{
			CacheBucket:  cfg.Server.CacheBucket,
			Location:     loc,
			BackfillDays: cfg.MarketData.BackfillDays,
			Parallel:     cfg.Pulse.Parallel,
		}),
		Config: cfg,
	}

	logger.L().Info().
		Str("provider", cfg.MarketData.Provider).
		Str("universe", u.Name).
		Int("symbols", len(u.Symbols)).
		Msg("application wired")

	cleanup := func() {
		_ = db.Close()
	}
	return c, cleanup, nil
}

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Wires the application graph through Build.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Starts the daily aggregation scheduler when SCHEDULER_ENABLED is set.
//   - Provides a cleanup function that stops the scheduler and closes the DB.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	c, closeDB, err := Build(cfg)
	if err != nil {
		return nil, nil, err
	}

	handler := api.NewHandler(c.Pulse, c.Stocks)
	router := api.NewRouter(handler, api.RouterOptions{
		JWTSecret:          cfg.Auth.JWTSecret,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		RequestTimeout:     cfg.Server.RequestTimeout,
		JobTimeout:         cfg.Server.JobTimeout,
	})
	api.NewHealthHandler(c.DB.PingContext).Register(router)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(c.Pulse, cfg.Scheduler.Cron, scheduler.Options{Location: cfg.Location()})
		if err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("failed to create scheduler: %w", err)
		}
		sched.Start()
	}

	cleanup := func() {
		if sched != nil {
			ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			sched.Stop(ctx)
			cancel()
		}
		closeDB()
	}

	return router, cleanup, nil
}
