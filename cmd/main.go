package main

//
//  @title           marketpulse API
//  @version         1.0
//  @description     52-week highs/lows market breadth service.
//  @termsOfService  https://github.com/guttosm/marketpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/marketpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @securityDefinitions.apikey  BearerAuth
//  @in                          header
//  @name                        Authorization
//  @description                 Type "Bearer" followed by an HS256 JWT.
//
//  @tag.name        market-pulse
//  @tag.description Market breadth series and aggregation runs
//
//  @tag.name        stocks
//  @tag.description Per-symbol history and provider lookups
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guttosm/marketpulse/config"
	_ "github.com/guttosm/marketpulse/docs" // swagger docs
	"github.com/guttosm/marketpulse/internal/app"
	"github.com/guttosm/marketpulse/internal/ingestion"
	"github.com/guttosm/marketpulse/internal/logger"
	"github.com/guttosm/marketpulse/internal/pulse"
	"github.com/guttosm/marketpulse/internal/service"
	"github.com/guttosm/marketpulse/internal/universe"
)

// errPartial marks a run that completed with per-symbol failures.
var errPartial = errors.New("completed with symbol errors")

// writeTimeout leaves the slowest route room to write its response after its
// handler deadline.
func writeTimeout(job time.Duration) time.Duration {
	const margin = 30 * time.Second
	if job <= 0 {
		return margin
	}
	return job + margin
}

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//   - write (time.Duration): The server write timeout; see writeTimeout.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string, write time.Duration) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (scheduler, DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// parseDay parses an optional YYYY-MM-DD flag value.
func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &d, nil
}

// splitSymbols turns "aapl, msft" into the normalized symbol list.
func splitSymbols(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return universe.Normalize(strings.Split(s, ","))
}

// runAggregate runs one trading day, or every trading day in [from, to]
// when both are given.
func runAggregate(ctx context.Context, svc service.PulseService, date, from, to string, symbols []string) error {
	if from != "" || to != "" {
		start, err := parseDay(from)
		if err != nil {
			return err
		}
		end, err := parseDay(to)
		if err != nil {
			return err
		}
		if start == nil || end == nil {
			return errors.New("--from and --to must be given together")
		}
		reports, err := svc.RunRange(ctx, *start, *end, symbols)
		if err != nil {
			return err
		}
		partial := false
		for _, r := range reports {
			logReport(r)
			partial = partial || r.Partial()
		}
		if partial {
			return errPartial
		}
		return nil
	}

	day, err := parseDay(date)
	if err != nil {
		return err
	}
	report, err := svc.Run(ctx, day, symbols)
	if err != nil {
		return err
	}
	logReport(report)
	if report.Partial() {
		return errPartial
	}
	return nil
}

func logReport(r *pulse.RunReport) {
	ev := logger.L().Info().
		Str("date", r.TradingDate.Format(time.DateOnly)).
		Int("universe", r.UniverseSize).
		Int("processed", r.Processed).
		Int("inserted_quotes", r.InsertedQuotes).
		Int("errors", len(r.Errors)).
		Bool("no_data", r.NoData)
	if r.Breadth != nil {
		ev = ev.Int("new_highs", r.Breadth.NewHighs).Int("new_lows", r.Breadth.NewLows)
	}
	ev.Msg("aggregation finished")
}

// runBackfill seeds history for symbols, defaulting to the whole universe.
func runBackfill(ctx context.Context, updater service.HistoryUpdater, symbols []string, opts ingestion.Options) error {
	report, err := updater.Run(ctx, symbols, opts)
	if report != nil {
		logger.L().Info().
			Int("symbols", report.Symbols).
			Int64("inserted_quotes", report.InsertedQuotes).
			Int("up_to_date", report.UpToDate).
			Int("errors", len(report.Errors)).
			Msg("backfill finished")
		for _, e := range report.Errors {
			logger.L().Warn().Str("symbol", e.Symbol).Str("kind", string(e.Kind)).Err(e.Err).Msg("symbol failed")
		}
	}
	if err != nil {
		return err
	}
	if report.Partial() {
		return errPartial
	}
	return nil
}

// exitCode maps a batch result to the process status: 0 ok, 2 partial, 1 failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errPartial):
		return 2
	default:
		return 1
	}
}

// main is the entry point of the marketpulse application.
//
// Modes (selected via --mode flag):
//   - api:       Starts the REST API (and the scheduler when SCHEDULER_ENABLED).
//   - aggregate: Runs the breadth aggregation for --date or --from/--to.
//   - backfill:  Seeds metadata and historical quotes for the universe or --symbols.
//   - migrate:   Applies the embedded database migrations.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration from defaults, .env files and the environment
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Configure(cfg.Log.Level, cfg.Log.Pretty)

	mode := flag.String("mode", "api", "Mode: api, aggregate, backfill or migrate")
	port := flag.String("port", cfg.Server.Port, "Port for API mode")
	date := flag.String("date", "", "Aggregate: trading day YYYY-MM-DD (default last trading day)")
	from := flag.String("from", "", "Aggregate: first day of a range, YYYY-MM-DD")
	to := flag.String("to", "", "Aggregate: last day of a range, YYYY-MM-DD")
	symbols := flag.String("symbols", "", "Comma separated symbols (default: the universe)")
	days := flag.Int("days", cfg.MarketData.BackfillDays, "Backfill: calendar days of history")
	parallel := flag.Int("parallel", cfg.Pulse.Parallel, "Backfill: symbols processed concurrently")
	force := flag.Bool("force", false, "Backfill: refetch the whole window even if rows exist")
	flag.Parse()

	switch *mode {
	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port, writeTimeout(cfg.Server.JobTimeout))
		gracefulShutdown(context.Background(), server, cleanup)

	case "migrate":
		db, err := app.InitPostgres(cfg)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()
		if err := app.Migrate(ctx, db); err != nil {
			logger.L().Fatal().Err(err).Msg("migration failed")
		}
		logger.L().Info().Msg("migrations applied")

	case "aggregate", "backfill":
		c, cleanup, err := app.Build(cfg)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		if *mode == "aggregate" {
			err = runAggregate(ctx, c.Pulse, *date, *from, *to, splitSymbols(*symbols))
		} else {
			selected := splitSymbols(*symbols)
			if len(selected) == 0 {
				selected = c.Universe.Symbols
			}
			err = runBackfill(ctx, c.Backfiller, selected, ingestion.Options{
				Days:     *days,
				Parallel: *parallel,
				Force:    *force,
			})
		}
		cleanup()

		code := exitCode(err)
		if code == 1 {
			logger.L().Error().Err(err).Str("mode", *mode).Msg("run failed")
		} else if code == 2 {
			logger.L().Warn().Str("mode", *mode).Msg("run completed with symbol errors")
		}
		stop()
		os.Exit(code)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
