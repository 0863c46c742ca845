package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/guttosm/marketpulse/internal/cache"
	"github.com/guttosm/marketpulse/internal/calendar"
	"github.com/guttosm/marketpulse/internal/logger"
	"github.com/guttosm/marketpulse/internal/pulse"
)

const defaultJobTimeout = 30 * time.Minute

// Runner runs the aggregation for one date over the default universe.
// service.PulseService implements it.
type Runner interface {
	Run(ctx context.Context, date *time.Time, symbols []string) (*pulse.RunReport, error)
}

// Scheduler triggers the daily breadth aggregation on a cron schedule in the
// market timezone. Runs that would overlap are skipped, and days that are not
// trading days are ignored.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	loc     *time.Location
	clock   cache.Clock
	timeout time.Duration
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Options tunes a Scheduler. Zero values fall back to defaults.
type Options struct {
	Location *time.Location
	Clock    cache.Clock
	Timeout  time.Duration
}

// New parses spec (six fields, seconds first) and registers the daily job.
func New(runner Runner, spec string, opts Options) (*Scheduler, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = cache.SystemClock
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultJobTimeout
	}

	log := logger.Named("scheduler")
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(opts.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:  runner,
		loc:     opts.Location,
		clock:   opts.Clock,
		timeout: opts.Timeout,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := s.cron.AddFunc(spec, func() { _, _ = s.RunOnce() }); err != nil {
		cancel()
		return nil, fmt.Errorf("register aggregation job %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the cron scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Info().Time("next", e.Next).Msg("scheduler started")
	}
}

// Stop cancels a running job and waits for it to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		s.log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Err(ctx.Err()).Msg("scheduler stop timed out")
	}
}

// RunOnce aggregates today's date in the market timezone. It returns a nil
// report without running when today is not a trading day.
func (s *Scheduler) RunOnce() (*pulse.RunReport, error) {
	today := calendar.TruncateToDate(s.clock.Now().In(s.loc))
	if !calendar.IsTradingDay(today) {
		s.log.Info().Str("date", today.Format(time.DateOnly)).Msg("not a trading day, skipping")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	report, err := s.runner.Run(ctx, &today, nil)
	if err != nil {
		s.log.Error().Str("date", today.Format(time.DateOnly)).Err(err).Msg("scheduled aggregation failed")
		return report, err
	}
	s.log.Info().
		Str("date", today.Format(time.DateOnly)).
		Int("processed", report.Processed).
		Int("errors", len(report.Errors)).
		Bool("no_data", report.NoData).
		Msg("scheduled aggregation done")
	return report, nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
