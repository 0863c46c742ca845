// Package logger holds the process-wide zerolog logger.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "marketpulse"

var (
	base zerolog.Logger
)

// Init configures the global JSON logger from the environment.
//
// Environment variables (optional):
//   - LOG_LEVEL: trace|debug|info|warn|error (default: info)
//   - LOG_PRETTY: true|false (default: false)
func Init() {
	Configure(getenv("LOG_LEVEL", "info"), strings.EqualFold(getenv("LOG_PRETTY", "false"), "true"))
}

// Configure replaces the global logger. The app calls it once config is loaded
// so LOG_LEVEL/LOG_PRETTY from .env files take effect too.
func Configure(level string, pretty bool) {
	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	base = newLogger(w, parseLevel(level))
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger().Level(level)
}

// L returns the global logger. Call Init() once on startup.
func L() *zerolog.Logger {
	if base.GetLevel() == zerolog.NoLevel {
		Init()
	}
	return &base
}

// Named returns a child of the global logger tagged with a component field.
func Named(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

// WithRequestID stores a child of the global logger carrying request_id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	l := L().With().Str("request_id", id).Logger()
	return l.WithContext(ctx)
}

// Ctx returns the logger stored in ctx, or the global logger when there is none.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return L()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
