package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system,
// such as server settings, the Postgres connection and the market-data provider.
//
// Example ENV:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=marketpulse
//	MARKETDATA_PROVIDER=yahoo
//	UNIVERSE_FILE=./universe.yaml
//	PULSE_CRON="0 30 16 * * MON-FRI"
//	MARKET_TIMEZONE=America/New_York
//	JWT_SECRET=change-me
type Config struct {
	Server     ServerConfig     // HTTP server configuration
	Postgres   PostgresConfig   // PostgreSQL connection settings
	Log        LogConfig        // Logger level and format
	MarketData MarketDataConfig // Quote provider selection and client tuning
	Pulse      PulseConfig      // Breadth aggregation settings
	Scheduler  SchedulerConfig  // Daily job schedule
	Auth       AuthConfig       // Bearer token validation
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        // The TCP port the HTTP server will listen on (e.g., "8080")
	RateLimitPerMinute int           // Requests per client IP per minute; 0 disables limiting
	CacheBucket        time.Duration // Period-history cache bucket
	RequestTimeout     time.Duration // Context deadline for read endpoints
	JobTimeout         time.Duration // Context deadline for aggregation and backfill endpoints
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
//   - AutoMigrate: apply pending goose migrations when the API starts.
type PostgresConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	URL         string
	AutoMigrate bool
}

// LogConfig mirrors LOG_LEVEL and LOG_PRETTY.
type LogConfig struct {
	Level  string
	Pretty bool
}

// MarketDataConfig selects and tunes the quote provider.
//
// Provider is one of "yahoo", "financego" or "csv". CSVDir is only read by
// the csv provider, BaseURL and Retries only by yahoo.
type MarketDataConfig struct {
	Provider     string
	BaseURL      string
	Timeout      time.Duration
	Retries      int
	LookbackDays int
	CSVDir       string
	BackfillDays int
}

// PulseConfig tunes the daily breadth aggregation.
type PulseConfig struct {
	UniverseFile  string
	Parallel      int
	RetentionDays int
	Timezone      string
}

// SchedulerConfig controls the cron job that runs the aggregation.
type SchedulerConfig struct {
	Enabled bool
	Cron    string // six-field cron spec (with seconds)
}

// AuthConfig holds the HS256 secret used to validate bearer tokens.
// An empty secret rejects every protected request.
type AuthConfig struct {
	JWTSecret string
}

// Providers lists the accepted MARKETDATA_PROVIDER values.
var Providers = []string{"yahoo", "financego", "csv"}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
// All services should import this package and read from AppConfig instead of
// reloading environment variables directly.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing or invalid, validateConfig() terminates
//     the app with a descriptive log message.
func LoadConfig() {
	setDefaults()

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:               viper.GetString("SERVER_PORT"),
			RateLimitPerMinute: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
			CacheBucket:        viper.GetDuration("CACHE_BUCKET"),
			RequestTimeout:     viper.GetDuration("REQUEST_TIMEOUT"),
			JobTimeout:         viper.GetDuration("JOB_TIMEOUT"),
		},
		Postgres: PostgresConfig{
			Host:        viper.GetString("POSTGRES_HOST"),
			Port:        viper.GetInt("POSTGRES_PORT"),
			User:        viper.GetString("POSTGRES_USER"),
			Password:    viper.GetString("POSTGRES_PASSWORD"),
			DBName:      viper.GetString("POSTGRES_DB"),
			SSLMode:     viper.GetString("POSTGRES_SSLMODE"),
			AutoMigrate: viper.GetBool("AUTO_MIGRATE"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Pretty: viper.GetBool("LOG_PRETTY"),
		},
		MarketData: MarketDataConfig{
			Provider:     strings.ToLower(viper.GetString("MARKETDATA_PROVIDER")),
			BaseURL:      viper.GetString("MARKETDATA_BASE_URL"),
			Timeout:      viper.GetDuration("MARKETDATA_TIMEOUT"),
			Retries:      viper.GetInt("MARKETDATA_RETRIES"),
			LookbackDays: viper.GetInt("MARKETDATA_LOOKBACK_DAYS"),
			CSVDir:       viper.GetString("MARKETDATA_CSV_DIR"),
			BackfillDays: viper.GetInt("BACKFILL_DAYS"),
		},
		Pulse: PulseConfig{
			UniverseFile:  viper.GetString("UNIVERSE_FILE"),
			Parallel:      viper.GetInt("PULSE_PARALLEL"),
			RetentionDays: viper.GetInt("PULSE_RETENTION_DAYS"),
			Timezone:      viper.GetString("MARKET_TIMEZONE"),
		},
		Scheduler: SchedulerConfig{
			Enabled: viper.GetBool("SCHEDULER_ENABLED"),
			Cron:    viper.GetString("PULSE_CRON"),
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("JWT_SECRET"),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	// Validate critical fields
	validateConfig()
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("CACHE_BUCKET", "1h")
	viper.SetDefault("REQUEST_TIMEOUT", "10s")
	viper.SetDefault("JOB_TIMEOUT", "30m")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "marketpulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("AUTO_MIGRATE", false)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PRETTY", false)

	viper.SetDefault("MARKETDATA_PROVIDER", "yahoo")
	viper.SetDefault("MARKETDATA_BASE_URL", "https://query1.finance.yahoo.com")
	viper.SetDefault("MARKETDATA_TIMEOUT", "15s")
	viper.SetDefault("MARKETDATA_RETRIES", 2)
	viper.SetDefault("MARKETDATA_LOOKBACK_DAYS", 400)
	viper.SetDefault("MARKETDATA_CSV_DIR", "./data/quotes")
	viper.SetDefault("BACKFILL_DAYS", 1825)

	viper.SetDefault("UNIVERSE_FILE", "./universe.yaml")
	viper.SetDefault("PULSE_PARALLEL", 8)
	viper.SetDefault("PULSE_RETENTION_DAYS", 365)
	viper.SetDefault("MARKET_TIMEZONE", "America/New_York")

	viper.SetDefault("SCHEDULER_ENABLED", false)
	viper.SetDefault("PULSE_CRON", "0 30 16 * * MON-FRI")

	viper.SetDefault("JWT_SECRET", "")
}

// Location resolves Pulse.Timezone, falling back to UTC when it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Pulse.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// validateConfig ensures required variables are present and valid and
// terminates the application otherwise.
//
// Behavior:
//   - Collects problems via checkConfig.
//   - If any are found, logs them and terminates the app with log.Fatalf().
func validateConfig() {
	if problems := checkConfig(AppConfig); len(problems) > 0 {
		log.Fatalf("❌ Invalid configuration: %v\n", problems)
	}
}

// checkConfig lists missing or invalid settings by variable name.
func checkConfig(cfg Config) []string {
	var problems []string

	if cfg.Server.Port == "" {
		problems = append(problems, "SERVER_PORT")
	}
	if cfg.Postgres.Host == "" {
		problems = append(problems, "POSTGRES_HOST")
	}
	if cfg.Postgres.Port == 0 {
		problems = append(problems, "POSTGRES_PORT")
	}
	if cfg.Postgres.User == "" {
		problems = append(problems, "POSTGRES_USER")
	}
	if cfg.Postgres.Password == "" {
		problems = append(problems, "POSTGRES_PASSWORD")
	}
	if cfg.Postgres.DBName == "" {
		problems = append(problems, "POSTGRES_DB")
	}
	if !slices.Contains(Providers, cfg.MarketData.Provider) {
		problems = append(problems, fmt.Sprintf("MARKETDATA_PROVIDER (one of %v)", Providers))
	}
	if cfg.MarketData.Provider == "csv" && cfg.MarketData.CSVDir == "" {
		problems = append(problems, "MARKETDATA_CSV_DIR")
	}
	if cfg.MarketData.LookbackDays < 365 {
		problems = append(problems, "MARKETDATA_LOOKBACK_DAYS (>= 365)")
	}
	if cfg.Pulse.UniverseFile == "" {
		problems = append(problems, "UNIVERSE_FILE")
	}
	if cfg.Pulse.RetentionDays <= 0 {
		problems = append(problems, "PULSE_RETENTION_DAYS (> 0)")
	}
	if _, err := time.LoadLocation(cfg.Pulse.Timezone); err != nil || cfg.Pulse.Timezone == "" {
		problems = append(problems, "MARKET_TIMEZONE")
	}
	if cfg.Scheduler.Enabled && cfg.Scheduler.Cron == "" {
		problems = append(problems, "PULSE_CRON")
	}
	if cfg.Server.JobTimeout > 0 && cfg.Server.JobTimeout <= cfg.MarketData.Timeout {
		problems = append(problems, "JOB_TIMEOUT (> MARKETDATA_TIMEOUT)")
	}

	return problems
}
