package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"klineDownloader/internal/adapters/logger" // Import the logger package for LogLevel
	"klineDownloader/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Download request
	Symbol    string
	Interval  string
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, exclusive

	// Exchange
	Market      domain.Market
	BaseURL     string // Empty uses the market's production URL
	BatchLimit  int
	HTTPTimeout time.Duration

	// Throttling between requests
	RequestDelay time.Duration

	// Output
	TimezoneName string
	Location     *time.Location
	OutputDir    string
	HeaderLang   string

	// Run journal, empty disables it
	RunDBPath string

	// Logging
	LogLevel logger.LogLevel
	LogFile  string
}

// Option overrides a loaded value before validation.
type Option func(*Config)

// LoadConfig loads configuration from environment variables (.env file).
// Options are applied after the environment and before validation.
func LoadConfig(opts ...Option) (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.Symbol = getEnv("SYMBOL", "BTCUSDT")
	cfg.Interval = getEnv("INTERVAL", "1h")
	cfg.StartDate = getEnv("START_DATE", "2020-01-01")
	cfg.EndDate = getEnv("END_DATE", "2025-07-01")

	cfg.Market = domain.Market(strings.ToLower(getEnv("MARKET", string(domain.MarketSpot))))
	cfg.BaseURL = getEnv("BINANCE_BASE_URL", "")

	cfg.BatchLimit, err = getEnvAsIntRequired("BATCH_LIMIT", domain.MaxBatchLimit)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BATCH_LIMIT: %v", err))
	}

	requestDelayMs, err := getEnvAsIntRequired("REQUEST_DELAY_MS", 100)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REQUEST_DELAY_MS: %v", err))
	}
	cfg.RequestDelay = time.Duration(requestDelayMs) * time.Millisecond

	httpTimeoutSeconds, err := getEnvAsIntRequired("HTTP_TIMEOUT_SECONDS", 30)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HTTP_TIMEOUT_SECONDS: %v", err))
	}
	cfg.HTTPTimeout = time.Duration(httpTimeoutSeconds) * time.Second

	cfg.TimezoneName = getEnv("TIMEZONE", "Local")
	cfg.OutputDir = getEnv("OUTPUT_DIR", "kline_data")
	cfg.HeaderLang = strings.ToLower(getEnv("HEADER_LANG", "zh"))

	// RUN_DB_PATH set to an empty string disables the journal.
	cfg.RunDBPath = "kline_data/download_runs.db"
	if v, ok := os.LookupEnv("RUN_DB_PATH"); ok {
		cfg.RunDBPath = v
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogFile = getEnv("LOG_FILE", "")

	for _, opt := range opts {
		opt(cfg)
	}

	errs = append(errs, cfg.validate()...)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// validate checks every field and resolves Location.
func (c *Config) validate() []string {
	var errs []string

	if c.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	if _, err := domain.ParseInterval(c.Interval); err != nil {
		errs = append(errs, err.Error())
	}

	loc, err := time.LoadLocation(c.TimezoneName)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TIMEZONE %q: %v", c.TimezoneName, err))
	} else {
		c.Location = loc
	}

	start, startErr := time.Parse(domain.DateLayout, c.StartDate)
	if startErr != nil {
		errs = append(errs, fmt.Sprintf("START_DATE must be %s, got %q", domain.DateLayout, c.StartDate))
	}
	end, endErr := time.Parse(domain.DateLayout, c.EndDate)
	if endErr != nil {
		errs = append(errs, fmt.Sprintf("END_DATE must be %s, got %q", domain.DateLayout, c.EndDate))
	}
	if startErr == nil && endErr == nil && !start.Before(end) {
		errs = append(errs, "START_DATE must be before END_DATE")
	}

	switch c.Market {
	case domain.MarketSpot, domain.MarketFutures:
	default:
		errs = append(errs, fmt.Sprintf("MARKET must be %q or %q", domain.MarketSpot, domain.MarketFutures))
	}

	if c.BatchLimit <= 0 || c.BatchLimit > domain.MaxBatchLimit {
		errs = append(errs, fmt.Sprintf("BATCH_LIMIT must be between 1 and %d", domain.MaxBatchLimit))
	}
	if c.RequestDelay < 0 {
		errs = append(errs, "REQUEST_DELAY_MS cannot be negative")
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.OutputDir == "" {
		errs = append(errs, "OUTPUT_DIR must be set")
	}
	if c.HeaderLang != "zh" && c.HeaderLang != "en" {
		errs = append(errs, "HEADER_LANG must be zh or en")
	}

	return errs
}

// Request returns the download request described by the configuration.
func (c *Config) Request() domain.DownloadRequest {
	return domain.DownloadRequest{
		Symbol:    c.Symbol,
		Interval:  c.Interval,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
	}
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
