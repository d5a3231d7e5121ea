package config

import (
	"testing"
	"time"

	"klineDownloader/internal/adapters/logger"
	"klineDownloader/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key LoadConfig reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SYMBOL", "INTERVAL", "START_DATE", "END_DATE", "MARKET", "BINANCE_BASE_URL",
		"BATCH_LIMIT", "REQUEST_DELAY_MS", "HTTP_TIMEOUT_SECONDS", "TIMEZONE", "OUTPUT_DIR",
		"HEADER_LANG", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, "1h", cfg.Interval)
	assert.Equal(t, "2020-01-01", cfg.StartDate)
	assert.Equal(t, "2025-07-01", cfg.EndDate)
	assert.Equal(t, domain.MarketSpot, cfg.Market)
	assert.Equal(t, 1000, cfg.BatchLimit)
	assert.Equal(t, 100*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, "kline_data", cfg.OutputDir)
	assert.Equal(t, "zh", cfg.HeaderLang)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Equal(t, domain.DownloadRequest{Symbol: "BTCUSDT", Interval: "1h", StartDate: "2020-01-01", EndDate: "2025-07-01"}, cfg.Request())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYMBOL", "ETHUSDT")
	t.Setenv("INTERVAL", "15m")
	t.Setenv("START_DATE", "2024-01-01")
	t.Setenv("END_DATE", "2024-02-01")
	t.Setenv("MARKET", "FUTURES")
	t.Setenv("BATCH_LIMIT", "500")
	t.Setenv("REQUEST_DELAY_MS", "0")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("HEADER_LANG", "EN")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RUN_DB_PATH", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Symbol)
	assert.Equal(t, "15m", cfg.Interval)
	assert.Equal(t, domain.MarketFutures, cfg.Market)
	assert.Equal(t, 500, cfg.BatchLimit)
	assert.Zero(t, cfg.RequestDelay)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "en", cfg.HeaderLang)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)
	assert.Empty(t, cfg.RunDBPath, "empty RUN_DB_PATH disables the journal")
}

func TestLoadConfig_OptionsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYMBOL", "ETHUSDT")

	cfg, err := LoadConfig(func(c *Config) {
		c.Symbol = "SOLUSDT"
		c.Interval = "4h"
	})
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT", cfg.Symbol)
	assert.Equal(t, "4h", cfg.Interval)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{name: "unsupported interval", env: map[string]string{"INTERVAL": "7h"}, wantMsg: "unsupported interval"},
		{name: "padded interval", env: map[string]string{"INTERVAL": " 1h "}, wantMsg: "unsupported interval"},
		{name: "bad start date", env: map[string]string{"START_DATE": "01/01/2024"}, wantMsg: "START_DATE must be"},
		{name: "start after end", env: map[string]string{"START_DATE": "2024-02-01", "END_DATE": "2024-01-01"}, wantMsg: "START_DATE must be before END_DATE"},
		{name: "same start and end", env: map[string]string{"START_DATE": "2024-01-01", "END_DATE": "2024-01-01"}, wantMsg: "START_DATE must be before END_DATE"},
		{name: "unknown market", env: map[string]string{"MARKET": "options"}, wantMsg: "MARKET must be"},
		{name: "limit above cap", env: map[string]string{"BATCH_LIMIT": "1500"}, wantMsg: "BATCH_LIMIT must be between"},
		{name: "limit not a number", env: map[string]string{"BATCH_LIMIT": "many"}, wantMsg: "invalid BATCH_LIMIT"},
		{name: "negative delay", env: map[string]string{"REQUEST_DELAY_MS": "-5"}, wantMsg: "REQUEST_DELAY_MS cannot be negative"},
		{name: "unknown timezone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}, wantMsg: "invalid TIMEZONE"},
		{name: "unknown header language", env: map[string]string{"HEADER_LANG": "fr"}, wantMsg: "HEADER_LANG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadConfig_CollectsAllErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("INTERVAL", "bogus")
	t.Setenv("MARKET", "bogus")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported interval")
	assert.Contains(t, err.Error(), "MARKET must be")
}
