package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// MaxFetchAttempts bounds FETCH_MAX_ATTEMPTS
const MaxFetchAttempts = 10

// Config holds the scraper configuration.
type Config struct {
	CollectorMode    string
	BaseURL          string
	UserAgent        string
	FetchTimeout     time.Duration
	FetchMaxAttempts int

	DataDir        string
	CategoriesFile string
	LogLevel       slog.Level

	// Empty runs a single cycle and exits
	Schedule      string
	DashboardPort string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// A missing .env is fine; production configures through the environment
	_ = godotenv.Load()

	cfg := &Config{
		CollectorMode:    getEnv("COLLECTOR_MODE", "public"),
		BaseURL:          getEnv("TRENDING_BASE_URL", "https://github.com"),
		UserAgent:        getEnv("TRENDING_USER_AGENT", ""),
		FetchTimeout:     time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		FetchMaxAttempts: getEnvAsInt("FETCH_MAX_ATTEMPTS", 3),
		DataDir:          getEnv("DATA_DIR", "data"),
		CategoriesFile:   getEnv("CATEGORIES_FILE", "input/categories.csv"),
		LogLevel:         parseLevel(getEnv("LOG_LEVEL", "info")),
		Schedule:         strings.TrimSpace(getEnv("SCRAPE_SCHEDULE", "")),
		DashboardPort:    getEnv("DASHBOARD_PORT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.CollectorMode {
	case "public", "mock":
	default:
		return fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'public' or 'mock')", c.CollectorMode)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid SCRAPE_SCHEDULE %q: %w", c.Schedule, err)
		}
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.FetchMaxAttempts <= 0 {
		c.FetchMaxAttempts = 3
	}
	if c.FetchMaxAttempts > MaxFetchAttempts {
		c.FetchMaxAttempts = MaxFetchAttempts
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
