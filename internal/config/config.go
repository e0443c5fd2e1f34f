// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	LogLevel string
	Port     int
	DevMode  bool

	// Upstream market data provider (Financial Modeling Prep compatible API).
	// An empty API key switches every upstream category to deterministic mock data.
	FMPAPIKey  string
	FMPBaseURL string

	// CalendarFile optionally overrides the built-in holiday/early-close tables.
	// Resolved to an absolute path; empty means built-ins only.
	CalendarFile string

	// Watchlist is the initial symbol set polled on startup.
	Watchlist []string

	// IncludeExtendedHours enables pre/post-market price fetching for the
	// startup watchlist subscription.
	IncludeExtendedHours bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Port:                 getEnvAsInt("PORT", 8080),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		FMPAPIKey:            getEnv("FMP_API_KEY", ""),
		FMPBaseURL:           getEnv("FMP_BASE_URL", "https://financialmodelingprep.com"),
		CalendarFile:         getEnv("CALENDAR_FILE", ""),
		Watchlist:            splitSymbols(getEnv("WATCHLIST", "AAPL,MSFT,GOOG")),
		IncludeExtendedHours: getEnvAsBool("EXTENDED_HOURS", true),
	}

	if cfg.CalendarFile != "" {
		abs, err := filepath.Abs(cfg.CalendarFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve calendar file path: %w", err)
		}
		cfg.CalendarFile = abs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	// Note: the FMP API key is optional. Without it the service runs with
	// deterministic mock upstreams so the rest of the pipeline stays exercisable.

	return nil
}

// splitSymbols parses a comma-separated symbol list, dropping empty items.
func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			symbols = append(symbols, p)
		}
	}
	return symbols
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
