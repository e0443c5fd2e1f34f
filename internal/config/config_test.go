package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://financialmodelingprep.com", cfg.FMPBaseURL)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, cfg.Watchlist)
	assert.True(t, cfg.IncludeExtendedHours)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "9090")
	t.Setenv("FMP_API_KEY", "secret")
	t.Setenv("WATCHLIST", "AAPL, BTC-USD ,,MSFT")
	t.Setenv("EXTENDED_HOURS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "secret", cfg.FMPAPIKey)
	assert.Equal(t, []string{"AAPL", "BTC-USD", "MSFT"}, cfg.Watchlist)
	assert.False(t, cfg.IncludeExtendedHours)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}

func TestCalendarFileIsResolvedToAbsolutePath(t *testing.T) {
	t.Setenv("CALENDAR_FILE", "calendar.yml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, len(cfg.CalendarFile) > len("calendar.yml"))
}

func TestSplitSymbols(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "plain list", raw: "AAPL,MSFT", want: []string{"AAPL", "MSFT"}},
		{name: "whitespace and empties", raw: " AAPL ,, MSFT ,", want: []string{"AAPL", "MSFT"}},
		{name: "empty string", raw: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSymbols(tt.raw))
		})
	}
}
