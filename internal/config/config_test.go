package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "BACKEND_URL", "BACKEND_TIMEOUT", "RATE_REFRESH_INTERVAL", "LOGIN_REDIRECT_DELAY", "TELEGRAM_CHAT_ID"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Server.LoginRedirectDelay)
	assert.Equal(t, "http://localhost:5000/api", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Zero(t, cfg.Rates.RefreshInterval)
	assert.Zero(t, cfg.Telegram.ChatID)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("RATE_REFRESH_INTERVAL", "5m")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Rates.RefreshInterval)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, int64(-100123), cfg.Telegram.ChatID)
	assert.Equal(t, 20, cfg.RateLimit.BurstSize)
}

func TestLoadMethodOverrides(t *testing.T) {
	overrides, err := LoadMethodOverrides("")
	require.NoError(t, err)
	assert.Nil(t, overrides)

	path := filepath.Join(t.TempDir(), "methods.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
methods:
  - id: USD
    fee_coins: 750
    min_withdraw_units: 30
  - id: Steam
    kind: giftcard
    display_name: Steam gift card
    server_cost_fraction: 0.04
    wait_time: Within 24 hours
`), 0o600))

	overrides, err = LoadMethodOverrides(path)
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	assert.Equal(t, "USD", overrides[0].ID)
	require.NotNil(t, overrides[0].FeeCoins)
	assert.Equal(t, 750.0, *overrides[0].FeeCoins)
	assert.Nil(t, overrides[0].Rate)
	assert.Equal(t, "giftcard", overrides[1].Kind)
	assert.Equal(t, 0.04, *overrides[1].ServerCostFraction)
}

func TestLoadMethodOverridesErrors(t *testing.T) {
	_, err := LoadMethodOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("methods:\n  - fee_coins: 1\n"), 0o600))
	_, err = LoadMethodOverrides(path)
	assert.ErrorContains(t, err, "no id")
}
