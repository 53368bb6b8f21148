package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, "gemini-1.5-flash", cfg.LLMModel)
	require.Equal(t, 60*time.Second, cfg.LLMTimeout)
	require.Empty(t, cfg.APIKeys)
	require.Equal(t, "X-API-Key", cfg.APIKeyHeader)
	require.Equal(t, 100, cfg.RateLimitPerMinute)
	require.Equal(t, "memory", cfg.RateLimitBackend)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.False(t, cfg.Debug)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("API_KEYS", "alpha, beta ,,gamma")
	t.Setenv("API_KEY_HEADER", "X-Client-Key")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("LLM_TIMEOUT_SECONDS", "15")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,https://app.example.com")
	t.Setenv("DEBUG", "True")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.ServerPort)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.APIKeys)
	require.Equal(t, "X-Client-Key", cfg.APIKeyHeader)
	require.Equal(t, 5, cfg.RateLimitPerMinute)
	require.Equal(t, 15*time.Second, cfg.LLMTimeout)
	require.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowedOrigins)
	require.True(t, cfg.Debug)
}

func TestLoadRejectsNonNumericLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "RATE_LIMIT_PER_MINUTE")
}
