package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"CONFIG_FILE", "PORT", "SESSION_KEY", "COOKIE_SECURE", "COOKIE_SAMESITE", "LOG_DIR",
		"DATABASE_URL", "POSTGRES_URL", "REDIS_URL", "ALLOWED_ORIGINS", "TRUSTED_PROXIES", "PROFILE_API_KEY", "API_KEY",
		"SESSION_TTL", "BCRYPT_COST", "RATE_LIMIT_PER_MINUTE", "DEMO_USERNAME", "DEMO_PASSWORD_PATH",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 5*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
	assert.Equal(t, "Strict", cfg.CookieSameSite)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("API_KEY", "legacy-key")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.1")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "legacy-key", cfg.ProfileAPIKey)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
session_ttl: 30m
profile_api_key: from-file
rate_limit_per_minute: 5
allowed_origins:
  - https://app.example
`), 0o600))

	clearConfigEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7001", cfg.Port, "env wins over file")
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "from-file", cfg.ProfileAPIKey)
	assert.Equal(t, 5, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"https://app.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 10, cfg.BcryptCost, "unset keys keep defaults")
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))
	clearConfigEnv(t)
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestDurationFromEnv(t *testing.T) {
	t.Setenv("X_TTL", "120")
	assert.Equal(t, 2*time.Minute, durationFromEnv("X_TTL", time.Hour))
	t.Setenv("X_TTL", "-5m")
	assert.Equal(t, time.Hour, durationFromEnv("X_TTL", time.Hour))
}
