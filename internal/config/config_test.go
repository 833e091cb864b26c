package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("AUTH_ACCESS_TTL", "")
	t.Setenv("AUTH_REFRESH_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev-secret", cfg.Auth.Secret)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, 5, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, time.Minute, cfg.RateLimit.LoginWindow())
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SECRET")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("AUTH_ACCESS_TTL", "60")
	t.Setenv("AUTH_REFRESH_TTL", "3600")
	t.Setenv("LOGIN_RATE_LIMIT_ATTEMPTS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, 3, cfg.RateLimit.LoginAttempts)
}

func TestValidateTTLOrdering(t *testing.T) {
	cfg := &Config{
		Auth:      AuthConfig{Secret: "x", AccessTTLSeconds: 600, RefreshTTLSeconds: 600},
		RateLimit: RateLimitConfig{LoginAttempts: 1, LoginWindowSeconds: 1},
		Logger:    LoggerConfig{Format: "json"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_REFRESH_TTL")

	cfg.Auth.RefreshTTLSeconds = 601
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}
