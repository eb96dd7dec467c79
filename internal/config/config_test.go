package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTP.ListenAddress)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
	assert.False(t, cfg.HTTP.SecureCookies)
	assert.Equal(t, "postmat-sandbox.sqlite", cfg.Database.URL)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "@every 10m", cfg.Session.SweepSchedule)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.ShouldSeedAdmin())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SANDBOX_HTTP_LISTEN_ADDRESS", ":9090")
	t.Setenv("SANDBOX_HTTP_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("SANDBOX_SESSION_TTL", "90m")
	t.Setenv("SANDBOX_ADMIN_EMAIL", "admin@postmat.test")
	t.Setenv("SANDBOX_ADMIN_PASSWORD", "secret")
	t.Setenv("SANDBOX_LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.ListenAddress)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 90*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.ShouldSeedAdmin())
}

func TestLoad_RejectsNonPositiveTTL(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SANDBOX_SESSION_TTL", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SANDBOX_SESSION_TTL")
}
