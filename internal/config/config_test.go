package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 72*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 45, cfg.Engine.DefaultDailyMinutes)
	assert.Equal(t, 20, cfg.Engine.ReviewQueueLimit)
	assert.Contains(t, cfg.Database.DSN(), "dbname=exam_mentor")
	assert.True(t, cfg.Auth.UsesDevSecret())
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MENTOR_DATABASE_HOST", "db.internal")
	t.Setenv("MENTOR_ENGINE_DEFAULT_DAILY_MINUTES", "60")
	t.Setenv("PORT", "9090")
	t.Setenv("MENTOR_AUTH_JWT_SECRET", "a-production-signing-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 60, cfg.Engine.DefaultDailyMinutes)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Auth.UsesDevSecret())
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MENTOR_ENGINE_DEFAULT_DAILY_MINUTES", "5")

	_, err := Load()
	assert.Error(t, err)
}
