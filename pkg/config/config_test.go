package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/course.db")
	t.Setenv("JWT_EXPIRATION", "90m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("STAFF_ROLE", "Teacher")
	t.Setenv("ENABLE_METRICS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/course.db", cfg.Database.SQLitePath)
	assert.Equal(t, 90*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "teacher", cfg.Staff.Role)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Hour, parseDuration("", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("soon", time.Hour))
	assert.Equal(t, 5*time.Second, parseDuration("5s", time.Hour))
}
