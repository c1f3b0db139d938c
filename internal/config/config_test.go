package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "jem_session", cfg.Session.CookieName)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, 5, cfg.Auth.LoginAttempts)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", ":9000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 3, cfg.LowStockThreshold)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("SESSION_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "SESSION_TTL")
}
