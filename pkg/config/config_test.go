package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// No config.yaml exists in this package directory, so Load exercises the
// env-only path.
func TestLoad(t *testing.T) {
	t.Run("defaults apply for a local environment", func(t *testing.T) {
		cfg, err := Load("test-version")
		require.NoError(t, err)

		assert.Equal(t, "test-version", cfg.Version)
		assert.Equal(t, "127.0.0.1", cfg.BindAddr)
		assert.Equal(t, "3030", cfg.Port)
		assert.Equal(t, "local", cfg.Env)
		assert.Equal(t, "migrations", cfg.MigrationsPath)
		assert.Equal(t, 30*time.Minute, cfg.AccreditationRefreshInterval())
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("PGHOST", "db.internal")
		t.Setenv("ACCREDITATION_REFRESH_INTERVAL_MS", "60000")

		cfg, err := Load("dev")
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, time.Minute, cfg.AccreditationRefreshInterval())
	})

	t.Run("token secret is required outside local", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")

		_, err := Load("dev")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TOKEN_SECRET")

		t.Setenv("TOKEN_SECRET", "super-secret")
		cfg, err := Load("dev")
		require.NoError(t, err)
		assert.Equal(t, "super-secret", cfg.TokenSecret)
	})

	t.Run("refresh interval must be positive", func(t *testing.T) {
		t.Setenv("ACCREDITATION_REFRESH_INTERVAL_MS", "-5")

		_, err := Load("dev")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "refresh interval")
	})
}

func TestDatabaseConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "register",
		Password: "hunter2",
		Database: "register_engine",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=register password=hunter2 dbname=register_engine sslmode=disable",
		db.ConnectionString())
}
