package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// viper ignores empty environment values, so these fall back to defaults.
	t.Setenv("RECORD_SOURCE", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, SourceMySQL, cfg.RecordSource)
	assert.Equal(t, 15, cfg.JWTExpirationMinutes)
	assert.Equal(t, 10*time.Second, cfg.Mongo.Timeout)
	assert.Equal(t, "appointments", cfg.Mongo.AppointmentsCollection)
	assert.Equal(t, uint32(5), cfg.Upstream.BreakerFailures)
	assert.Equal(t, "root:secret@tcp(localhost:3306)/hospital?charset=utf8mb4&parseTime=True&loc=UTC", cfg.Database.DSN)
	assert.True(t, cfg.IsDev())
}

func TestLoadConfig_HTTPSourceNeedsBaseURL(t *testing.T) {
	t.Setenv("RECORD_SOURCE", "HTTP")
	t.Setenv("UPSTREAM_BASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_BASE_URL")

	t.Setenv("UPSTREAM_BASE_URL", "https://backend.example.com/api/")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, SourceHTTP, cfg.RecordSource)
	assert.Equal(t, "https://backend.example.com/api", cfg.Upstream.BaseURL)
}

func TestValidate(t *testing.T) {
	base := Config{
		RecordSource:              SourceMongo,
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 24,
		JWTSecret:                 "default_jwt_secret",
		JWTRefreshSecret:          "default_refresh_secret",
	}

	dev := base
	dev.Environment = "development"
	assert.NoError(t, dev.Validate())

	prod := base
	prod.Environment = "production"
	err := prod.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be set in production")
	assert.Contains(t, err.Error(), "JWT_REFRESH_SECRET must be set in production")

	bad := base
	bad.RecordSource = "csv"
	assert.ErrorContains(t, bad.Validate(), "RECORD_SOURCE")
}
