package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"stockcast/forecast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "JWT_SECRET", "DATABASE_URL", "ADVISORY_TIMEOUT", "FORECAST_LOOKBACK_DAYS", "CRON_FORECAST"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, forecast.DefaultConfig(), cfg.Forecast.Config)
	assert.Equal(t, 90, cfg.Forecast.LookbackDays)
	assert.Equal(t, forecast.DefaultConcurrency, cfg.Forecast.Concurrency)
	assert.Equal(t, forecast.DefaultAdvisoryTimeout, cfg.Advisory.Timeout)
	assert.Equal(t, "0 0 2 * * *", cfg.Schedule.ForecastCron)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":8080"
auth:
  jwt_secret: from-file
database:
  url: postgres://file
advisory:
  model: gemini-test
  timeout: 3s
forecast:
  horizon_days: 14
  lookback_days: 60
schedule:
  forecast_cron: "0 30 1 * * *"
`)
	clearEnv(t)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("RUN_ON_START", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "postgres://file", cfg.Database.URL)
	assert.Equal(t, "gemini-test", cfg.Advisory.Model)
	assert.Equal(t, 3*time.Second, cfg.Advisory.Timeout)
	assert.Equal(t, 14, cfg.Forecast.HorizonDays)
	assert.Equal(t, 0.3, cfg.Forecast.Alpha, "unset keys keep their defaults")
	assert.Equal(t, 60, cfg.Forecast.LookbackDays)
	assert.Equal(t, "0 30 1 * * *", cfg.Schedule.ForecastCron)
	assert.True(t, cfg.Schedule.RunOnStart)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_BadEnvDuration(t *testing.T) {
	t.Setenv("ADVISORY_TIMEOUT", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate(), "secret and database are required")

	cfg.Auth.JWTSecret = "s"
	cfg.Database.URL = "postgres://x"
	require.NoError(t, cfg.Validate())

	cfg.Forecast.ESWeight = 0.9
	assert.ErrorIs(t, cfg.Validate(), forecast.ErrInvalidConfig)
}
