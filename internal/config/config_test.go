package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://localhost/ads_console?sslmode=disable"

google_ads:
  developer_token: "dev-token"
  timeout_seconds: 45

sync:
  enabled: true
  metrics_refresh_minutes: 30

rules:
  enabled: true
  tick_interval_seconds: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "dev-token", cfg.GoogleAds.DeveloperToken)
	assert.Equal(t, 45, cfg.GoogleAds.TimeoutSeconds)
	assert.Equal(t, 30, cfg.Sync.MetricsRefreshMinutes)
	assert.Equal(t, 60, cfg.Rules.TickIntervalSeconds)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/ads_console"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://googleads.googleapis.com/v17", cfg.GoogleAds.BaseURL)
	assert.Equal(t, 2840, cfg.DataForSEO.LocationCode)
	assert.Equal(t, "heuristic", cfg.Assistant.Provider)
	assert.Equal(t, 6, cfg.Sync.HierarchyRefreshHours)
	assert.Equal(t, 6, cfg.Metrics.FreshnessHours)
	assert.Equal(t, "ads_console_session", cfg.Auth.CookieName)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/from_yaml"
`)

	t.Setenv("DATABASE_URL", "postgres://prod-host/ads_console")
	t.Setenv("GOOGLE_ADS_DEVELOPER_TOKEN", "env-token")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://prod-host/ads_console", cfg.Database.URL)
	assert.Equal(t, "env-token", cfg.GoogleAds.DeveloperToken)
	assert.Equal(t, "sk-ant-test", cfg.Assistant.AnthropicAPIKey)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())

	cfg.Database.URL = "postgres://localhost/x"
	assert.NoError(t, cfg.Validate())

	cfg.Sync.Enabled = true
	assert.Error(t, cfg.Validate(), "sync without developer token must fail")

	cfg.GoogleAds.DeveloperToken = "tok"
	assert.NoError(t, cfg.Validate())

	cfg.Auth.Enabled = true
	assert.Error(t, cfg.Validate(), "auth without client credentials must fail")
}
