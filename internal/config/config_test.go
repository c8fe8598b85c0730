package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "30s", cfg.Server.ReadTimeout)
	assert.Equal(t, "60s", cfg.Server.WriteTimeout)
	assert.Equal(t, 2.0, cfg.Detector.ZScoreThreshold)
	assert.Equal(t, 10.0, cfg.Detector.MinCostThreshold)
	assert.Equal(t, 0.8, cfg.Detector.ConfidenceThreshold)
	assert.Equal(t, 7, cfg.Detector.MinHistoryDays)
	assert.Equal(t, 30, cfg.Detector.LookbackDays)
	assert.Equal(t, "profiles/", cfg.Profiles.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "#cost-anomalies", cfg.Alerts.Slack.Channel)
	assert.False(t, cfg.Alerts.Slack.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
storage:
  path: /tmp/test.db
server:
  listen: ":9090"
detector:
  z_score_threshold: 3.0
  lookback_days: 60
alerts:
  slack:
    enabled: true
    webhook_url: https://hooks.slack.com/services/TEST
logging:
  level: debug
`)
	err := os.WriteFile(cfgPath, data, 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, 3.0, cfg.Detector.ZScoreThreshold)
	assert.Equal(t, 60, cfg.Detector.LookbackDays)
	assert.True(t, cfg.Alerts.Slack.Enabled)
	assert.Equal(t, "https://hooks.slack.com/services/TEST", cfg.Alerts.Slack.WebhookURL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, 10.0, cfg.Detector.MinCostThreshold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COSTWATCH_LOGGING_LEVEL", "error")
	t.Setenv("COSTWATCH_SERVER_LISTEN", ":7070")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, ":7070", cfg.Server.Listen)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	err := os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644)
	require.NoError(t, err)

	_, err = config.Load(cfgPath)
	assert.Error(t, err)
}
