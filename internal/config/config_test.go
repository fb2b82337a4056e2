package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Zero(t, cfg.Backend.Timeout, "requests are bounded only by the caller's context unless a timeout is configured")
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "consentctl.yaml", `
backend:
  base_url: https://consent.example.com/api
  timeout: 5s
server:
  address: ":9000"
log:
  level: debug
  format: json
analytics:
  enabled: false
  refresh: "*/10 * * * *"
pipeline:
  sequencing: false
consent:
  categories: [analytics, marketing, functional]
preset: presets/basic.yaml
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://consent.example.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Analytics.Enabled)
	assert.Equal(t, "*/10 * * * *", cfg.Analytics.Refresh)
	assert.False(t, cfg.Pipeline.Sequencing)
	assert.Equal(t, []string{"analytics", "marketing", "functional"}, cfg.Consent.Categories)
	assert.Equal(t, "presets/basic.yaml", cfg.Preset)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "consentctl.yaml", "backend:\n  base_url: http://file.example\n")
	t.Setenv("CONSENTCTL_BACKEND_BASE_URL", "http://env.example")
	t.Setenv("CONSENTCTL_CONSENT_CATEGORIES", "ads, , statistics")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example", cfg.Backend.BaseURL)
	assert.Equal(t, []string{"ads", "statistics"}, cfg.Consent.Categories)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeFile(t, "bad.yaml", "backend:\n  base_url: not-a-url\nlog:\n  level: loud\n  format: xml\n")
	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.base_url")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "CONSENTCTL_SERVER_ADDRESS=127.0.0.1:7000\n")
	t.Setenv("CONSENTCTL_SERVER_ADDRESS", "")
	require.NoError(t, os.Unsetenv("CONSENTCTL_SERVER_ADDRESS"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "127.0.0.1:7000", os.Getenv("CONSENTCTL_SERVER_ADDRESS"))

	cfg, err := Load(viper.New(), writeFile(t, "c.yaml", "log:\n  level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Address)
}

func TestValidate_EmptyCategories(t *testing.T) {
	cfg := Default()
	cfg.Consent.Categories = nil
	assert.Error(t, cfg.Validate())
}
