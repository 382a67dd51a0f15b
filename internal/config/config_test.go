package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Data.Depth)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  name: lob-engine
data:
  path: data/messages.csv
  depth: 10
strategy:
  gamma: 0.2
  sigma: 0.05
  kappa: 2.0
  horizon: 1.0
  size: 3
server:
  port: "8081"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/messages.csv", cfg.Data.Path)
	assert.Equal(t, 10, cfg.Data.Depth)
	assert.Equal(t, 0.2, cfg.Strategy.Gamma)
	assert.Equal(t, int64(3), cfg.Strategy.Size)
	assert.Equal(t, "8081", cfg.Server.Port)
	// Unset keys keep their defaults.
	assert.Equal(t, 50, cfg.Data.WarmupEvents)
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidValues(t *testing.T) {
	path := writeConfig(t, `
strategy:
  gamma: -1
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gamma")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LOB_PORT", "9999")
	t.Setenv("LOB_DATA_PATH", "/tmp/other.csv")

	path := writeConfig(t, `
server:
  port: "8081"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "/tmp/other.csv", cfg.Data.Path)
}
