package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.AdminAddr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100_000, cfg.Buffer.MaxTotalRecords)
	assert.Equal(t, 0.8, cfg.Buffer.BackpressureThreshold)
	assert.Equal(t, "round_robin", cfg.LoadBalancer.DefaultStrategy)
	assert.False(t, cfg.Checkpoint.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeTempYAML(t, `
buffer:
  max_total_records: 5000
  max_per_stage: 500
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Buffer.MaxTotalRecords)
	assert.Equal(t, 500, cfg.Buffer.MaxPerStage)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys still carry their default.
	assert.Equal(t, 5_000, cfg.Buffer.MaxPerSource)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeTempYAML(t, `
log:
  level: debug
`)
	t.Setenv("ETL_ROUTER_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_ExplicitMissingConfigFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidBackpressureThresholdRejected(t *testing.T) {
	path := writeTempYAML(t, `
buffer:
  backpressure_threshold: 1.5
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestBufferConfig_AsBufferConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bc := cfg.Buffer.AsBufferConfig()
	assert.Equal(t, cfg.Buffer.MaxTotalRecords, bc.MaxTotalRecords)
	assert.Equal(t, cfg.Buffer.BackpressureThreshold, bc.BackpressureThreshold)
}
