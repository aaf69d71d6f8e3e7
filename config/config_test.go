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

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "3_backtest_file.csv", cfg.Backtest.DataPath)
	assert.Equal(t, 1.1, cfg.Backtest.Threshold)
	assert.Equal(t, 1000.0, cfg.Backtest.BaseCapital)
	assert.True(t, cfg.FindBest())
	assert.Equal(t, 1.0, cfg.Backtest.Sweep.Min)
	assert.Equal(t, 1.9, cfg.Backtest.Sweep.Max)
	assert.Equal(t, 0.1, cfg.Backtest.Sweep.Step)
	assert.Equal(t, "backtests.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1.1, cfg.Backtest.Threshold)
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
backtest:
  data_path: data/pair.csv
  threshold: 1.5
  find_best: false
  sweep:
    thresholds: [1.2, 1.6, 2.0]
    workers: 3
storage:
  dsn: ":memory:"
output:
  csv_path: out/sim.csv
log:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "data/pair.csv", cfg.Backtest.DataPath)
	assert.Equal(t, 1.5, cfg.Backtest.Threshold)
	assert.False(t, cfg.FindBest())
	assert.Equal(t, []float64{1.2, 1.6, 2.0}, cfg.Backtest.Sweep.Thresholds)
	assert.Equal(t, 3, cfg.Backtest.Sweep.Workers)
	assert.Zero(t, cfg.Backtest.Sweep.Step)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, "out/sim.csv", cfg.Output.CSVPath)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("BACKTEST_THRESHOLD", "1.7")
	t.Setenv("BACKTEST_DATA_PATH", "env.csv")
	t.Setenv("BACKTEST_DB", "env.db")

	cfg, err := Load(writeConfig(t, "backtest:\n  threshold: 1.2\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 1.7, cfg.Backtest.Threshold)
	assert.Equal(t, "env.csv", cfg.Backtest.DataPath)
	assert.Equal(t, "env.db", cfg.Storage.DSN)
}

func TestLoad_BadEnvThreshold(t *testing.T) {
	t.Setenv("BACKTEST_THRESHOLD", "abc")
	_, err := Load(writeConfig(t, "{}\n"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"negative threshold": "backtest:\n  threshold: -1\n",
		"negative capital":   "backtest:\n  base_capital: -5\n",
		"bad candidate":      "backtest:\n  sweep:\n    thresholds: [1.0, 0]\n",
		"inverted range":     "backtest:\n  sweep:\n    min: 2.0\n    max: 1.0\n",
		"negative step":      "backtest:\n  sweep:\n    step: -0.1\n",
		"inf max":            "backtest:\n  sweep:\n    max: .inf\n",
		"nan min":            "backtest:\n  sweep:\n    min: .nan\n",
		"inf step":           "backtest:\n  sweep:\n    step: .inf\n",
		"inf threshold":      "backtest:\n  threshold: .inf\n",
		"nan candidate":      "backtest:\n  sweep:\n    thresholds: [1.0, .nan]\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "backtest: [\n"))
	assert.Error(t, err)
}
