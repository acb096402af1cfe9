package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridesim/core/model"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `simulation:
  grid_width: 10
  grid_height: 8
  driver_speed: 2
  auto_tick: true
  seed_drivers:
    - {x: 1, y: 1}
scoring:
  fairness_weight: 5
  idle_weight: 2
  max_idle_bonus: 20
http:
  addr: ":9000"
  logs_token: "secret"
metrics:
  sinks:
    - type: "nop"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  topic_prefix: "city/"
logging:
  enabled: true
  backend: "sqlite"
  path: "decisions.db"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"grid_width", cfg.Simulation.GridWidth, 10},
		{"grid_height", cfg.Simulation.GridHeight, 8},
		{"driver_speed", cfg.Simulation.DriverSpeed, 2},
		{"tick_interval_ms", cfg.Simulation.TickIntervalMS, 1000},
		{"auto_tick", cfg.Simulation.AutoTick, true},
		{"history_limit", cfg.Simulation.History(), 500},
		{"fairness_weight", cfg.Scoring.FairnessWeight, 5.0},
		{"max_idle_bonus", cfg.Scoring.MaxIdleBonus, 20.0},
		{"addr", cfg.HTTP.Addr, ":9000"},
		{"logs_token", cfg.HTTP.LogsToken, "secret"},
		{"metrics_sink", cfg.Metrics.Sinks[0].Type, "nop"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "city"},
		{"client_id", cfg.MQTT.ClientID, "ridesim"},
		{"logging.backend", cfg.Logging.Backend, "sqlite"},
		{"log_level", cfg.LogLevel, "info"},
		{"sentry.environment", cfg.Sentry.Environment, "development"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	assert.Equal(t, []model.Position{{X: 1, Y: 1}}, cfg.Simulation.SeedDrivers)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSimulationConfig(), cfg.Simulation.Model())
	assert.Equal(t, DefaultSeedDrivers(), cfg.Simulation.SeedDrivers)
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, "prometheus", cfg.Metrics.Sinks[0].Type)
	assert.Equal(t, 10.0, cfg.Scoring.FairnessWeight)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "jsonl", cfg.Logging.Backend)
}

func TestLoadHistoryLimitZeroKeepsAll(t *testing.T) {
	path := writeFile(t, "config.yaml", "simulation:\n  history_limit: 0\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Simulation.HistoryLimit)
	assert.Equal(t, 0, cfg.Simulation.History())

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultHistoryLimit, cfg.Simulation.History())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_SIMULATION__GRID_WIDTH", "30")
	t.Setenv("K_HTTP__ADDR", ":7000")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Simulation.GridWidth)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"simulation": {"grid_width": 6, "grid_height": 6, "seed_drivers": [{"x": 5, "y": 5}]}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Simulation.GridWidth)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"seed outside grid": "simulation:\n  grid_width: 5\n  grid_height: 5\n",
		"negative speed":    "simulation:\n  driver_speed: -1\n",
		"bad backend":       "logging:\n  backend: csv\n",
		"mqtt no broker":    "mqtt:\n  enabled: true\n",
		"sample rate":       "sentry:\n  traces_sample_rate: 2\n",
		"negative weight":   "scoring:\n  fairness_weight: -1\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", data))
			assert.Error(t, err)
		})
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", ""))
	assert.ErrorContains(t, err, "unsupported config format")
}
