package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/transport_catalogue/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("File over defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 3s
network:
  source: gtfs
  path: feed.zip
routing:
  bus_wait_time: 6
  bus_velocity: 40
cache:
  enabled: true
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, SourceGTFS, cfg.Network.Source)
		assert.Equal(t, 30.0, cfg.Network.DedupeThreshold)
		assert.True(t, cfg.Cache.Enabled)
		assert.Equal(t, DefaultPrecomputeLimit, cfg.Routing.PrecomputeLimit)

		settings := cfg.Routing.Apply(models.RoutingSettings{})
		assert.Equal(t, models.RoutingSettings{BusWaitTime: 6, BusVelocity: 40}, settings)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "network:\n  source: json\n  path: a.json\n")
		t.Setenv("API_PORT", "7000")
		t.Setenv("NETWORK_PATH", "b.json")
		t.Setenv("BUS_VELOCITY", "25.5")
		t.Setenv("RATE_LIMIT_ENABLED", "true")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 7000, cfg.Server.Port)
		assert.Equal(t, "b.json", cfg.Network.Path)
		assert.Equal(t, 25.5, cfg.Routing.BusVelocity)
		assert.True(t, cfg.RateLimit.Enabled)
	})

	t.Run("Postgres needs no path", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "network:\n  source: postgres\n"))
		require.NoError(t, err)
		assert.Equal(t, SourcePostgres, cfg.Network.Source)
	})

	t.Run("Invalid values", func(t *testing.T) {
		cases := []string{
			"network:\n  source: csv\n  path: x\n",
			"network:\n  source: json\n",
			"network:\n  source: json\n  path: x\nserver:\n  port: -1\n",
			"network:\n  source: json\n  path: x\nrouting:\n  bus_velocity: -3\n",
			"server: [",
		}
		for _, c := range cases {
			_, err := Load(writeConfig(t, c))
			assert.Error(t, err, c)
		}
	})

	t.Run("Bad environment value", func(t *testing.T) {
		t.Setenv("NETWORK_PATH", "a.json")
		t.Setenv("BUS_WAIT_TIME", "six")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
		assert.Error(t, err)
	})
}

func TestRoutingConfig(t *testing.T) {
	base := models.RoutingSettings{BusWaitTime: 6, BusVelocity: 40}

	tests := []struct {
		name     string
		cfg      RoutingConfig
		expected models.RoutingSettings
	}{
		{"Nothing configured", RoutingConfig{}, base},
		{"Wait time only", RoutingConfig{BusWaitTime: 3}, models.RoutingSettings{BusWaitTime: 3, BusVelocity: 40}},
		{"Velocity only", RoutingConfig{BusVelocity: 25}, models.RoutingSettings{BusWaitTime: 6, BusVelocity: 25}},
		{"Both", RoutingConfig{BusWaitTime: 1, BusVelocity: 60}, models.RoutingSettings{BusWaitTime: 1, BusVelocity: 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.Apply(base))
		})
	}

	opts := RoutingConfig{PrecomputeLimit: 10, Workers: 3}.RouterOptions()
	assert.Equal(t, 10, opts.PrecomputeLimit)
	assert.Equal(t, 3, opts.Workers)
}
