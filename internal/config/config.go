package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/passbi/transport_catalogue/internal/models"
	"github.com/passbi/transport_catalogue/internal/routing"
)

// DefaultPrecomputeLimit keeps precomputed trees below ~10 MB
const DefaultPrecomputeLimit = 500

// Network sources
const (
	SourceJSON     = "json"
	SourceGTFS     = "gtfs"
	SourcePostgres = "postgres"
)

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" validate:"gt=0,lte=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" validate:"gte=0"`
	CORSOrigins  string        `yaml:"cors_origins"`
}

// NetworkConfig tells where the transit network is loaded from
type NetworkConfig struct {
	Source string `yaml:"source" validate:"oneof=json gtfs postgres"`
	// Path of the request document or GTFS zip; unused for postgres
	Path string `yaml:"path" validate:"required_unless=Source postgres"`
	// Stops of a GTFS feed closer than this many meters are merged
	DedupeThreshold float64 `yaml:"dedupe_threshold" validate:"gte=0"`
	// Meters per GTFS shape_dist_traveled unit; zero means meters
	ShapeDistScale float64 `yaml:"shape_dist_scale" validate:"gte=0"`
}

// RoutingConfig holds the routing parameters. A zero wait time or velocity
// means the value comes from the network source.
type RoutingConfig struct {
	BusWaitTime float64 `yaml:"bus_wait_time" validate:"gte=0"`
	BusVelocity float64 `yaml:"bus_velocity" validate:"gte=0"`
	// Stop count up to which a shortest-path tree is kept for every stop.
	// Each tree holds two entries per vertex, so memory grows as 32*N^2 bytes
	// (about 8 MB at 500 stops, 800 MB at 5000).
	PrecomputeLimit int `yaml:"precompute_limit" validate:"gte=0"`
	Workers         int `yaml:"workers" validate:"gte=0"`
}

// CacheConfig toggles the Redis route cache
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RateLimitConfig holds per-client request limits; zero disables a window
type RateLimitConfig struct {
	Enabled   bool `yaml:"enabled"`
	PerSecond int  `yaml:"per_second" validate:"gte=0"`
	PerDay    int  `yaml:"per_day" validate:"gte=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Network   NetworkConfig   `yaml:"network"`
	Routing   RoutingConfig   `yaml:"routing"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Apply overrides each routing setting of base that is configured here.
// Unset (zero) fields keep the value of base.
func (r RoutingConfig) Apply(base models.RoutingSettings) models.RoutingSettings {
	if r.BusWaitTime != 0 {
		base.BusWaitTime = r.BusWaitTime
	}
	if r.BusVelocity != 0 {
		base.BusVelocity = r.BusVelocity
	}
	return base
}

// RouterOptions returns the solver options
func (r RoutingConfig) RouterOptions() routing.Options {
	return routing.Options{PrecomputeLimit: r.PrecomputeLimit, Workers: r.Workers}
}

// Default returns the configuration used when no file is given
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
			CORSOrigins:  "*",
		},
		Network: NetworkConfig{
			Source:          SourceJSON,
			DedupeThreshold: 30,
		},
		Routing: RoutingConfig{
			PrecomputeLimit: DefaultPrecomputeLimit,
		},
		RateLimit: RateLimitConfig{
			PerSecond: 20,
			PerDay:    50000,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv("API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid API_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	cfg.Server.CORSOrigins = getEnv("CORS_ORIGINS", cfg.Server.CORSOrigins)

	cfg.Network.Source = getEnv("NETWORK_SOURCE", cfg.Network.Source)
	cfg.Network.Path = getEnv("NETWORK_PATH", cfg.Network.Path)

	for _, o := range []struct {
		key string
		dst *float64
	}{
		{"BUS_WAIT_TIME", &cfg.Routing.BusWaitTime},
		{"BUS_VELOCITY", &cfg.Routing.BusVelocity},
	} {
		if v := os.Getenv(o.key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", o.key, v, err)
			}
			*o.dst = f
		}
	}

	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = v == "true"
	}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		cfg.RateLimit.Enabled = v == "true"
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
