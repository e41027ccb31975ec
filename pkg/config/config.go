package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/mycrub/daysum/pkg/cache"
	"github.com/mycrub/daysum/pkg/render"
	"github.com/mycrub/daysum/pkg/retrieval"
	"github.com/mycrub/daysum/pkg/service"
	"github.com/mycrub/daysum/pkg/store"
)

// EnvPrefix namespaces environment overrides, e.g. DAYSUM_SERVICE_URL.
const EnvPrefix = "DAYSUM_"

// Config holds all daysum configuration.
type Config struct {
	ServiceURL string          `yaml:"service_url" env:"SERVICE_URL"`
	Store      StoreConfig     `yaml:"store" envPrefix:"STORE_"`
	Cache      CacheConfig     `yaml:"cache" envPrefix:"CACHE_"`
	Poll       PollConfig      `yaml:"poll" envPrefix:"POLL_"`
	HTTP       HTTPConfig      `yaml:"http" envPrefix:"HTTP_"`
	Log        LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Metrics    MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
	Messages   render.Messages `yaml:"messages"`
}

// StoreConfig selects the key/value backend behind the cache.
// Backend is "sqlite" (default), "redis" or "memory".
type StoreConfig struct {
	Backend  string `yaml:"backend" env:"BACKEND"`
	DBPath   string `yaml:"db_path" env:"DB_PATH"`
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
}

// CacheConfig controls the summary cache.
type CacheConfig struct {
	Prefix    string        `yaml:"prefix" env:"PREFIX"`
	Retention time.Duration `yaml:"retention" env:"RETENTION"`
	// SweepSchedule is a cron expression for periodic sweeps in long-running
	// commands. Empty disables them; the startup sweep always runs.
	SweepSchedule string `yaml:"sweep_schedule" env:"SWEEP_SCHEDULE"`
}

// PollConfig controls how long an in-progress summary is waited for.
type PollConfig struct {
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// HTTPConfig controls the service client.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LogConfig controls logging. Format is "text" or "json".
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig controls the Prometheus endpoint. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" env:"LISTEN"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		ServiceURL: service.DefaultURL,
		Store: StoreConfig{
			Backend: store.BackendSQLite,
			DBPath:  "daysum.db",
		},
		Cache: CacheConfig{
			Prefix:        cache.DefaultPrefix,
			Retention:     cache.DefaultRetention,
			SweepSchedule: "@hourly",
		},
		Poll: PollConfig{
			Interval: retrieval.DefaultPollInterval,
			Timeout:  retrieval.DefaultPollTimeout,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Messages: render.DefaultMessages(),
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Messages = cfg.Messages.Merge(render.DefaultMessages())

	return cfg, nil
}

// Resolve loads path (or defaults when path is empty), then applies DAYSUM_*
// environment overrides and validates the result.
func Resolve(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ServiceURL == "" {
		return errors.New("service_url is required")
	}
	switch c.Store.Backend {
	case "", store.BackendSQLite:
		if c.Store.DBPath == "" {
			return errors.New("store.db_path is required for the sqlite backend")
		}
	case store.BackendRedis:
		if c.Store.RedisURL == "" {
			return errors.New("store.redis_url is required for the redis backend")
		}
	case store.BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Cache.Retention <= 0 {
		return fmt.Errorf("cache.retention must be positive, got %v", c.Cache.Retention)
	}
	if c.Poll.Interval <= 0 || c.Poll.Timeout <= 0 {
		return fmt.Errorf("poll interval and timeout must be positive, got %v and %v", c.Poll.Interval, c.Poll.Timeout)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %v", c.HTTP.Timeout)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// StoreOptions converts the store section for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:  c.Store.Backend,
		DBPath:   c.Store.DBPath,
		RedisURL: c.Store.RedisURL,
	}
}
