// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

// Package config loads server configuration from an optional YAML file
// overlaid with environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the full server configuration.
type Config struct {
	// HTTPAddr is the API listen address.
	HTTPAddr string `koanf:"http_addr"`

	// MetricsAddr is the observability listen address. Empty disables
	// the metrics/health server.
	MetricsAddr string `koanf:"metrics_addr"`

	// DatabaseURL is the PostgreSQL connection string. Falls back to
	// the DATABASE_URL environment variable when empty.
	DatabaseURL string `koanf:"database_url"`

	// Cache selects the auxiliary cache backend: "memory" or "redis".
	Cache string `koanf:"cache"`

	Redis RedisConfig `koanf:"redis"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`

	// ShutdownTimeout bounds connection draining on shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RedisConfig holds the redis cache backend settings.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// Default values.
const (
	DefaultHTTPAddr        = ":8080"
	DefaultMetricsAddr     = "127.0.0.1:9100"
	DefaultCache           = "memory"
	DefaultLogFormat       = "json"
	DefaultShutdownTimeout = 15 * time.Second
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		HTTPAddr:        DefaultHTTPAddr,
		MetricsAddr:     DefaultMetricsAddr,
		Cache:           DefaultCache,
		LogFormat:       DefaultLogFormat,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	switch c.Cache {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when cache is 'redis'")
		}
	default:
		return fmt.Errorf("cache must be 'memory' or 'redis', got %q", c.Cache)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	return nil
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty or missing), then LUMENCLASS_* environment
// variables, then flag overrides. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	// LUMENCLASS_HTTP_ADDR → http_addr, LUMENCLASS_REDIS__ADDR → redis.addr.
	if err := k.Load(env.Provider("LUMENCLASS_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "LUMENCLASS_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return cfg, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return cfg, fmt.Errorf("loading flags: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
