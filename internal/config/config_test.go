// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenclass/lumenclass/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, config.DefaultMetricsAddr, cfg.MetricsAddr)
	assert.Equal(t, "memory", cfg.Cache)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, config.DefaultShutdownTimeout, cfg.ShutdownTimeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9090"
log_format: text
cache: redis
redis:
  addr: localhost:6379
  db: 2
shutdown_timeout: 30s
`), 0o600))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "redis", cfg.Cache)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":9090\"\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("http_addr", config.DefaultHTTPAddr, "")
	require.NoError(t, flags.Parse([]string{"--http_addr", ":7070"}))

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTPAddr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":9090\"\n"), 0o600))

	t.Setenv("LUMENCLASS_HTTP_ADDR", ":6060")
	t.Setenv("LUMENCLASS_REDIS__ADDR", "redis.internal:6379")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.HTTPAddr)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("LUMENCLASS_HTTP_ADDR", ":6060")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("http_addr", config.DefaultHTTPAddr, "")
	require.NoError(t, flags.Parse([]string{"--http_addr", ":7070"}))

	cfg, err := config.Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTPAddr)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHTTPAddr, cfg.HTTPAddr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*config.Config) {},
		},
		{
			name:    "bad log format",
			mutate:  func(c *config.Config) { c.LogFormat = "xml" },
			wantErr: "log_format",
		},
		{
			name:    "redis without addr",
			mutate:  func(c *config.Config) { c.Cache = "redis" },
			wantErr: "redis.addr",
		},
		{
			name:    "unknown cache backend",
			mutate:  func(c *config.Config) { c.Cache = "memcached" },
			wantErr: "cache",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *config.Config) { c.ShutdownTimeout = 0 },
			wantErr: "shutdown_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
