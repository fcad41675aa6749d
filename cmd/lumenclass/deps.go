package main

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lumenclass/lumenclass/internal/cache"
	"github.com/lumenclass/lumenclass/internal/config"
	"github.com/lumenclass/lumenclass/internal/observability"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolFactory creates a database pool from a connection string.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, databaseURL string) (Pool, error)

	// CacheFactory creates the session/two-factor cache backend.
	// Default: memory or Redis per config
	CacheFactory func(ctx context.Context, cfg config.Config) (cache.Cache, error)

	// ObservabilityServerFactory creates a metrics/health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// APIServerRunner runs the API server until ctx is cancelled.
	// Default: httpapi.Server.Start
	APIServerRunner func(ctx context.Context) error
}

// Pool interface wraps the methods used from pgxpool.Pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Registry() *prometheus.Registry
}
