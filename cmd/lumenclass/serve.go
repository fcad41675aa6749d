// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lumenclass/lumenclass/internal/account"
	accountpg "github.com/lumenclass/lumenclass/internal/account/postgres"
	"github.com/lumenclass/lumenclass/internal/authz"
	"github.com/lumenclass/lumenclass/internal/cache"
	"github.com/lumenclass/lumenclass/internal/config"
	"github.com/lumenclass/lumenclass/internal/httpapi"
	"github.com/lumenclass/lumenclass/internal/logging"
	"github.com/lumenclass/lumenclass/internal/observability"
	"github.com/lumenclass/lumenclass/internal/routes"
	"github.com/lumenclass/lumenclass/internal/session"
	sessionpg "github.com/lumenclass/lumenclass/internal/session/postgres"
	"github.com/lumenclass/lumenclass/internal/store"
	"github.com/lumenclass/lumenclass/internal/twofactor"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server that authorizes every incoming request:
session resolution, workspace permission checks, two-factor gating,
and subscription enforcement.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	// Flag names mirror configuration keys so file and CLI settings
	// share one schema.
	flags := cmd.Flags()
	flags.String("http_addr", config.DefaultHTTPAddr, "API listen address")
	flags.String("metrics_addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("database_url", "", "PostgreSQL connection string (default: $DATABASE_URL)")
	flags.String("cache", config.DefaultCache, "cache backend (memory or redis)")
	flags.String("redis.addr", "", "redis address when cache is 'redis'")
	flags.String("log_format", config.DefaultLogFormat, "log format (json or text)")
	flags.Duration("shutdown_timeout", config.DefaultShutdownTimeout, "connection drain timeout on shutdown")

	return cmd
}

// runServeWithDeps starts the API server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}

	// Set up default factories
	if deps.PoolFactory == nil {
		deps.PoolFactory = func(ctx context.Context, databaseURL string) (Pool, error) {
			return store.Connect(ctx, databaseURL)
		}
	}
	if deps.CacheFactory == nil {
		deps.CacheFactory = newCacheBackend
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}

	cfg, err := config.Load(resolveConfigPath(), cmd.Flags())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.SetDefault("lumenclass", version, cfg.LogFormat)

	slog.Info("starting api server",
		"http_addr", cfg.HTTPAddr,
		"cache", cfg.Cache,
		"log_format", cfg.LogFormat,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := deps.PoolFactory(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	slog.Info("connected to database")

	cacheBackend, err := deps.CacheFactory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer closeCache(cacheBackend)

	accounts := accountpg.NewAccountRepository(pool)
	sessions := sessionpg.NewSessionRepository(pool)
	resolver := session.NewCachingResolver(sessions, cacheBackend, slog.Default())
	accountSvc := account.NewService(accounts, sessions, account.NewArgon2idHasher(), resolver)
	twoFactorSvc := twofactor.NewService(cacheBackend, twofactor.WithSender(&logSender{}))

	authzOpts := []authz.Option{
		authz.WithGrantPolicy(authz.DefaultGrantPolicy()),
		authz.WithLogger(slog.Default()),
	}

	// Start observability server if configured. The authorizer's metrics
	// register on its registry so /metrics exports them.
	var obsServer ObservabilityServer
	if cfg.MetricsAddr != "" {
		// Ready once we reach this point: database connected, cache
		// initialized, services wired.
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, func() bool { return true })
		authzOpts = append(authzOpts, authz.WithMetrics(authz.NewMetrics(obsServer.Registry())))

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		slog.Info("observability server started", "addr", obsServer.Addr())
	} else {
		// Keep the authorizer instrumented even without an exporter.
		authzOpts = append(authzOpts, authz.WithMetrics(authz.NewMetrics(prometheus.NewRegistry())))
	}

	authorizer := authz.New(resolver, cacheBackend, authzOpts...)

	runAPI := deps.APIServerRunner
	if runAPI == nil {
		apiServer := httpapi.NewServer(
			httpapi.ServerConfig{Addr: cfg.HTTPAddr, ShutdownTimeout: cfg.ShutdownTimeout},
			slog.Default(),
			authorizer,
			routes.DefaultRegistry(),
			accountSvc,
			accounts,
			twoFactorSvc,
		)
		runAPI = apiServer.Start
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	cmd.Println("API server started")

	// Blocks until ctx is cancelled, then drains connections.
	serveErr := runAPI(ctx)

	slog.Info("shutting down...")

	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	if serveErr != nil {
		return fmt.Errorf("api server error: %w", serveErr)
	}

	slog.Info("shutdown complete")
	return nil
}

// newCacheBackend builds the cache named by the configuration.
func newCacheBackend(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache {
	case "redis":
		return cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return cache.NewMemory(nil), nil
	}
}

// closeCache closes cache backends that hold network connections.
func closeCache(c cache.Cache) {
	if closer, ok := c.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Debug("error closing cache", "error", err)
		}
	}
}

// logSender records OTP deliveries in the service log. The code itself
// is only emitted at debug level.
// TODO: replace with the SMS/email notification provider once its
// credentials land in config.
type logSender struct{}

func (*logSender) Send(_ context.Context, factor routes.TwoFactorType, destination, code string) error {
	slog.Info("two-factor code issued", "factor", factor, "destination", destination)
	slog.Debug("two-factor code", "code", code)
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the
// context on error, so a failed listener takes the whole process down
// gracefully. It exits when an error arrives, the channel closes, or the
// context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
