// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumenclass/lumenclass/internal/account"
	"github.com/lumenclass/lumenclass/internal/authz"
	"github.com/lumenclass/lumenclass/internal/routes"
	"github.com/lumenclass/lumenclass/internal/twofactor"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// ShutdownTimeout bounds connection draining on shutdown.
	// Defaults to 15 seconds.
	ShutdownTimeout time.Duration

	// ReadTimeout, WriteTimeout and IdleTimeout default to 10s, 10s
	// and 60s respectively.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (c *ServerConfig) applyDefaults() {
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// Server wires the REST surface to its collaborators.
type Server struct {
	cfg        ServerConfig
	logger     *slog.Logger
	authorizer *authz.Authorizer
	registry   *routes.Registry
	accountSvc *account.Service
	accounts   account.Repository
	twoFactor  *twofactor.Service

	httpServer *http.Server
}

// NewServer creates the API server. The registry drives both routing
// declarations and the Guard middleware.
func NewServer(
	cfg ServerConfig,
	logger *slog.Logger,
	authorizer *authz.Authorizer,
	registry *routes.Registry,
	accountSvc *account.Service,
	accounts account.Repository,
	twoFactor *twofactor.Service,
) *Server {
	cfg.applyDefaults()
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		authorizer: authorizer,
		registry:   registry,
		accountSvc: accountSvc,
		accounts:   accounts,
		twoFactor:  twoFactor,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.Guard)

		r.Post("/auth/login", s.Login)
		r.Post("/auth/logout", s.Logout)
		r.Get("/auth/whoami", s.WhoAmI)
		r.Post("/auth/2fa/challenge", s.TwoFactorChallenge)
		r.Post("/auth/2fa/verify", s.TwoFactorVerify)

		// Workspace surfaces. Each responds with the caller's identity
		// scope; domain payloads hang off these in the frontends.
		r.Get("/provider/billing/summary", s.WorkspaceHome)
		r.Get("/provider/subjects", s.WorkspaceHome)
		r.Get("/staff/questions", s.WorkspaceHome)
		r.Get("/student/quizzes", s.WorkspaceHome)
		r.Get("/student/results", s.WorkspaceHome)
		r.Get("/parent/progress", s.WorkspaceHome)
		r.Get("/catalog/subjects", s.Catalog)
	})

	return r
}

// Start runs the server until ctx is cancelled, then drains connections
// within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
