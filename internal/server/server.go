// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bimmerbailey/jigyokei/internal/analysis"
	"github.com/bimmerbailey/jigyokei/internal/catalog"
	"github.com/bimmerbailey/jigyokei/internal/config"
	"github.com/bimmerbailey/jigyokei/internal/metrics"
)

// Analyzer runs one analysis. *analysis.Pipeline satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, log string) analysis.Result
}

// HealthChecker reports whether a dependency is reachable. llm.Provider
// satisfies it.
type HealthChecker interface {
	Heartbeat(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Config  config.ServerConfig
	Catalog catalog.Catalog
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Checks are run by GET /ready, keyed by name.
	Checks map[string]HealthChecker
}

// Server serves the analysis API.
type Server struct {
	analyzer Analyzer
	cfg      config.ServerConfig
	catalog  catalog.Catalog
	metrics  *metrics.Metrics
	logger   *slog.Logger
	checks   map[string]HealthChecker
	handler  http.Handler
}

// New creates a Server. The configuration is read once here and never
// changes afterwards.
func New(a Analyzer, opts Options) (*Server, error) {
	if a == nil {
		return nil, errors.New("analyzer cannot be nil")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if opts.Config.MaxBodyBytes <= 0 {
		opts.Config.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	if len(opts.Catalog.Products) == 0 {
		opts.Catalog = catalog.Default()
	}

	s := &Server{
		analyzer: a,
		cfg:      opts.Config,
		catalog:  opts.Catalog,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		checks:   opts.Checks,
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done. In-flight requests get
// ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	return nil
}

// readyTimeout bounds GET /ready.
const readyTimeout = 5 * time.Second
