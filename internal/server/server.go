// Package server implements the stateviz HTTP API.
//
// Routes:
//
//	POST /v1/extract   script body → machine graphs as JSON
//	POST /v1/render    script body → image/svg+xml (or ?format=json|dot)
//	GET  /healthz      liveness
//	GET  /metrics      Prometheus metrics
//
// Script evaluation, layout and rendering all go through a shared
// pipeline.Runner, so the API and the CLI produce identical output.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/stateviz/pkg/observability"
	"github.com/matzehuels/stateviz/pkg/pipeline"
)

// Defaults for Config.
const (
	DefaultAddr           = ":8080"
	DefaultMaxBodyBytes   = int64(1 << 20)
	DefaultRequestTimeout = 30 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// Config configures the server.
type Config struct {
	Addr           string
	MaxBodyBytes   int64
	RequestTimeout time.Duration

	// Metrics registers Prometheus hooks and serves /metrics.
	Metrics bool

	// Options are the defaults for every request. Query parameters
	// override them.
	Options pipeline.Options
}

// ValidateAndSetDefaults fills in zero values.
func (c *Config) ValidateAndSetDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	runner   *pipeline.Runner
	logger   *log.Logger
	registry *prometheus.Registry
	router   chi.Router

	restoreHooks func()
}

// New creates a server backed by runner.
func New(cfg Config, runner *pipeline.Runner, logger *log.Logger) *Server {
	cfg.ValidateAndSetDefaults()
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:          cfg,
		runner:       runner,
		logger:       logger.WithPrefix("http"),
		restoreHooks: func() {},
	}
	if cfg.Metrics {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		s.restoreHooks = observability.Install(observability.NewPrometheusHooks(s.registry))
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Post("/render", s.handleRender)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and uninstalls the metrics hooks.
func (s *Server) ListenAndServe(ctx context.Context) error {
	defer s.restoreHooks()
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
