// Package core provides the API chassis for the CropSense platform.
// It creates a chi router and enforces cross-cutting concerns -- panic
// recovery, request correlation, logging, compression, metrics, and error
// handling -- before requests reach domain-specific handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cropsense/internal/config"
)

// Server encapsulates all dependencies for the CropSense API, allowing for
// easy injection during testing and distinct configuration for different
// environments.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   *Metrics

	// HealthProbes are checked concurrently by the /health endpoint.
	HealthProbes []HealthProbe

	// RouteRegistrars are populated by the application entry point before
	// MountRoutes is called. This indirection avoids import cycles between
	// core and handler packages.
	RouteRegistrars []func(chi.Router)

	router *chi.Mux
}

// NewServer initializes dependencies, sets up the router, and prepares the
// server for route mounting. The caller is responsible for mounting routes
// (via MountRoutes) after construction; this separation allows tests to
// customize route registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		Metrics:   NewMetrics(),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
// This is used internally by route-mounting methods and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server-owned resources.
// Database pools are owned by the entry point and closed there; this hook
// exists so tests and future resources have a single teardown point.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown complete")
	return nil
}
