package core

import "github.com/go-chi/chi/v5"

// defaultRedactedHeaders lists header names whose values are masked in request
// logs to prevent accidental leakage of credentials.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
}

// MountRoutes defines the top-level routing hierarchy.
// It registers the global middleware chain, the /api route group, and
// top-level operational routes (health check, metrics).
func (s *Server) MountRoutes() {
	s.registerGlobalMiddleware()

	s.router.Route("/api", func(r chi.Router) {
		for _, registrar := range s.RouteRegistrars {
			registrar(r)
		}
	})

	s.router.Get("/health", s.HandleHealth)
	s.router.Handle("/metrics", s.Metrics.Handler())
}

// registerGlobalMiddleware applies middleware in strict order.
//
// Ordering Rationale:
//  1. Recoverer      - Catches panics; outermost to catch all failures.
//  2. ContextTimeout - Soft deadline so no request blocks indefinitely.
//  3. RequestID      - Generates/propagates correlation ID.
//  4. RequestLogger  - Structured logging (redacted headers).
//  5. CORS           - Browser security headers.
//  6. Compression    - Gzip for clients that accept it.
//  7. Metrics        - Request latency and count recording.
func (s *Server) registerGlobalMiddleware() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.Config.Server.RequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(NewCORSMiddleware(s.Config.Server.CORSAllowedOrigins))
	s.router.Use(CompressionMiddleware)
	s.router.Use(s.MetricsMiddleware)
}
