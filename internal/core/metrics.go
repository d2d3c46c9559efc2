package core

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records API request telemetry to a Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates a Metrics collector with its own registry so tests can
// construct servers without fighting over the default global registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cropsense",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cropsense",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	registry.MustRegister(requests, latency)

	return &Metrics{
		registry: registry,
		requests: requests,
		latency:  latency,
	}
}

// RecordRequest records one completed request.
func (m *Metrics) RecordRequest(method, route, status string, duration time.Duration) {
	m.requests.WithLabelValues(method, route, status).Inc()
	m.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MetricsMiddleware records request latency and count metrics.
// If s.Metrics is nil (e.g., during tests that don't inject a collector),
// the middleware passes through without recording.
func (s *Server) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()

		rc := &responseCapture{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rc, r)

		s.Metrics.RecordRequest(r.Method, r.URL.Path, strconv.Itoa(rc.statusCode), time.Since(start))
	})
}
