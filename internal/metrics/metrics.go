// Package metrics holds the Prometheus collectors shared by the analysis
// pipeline and the HTTP service.
//
// Collectors are registered on a caller-supplied registry so tests and
// multiple servers in one process never collide on the global one. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stages used as the "stage" label.
const (
	StageExtraction = "extraction"
	StageMapping    = "mapping"
)

// Model call outcomes used as the "outcome" label.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Metrics groups every collector exported by the service.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	modelCalls        *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
	fallbacks         *prometheus.CounterVec
	extractFailures   *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// httpRequests counts served requests by route pattern and status
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jigyokei_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		// modelCalls counts model invocations per pipeline stage
		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jigyokei_model_calls_total",
			Help: "Total model calls by stage and outcome",
		}, []string{"stage", "outcome"}),

		// modelCallDuration tracks model latency; hosted models take seconds
		modelCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jigyokei_model_call_duration_seconds",
			Help:    "Model call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		}, []string{"stage"}),

		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jigyokei_solution_fallbacks_total",
			Help: "Risks that received the fallback solution, by reason",
		}, []string{"reason"}),

		extractFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jigyokei_extraction_failures_total",
			Help: "Extractions degraded to an empty result, by reason",
		}, []string{"reason"}),
	}
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// ModelCall records one model invocation and its latency.
func (m *Metrics) ModelCall(stage, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(stage, outcome).Inc()
	m.modelCallDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// SolutionFallback records a risk that was assigned the fallback solution.
func (m *Metrics) SolutionFallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}

// ExtractionFailure records an extraction that degraded to an empty result.
func (m *Metrics) ExtractionFailure(reason string) {
	if m == nil {
		return
	}
	m.extractFailures.WithLabelValues(reason).Inc()
}
