// Package metrics exposes Prometheus instrumentation for the HTTP API and the
// pricing engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Calculation outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	calculations *prometheus.CounterVec
	documents    prometheus.Counter
	failedLogins prometheus.Counter
}

// New creates a Metrics with a fresh registry that also carries the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		}),
		calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "printdesk_calculations_total",
			Help: "Price calculations partitioned by calculator and outcome",
		}, []string{"calculator", "outcome"}),
		documents: factory.NewCounter(prometheus.CounterOpts{
			Name: "printdesk_documents_generated_total",
			Help: "Estimate documents generated",
		}),
		failedLogins: factory.NewCounter(prometheus.CounterOpts{
			Name: "printdesk_failed_logins_total",
			Help: "Rejected login attempts",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCalculation counts one calculation. A nil Metrics is a no-op.
func (m *Metrics) ObserveCalculation(calculatorID, outcome string) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(calculatorID, outcome).Inc()
}

func (m *Metrics) DocumentGenerated() {
	if m == nil {
		return
	}
	m.documents.Inc()
}

func (m *Metrics) LoginFailed() {
	if m == nil {
		return
	}
	m.failedLogins.Inc()
}

// Middleware records request count, latency and in-flight requests. The route
// label is the matched chi pattern so path parameters do not leak into it.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		m.requests.With(labels).Inc()
		m.duration.With(labels).Observe(time.Since(start).Seconds())
	})
}
