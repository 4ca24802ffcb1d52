// Package metrics exposes Prometheus collectors for inference and HTTP traffic
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	perr "auracast/internal/platform/errors"
)

const namespace = "auracast"

// Metrics owns a private registry so tests and multiple servers do not collide
type Metrics struct {
	reg *prometheus.Registry

	inferenceTotal   *prometheus.CounterVec
	inferenceLatency *prometheus.HistogramVec
	httpTotal        *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	modelReady       prometheus.Gauge
	auditFailures    *prometheus.CounterVec
}

// New registers every collector plus the Go and process collectors
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		inferenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_requests_total",
			Help:      "Inference operations by outcome (ok or error kind)",
		}, []string{"op", "outcome"}),
		inferenceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Inference latency including validation",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		modelReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_ready",
			Help:      "1 once model weights are installed",
		}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Audit records that could not be written, by sink",
		}, []string{"sink"}),
	}
	m.reg.MustRegister(
		m.inferenceTotal,
		m.inferenceLatency,
		m.httpTotal,
		m.httpLatency,
		m.modelReady,
		m.auditFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Observe records one inference operation
func (m *Metrics) Observe(op string, ok bool, code perr.ErrorCode, elapsed time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = code.String()
	}
	m.inferenceTotal.WithLabelValues(op, outcome).Inc()
	m.inferenceLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetModelReady flips the readiness gauge
func (m *Metrics) SetModelReady(ready bool) {
	if ready {
		m.modelReady.Set(1)
		return
	}
	m.modelReady.Set(0)
}

// AuditFailed counts a failed audit write for sink
func (m *Metrics) AuditFailed(sink string) { m.auditFailures.WithLabelValues(sink).Inc() }

// HTTP instruments handlers by chi route pattern, so path params do not explode cardinality
func (m *Metrics) HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
