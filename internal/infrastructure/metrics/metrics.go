// Package metrics exposes Prometheus counters for project operations,
// dependency links and HTTP requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/portfoliohq/portfolio/pkg/application"
	"github.com/portfoliohq/portfolio/pkg/domain/dependency"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry so tests and multiple servers do not collide on
// the global one.
type Metrics struct {
	registry *prometheus.Registry

	Operations          *prometheus.CounterVec
	Links               *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var _ application.Recorder = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_operations_total",
				Help: "Project operations by name and result kind",
			},
			[]string{"operation", "result"},
		),
		Links: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_dependency_links_total",
				Help: "Dependency link attempts by outcome",
			},
			[]string{"outcome"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"method", "route", "status"},
		),
	}
	reg.MustRegister(collectors.NewGoCollector())

	for _, outcome := range dependency.AllOutcomes() {
		m.Links.WithLabelValues(string(outcome))
	}
	return m
}

// ObserveOperation counts one service call. Successful calls are labelled ok.
func (m *Metrics) ObserveOperation(operation string, kind application.ErrorKind) {
	result := string(kind)
	if kind == application.KindNone {
		result = "ok"
	}
	m.Operations.WithLabelValues(operation, result).Inc()
}

// ObserveLink counts one dependency link outcome.
func (m *Metrics) ObserveLink(outcome dependency.LinkOutcome) {
	m.Links.WithLabelValues(string(outcome)).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
