// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	recalculations  *prometheus.CounterVec
	recalcDuration  prometheus.Histogram
	uploads         *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recalculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orcamentos_recalculations_total",
			Help: "Budget recalculation cascades by triggering event.",
		}, []string{"trigger"}),
		recalcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orcamentos_recalculation_duration_seconds",
			Help:    "Time spent recomputing items, environments and the budget total.",
			Buckets: prometheus.DefBuckets,
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orcamentos_asset_uploads_total",
			Help: "Asset uploads by result (created, duplicate, rejected).",
		}, []string{"result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orcamentos_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.recalculations,
		m.recalcDuration,
		m.uploads,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRecalculation(trigger string, d time.Duration) {
	if m == nil {
		return
	}
	m.recalculations.WithLabelValues(trigger).Inc()
	m.recalcDuration.Observe(d.Seconds())
}

func (m *Metrics) CountUpload(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
