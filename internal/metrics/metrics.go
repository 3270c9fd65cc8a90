// Package metrics exposes Prometheus collectors for the catalogue pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalogue"

// Fetch outcomes.
const (
	FetchOK       = "ok"
	FetchError    = "error"
	FetchNotArray = "not_array"
)

// Skip stages.
const (
	StageDecode = "decode"
	StageRender = "render"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry       *prometheus.Registry
	fetches        *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "JSON source fetches by outcome.",
		}, []string{"outcome"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_skipped_total",
			Help:      "Entries dropped because they could not be decoded or rendered.",
		}, []string{"stage"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Render cycles by listing kind.",
		}, []string{"kind"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time from load to rendered tiles.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.fetches, m.skipped, m.renders, m.renderDuration)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Fetch records one source fetch.
func (m *Metrics) Fetch(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}

// Skipped records n entries dropped at a stage.
func (m *Metrics) Skipped(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skipped.WithLabelValues(stage).Add(float64(n))
}

// Rendered records one completed render cycle.
func (m *Metrics) Rendered(kind string, started time.Time) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(kind).Inc()
	m.renderDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// Collectors are exposed for the tests of the packages that record them.
func (m *Metrics) FetchCounter() *prometheus.CounterVec  { return m.fetches }
func (m *Metrics) SkipCounter() *prometheus.CounterVec   { return m.skipped }
func (m *Metrics) RenderCounter() *prometheus.CounterVec { return m.renders }
