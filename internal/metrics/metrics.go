// Package metrics provides Prometheus metrics for the symbology server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Manager owns a private registry and the service metrics.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	fetches           *prometheus.CounterVec
	fetchDuration     *prometheus.HistogramVec
	styleResolutions  *prometheus.CounterVec
	legendRenders     *prometheus.CounterVec
	legendTransitions *prometheus.CounterVec
	sessions          prometheus.Gauge
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

// WithRegistry uses an existing registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// New creates a Manager with its own registry unless one is given.
func New(opts ...Option) *Manager {
	m := &Manager{namespace: "symbology"}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	f := promauto.With(m.registry)
	m.fetches = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "arcgis",
		Name:      "requests_total",
		Help:      "Remote ArcGIS requests by kind and result.",
	}, []string{"kind", "result"})
	m.fetchDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "arcgis",
		Name:      "request_duration_seconds",
		Help:      "Remote ArcGIS request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
	m.styleResolutions = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "style",
		Name:      "resolutions_total",
		Help:      "Feature style resolutions by outcome (match or fallback).",
	}, []string{"outcome"})
	m.legendRenders = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "legend",
		Name:      "renders_total",
		Help:      "Legend renders by result.",
	}, []string{"result"})
	m.legendTransitions = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "legend",
		Name:      "transitions_total",
		Help:      "Legend visibility transitions by trigger and resulting state.",
	}, []string{"trigger", "state"})
	m.sessions = f.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "sessions_active",
		Help:      "Open map sessions.",
	})
	return m
}

// ObserveFetch records one remote request.
func (m *Manager) ObserveFetch(kind string, err error, elapsed time.Duration) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.fetches.WithLabelValues(kind, result).Inc()
	m.fetchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveStyle records one style resolution outcome.
func (m *Manager) ObserveStyle(outcome string) {
	m.styleResolutions.WithLabelValues(outcome).Inc()
}

// ObserveLegendRender records one legend render.
func (m *Manager) ObserveLegendRender(err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.legendRenders.WithLabelValues(result).Inc()
}

// ObserveLegendTransition records a visibility event.
func (m *Manager) ObserveLegendTransition(trigger, state string) {
	m.legendTransitions.WithLabelValues(trigger, state).Inc()
}

// SetSessions sets the open session count.
func (m *Manager) SetSessions(n int) {
	m.sessions.Set(float64(n))
}

// Registry exposes the registry for tests and custom collectors.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
