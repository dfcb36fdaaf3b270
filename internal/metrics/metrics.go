// Package metrics exposes Prometheus instrumentation for dispatches and
// capability probes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements gateway.Observer and gateway.AvailabilityObserver over a
// dedicated Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	availability     *prometheus.GaugeVec
	probeRounds      prometheus.Counter
}

// New creates and registers all gateway collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homeroom",
			Name:      "dispatches_total",
			Help:      "Action dispatches by provider, action, and outcome.",
		}, []string{"provider", "action", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "homeroom",
			Name:      "dispatch_duration_seconds",
			Help:      "Action dispatch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "action"}),
		availability: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "homeroom",
			Name:      "provider_available",
			Help:      "Last probed availability per provider (1 available, 0 unavailable).",
		}, []string{"provider"}),
		probeRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homeroom",
			Name:      "probe_rounds_total",
			Help:      "Completed capability probe rounds.",
		}),
	}
	registry.MustRegister(m.dispatches, m.dispatchDuration, m.availability, m.probeRounds)
	return m
}

// ObserveDispatch implements gateway.Observer.
func (m *Metrics) ObserveDispatch(provider, action string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.dispatches.WithLabelValues(provider, action, outcome).Inc()
	m.dispatchDuration.WithLabelValues(provider, action).Observe(duration.Seconds())
}

// SetAvailability implements gateway.AvailabilityObserver.
func (m *Metrics) SetAvailability(provider string, available bool) {
	v := 0.0
	if available {
		v = 1.0
	}
	m.availability.WithLabelValues(provider).Set(v)
}

// ProbeRoundCompleted implements gateway.AvailabilityObserver.
func (m *Metrics) ProbeRoundCompleted() {
	m.probeRounds.Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
