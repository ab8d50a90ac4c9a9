// ABOUTME: Prometheus metrics for updates and viewer connections
// ABOUTME: Implements domain.Recorder and serves the /metrics exposition
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nowplaying"

type Metrics struct {
	registry    *prometheus.Registry
	updates     prometheus.Counter
	subscribers prometheus.Gauge
	removed     *prometheus.CounterVec
}

// New creates metrics on a private registry so tests and multiple servers in
// one process do not collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Now-playing updates applied.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Currently connected viewers.",
		}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscribers_removed_total",
			Help:      "Viewers removed, by reason.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		m.updates,
		m.subscribers,
		m.removed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) UpdateApplied() {
	m.updates.Inc()
}

func (m *Metrics) SubscriberAdded() {
	m.subscribers.Inc()
}

func (m *Metrics) SubscriberRemoved(dropped bool) {
	m.subscribers.Dec()
	reason := "disconnect"
	if dropped {
		reason = "overflow"
	}
	m.removed.WithLabelValues(reason).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
