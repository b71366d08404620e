// Package observe exposes dialogue metrics in the Prometheus format.
package observe

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "neo"

type Metrics struct {
	registry *prometheus.Registry

	listens   *prometheus.CounterVec
	turns     *prometheus.CounterVec
	turnTime  *prometheus.HistogramVec
	turnFails *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		listens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listen_outcomes_total",
			Help:      "Listening windows by outcome",
		}, []string{"outcome"}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Dispatched utterances by intent",
		}, []string{"intent"}),
		turnTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time to produce a reply",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"intent"}),
		turnFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_errors_total",
			Help:      "Dispatches that ended in a spoken error",
		}, []string{"intent"}),
	}

	m.registry.MustRegister(m.listens, m.turns, m.turnTime, m.turnFails)
	return m
}

func (m *Metrics) ListenOutcome(outcome string) {
	m.listens.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Turn(intent string, took time.Duration, err error) {
	m.turns.WithLabelValues(intent).Inc()
	m.turnTime.WithLabelValues(intent).Observe(took.Seconds())
	if err != nil {
		m.turnFails.WithLabelValues(intent).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
