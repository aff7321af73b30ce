package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks classification submits. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	submits  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	stale    prometheus.Counter
}

func New(backend string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"backend": backend}

	m := &Metrics{
		registry: reg,
		submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "classify_submits_total",
			Help:        "Classification submits by outcome, counted once each including stale responses.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "classify_request_duration_seconds",
			Help:        "Time spent waiting for the classification backend.",
			ConstLabels: labels,
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "classify_stale_responses_total",
			Help:        "Responses discarded because a newer submit was issued.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.submits, m.latency, m.stale)
	return m
}

// Outcome labels
const (
	OutcomeInvalid      = "invalid"
	OutcomeSuccess      = "success"
	OutcomeUnrecognized = "unrecognized"
	OutcomeError        = "error"
	OutcomeStale        = "stale"
)

func (m *Metrics) ObserveSubmit(outcome string) {
	if m == nil {
		return
	}
	m.submits.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveStale records a response dropped in favour of a newer submit.
// The submit is counted under OutcomeStale.
func (m *Metrics) ObserveStale() {
	if m == nil {
		return
	}
	m.stale.Inc()
	m.submits.WithLabelValues(OutcomeStale).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
