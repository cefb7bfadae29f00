// Package metrics defines the Prometheus series exported by the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hamed0406/bengreen/internal/domain"
)

const namespace = "bengreen"

// probeDurationBuckets span 100µs to ~100s; the fan-out probe alone spins
// for a full second before spawning.
var probeDurationBuckets = prometheus.ExponentialBuckets(0.0001, 4, 10)

type Metrics struct {
	ProbeRuns     *prometheus.CounterVec
	ProbeDuration *prometheus.HistogramVec
	UnknownProbes prometheus.Counter
}

// New registers the series on reg. Passing nil uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ProbeRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probe_runs_total",
				Help:      "Probe invocations by probe name and outcome status.",
			},
			[]string{"probe", "status"},
		),
		ProbeDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "probe_duration_seconds",
				Help:      "Wall-clock time spent inside a probe.",
				Buckets:   probeDurationBuckets,
			},
			[]string{"probe"},
		),
		UnknownProbes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_probe_requests_total",
			Help:      "Requests naming a probe that is not registered.",
		}),
	}
}

// Observe records one finished probe. Safe on a nil receiver.
func (m *Metrics) Observe(probe string, o domain.Outcome) {
	if m == nil {
		return
	}
	m.ProbeRuns.WithLabelValues(probe, string(o.Status)).Inc()
	m.ProbeDuration.WithLabelValues(probe).Observe(o.Duration.Seconds())
}

func (m *Metrics) Unknown() {
	if m == nil {
		return
	}
	m.UnknownProbes.Inc()
}
