package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the service counters exposed on /metrics.
type Metrics struct {
	Decisions  *prometheus.CounterVec
	Resets     prometheus.Counter
	Loads      *prometheus.CounterVec
	Violations prometheus.Counter
	Sessions   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "match_decisions_total",
			Help:      "Matches decided through recordWinner, by bracket.",
		}, []string{"bracket"}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "resets_total",
			Help:      "Tournament resets.",
		}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "loads_total",
			Help:      "Tournament constructions and loads, by source and result.",
		}, []string{"source", "result"}),
		Violations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "contract_violations_total",
			Help:      "Rejected recordWinner calls.",
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bracket",
			Name:      "sessions",
			Help:      "Tournament sessions held in memory.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Decisions, m.Resets, m.Loads, m.Violations, m.Sessions)
	}
	return m
}
