// Package metrics holds the Prometheus collectors for the ledger and assessment store.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taxchain"

type Metrics struct {
	BlocksAppended    prometheus.Counter
	ChainHeight       prometheus.Gauge
	Assessments       prometheus.Gauge
	AssessmentEvents  *prometheus.CounterVec
	IntegrityFailures prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BlocksAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_appended_total",
			Help:      "Blocks sealed and appended to the ledger.",
		}),
		ChainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_height",
			Help:      "Number of blocks in the chain, genesis included.",
		}),
		Assessments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assessments",
			Help:      "Assessments currently held by the store.",
		}),
		AssessmentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_history_entries_total",
			Help:      "History entries appended to assessments, by action.",
		}, []string{"action"}),
		IntegrityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_integrity_failures_total",
			Help:      "Chain verifications that found a broken link or hash.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.BlocksAppended, m.ChainHeight, m.Assessments, m.AssessmentEvents, m.IntegrityFailures)
	}
	return m
}

func (m *Metrics) BlockAppended(height int) {
	if m == nil {
		return
	}
	m.BlocksAppended.Inc()
	m.ChainHeight.Set(float64(height))
}

func (m *Metrics) SetHeight(height int) {
	if m == nil {
		return
	}
	m.ChainHeight.Set(float64(height))
}

func (m *Metrics) SetAssessments(n int) {
	if m == nil {
		return
	}
	m.Assessments.Set(float64(n))
}

func (m *Metrics) HistoryAppended(action string) {
	if m == nil {
		return
	}
	m.AssessmentEvents.WithLabelValues(action).Inc()
}

func (m *Metrics) IntegrityFailed() {
	if m == nil {
		return
	}
	m.IntegrityFailures.Inc()
}
