// Package metrics exposes Prometheus instrumentation for Oracle calls and the
// decomposition tree.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/ShayCichocki/dgot/pkg/models"
)

// Outcome labels the result of one Oracle call.
type Outcome string

const (
	// OutcomeOK is a reply that decoded as expected.
	OutcomeOK Outcome = "ok"
	// OutcomeParseError is a reply that needed a fallback extraction.
	OutcomeParseError Outcome = "parse_error"
	// OutcomeCommError is a failed call.
	OutcomeCommError Outcome = "comm_error"
	// OutcomeEmpty is a reply without content.
	OutcomeEmpty Outcome = "empty"
)

// Metrics holds the dgot collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	oracleCalls     *prometheus.CounterVec
	oracleDuration  *prometheus.HistogramVec
	parseFallbacks  *prometheus.CounterVec
	nodes           *prometheus.CounterVec
	subtreeFailures prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		oracleCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dgot_oracle_calls_total",
			Help: "Oracle calls by operation and outcome",
		}, []string{"op", "outcome"}),
		oracleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dgot_oracle_call_duration_seconds",
			Help:    "Latency of Oracle calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"op"}),
		parseFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dgot_parse_fallbacks_total",
			Help: "Replies that required a format-tolerant fallback extraction",
		}, []string{"op"}),
		nodes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dgot_nodes_total",
			Help: "Result nodes built, by kind",
		}, []string{"kind"}),
		subtreeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dgot_total_subtree_failures_total",
			Help: "Decompositions whose every child failed, solved directly instead",
		}),
	}
}

// ObserveCall records one Oracle call.
func (m *Metrics) ObserveCall(op string, outcome Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.oracleCalls.WithLabelValues(op, string(outcome)).Inc()
	m.oracleDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ParseFallback records a reply that fell back to tolerant extraction.
func (m *Metrics) ParseFallback(op string) {
	if m == nil {
		return
	}
	m.parseFallbacks.WithLabelValues(op).Inc()
}

// Node records a built result node.
func (m *Metrics) Node(kind models.NodeKind) {
	if m == nil {
		return
	}
	m.nodes.WithLabelValues(string(kind)).Inc()
}

// SubtreeFailure records a decomposition where no child produced a usable answer.
func (m *Metrics) SubtreeFailure() {
	if m == nil {
		return
	}
	m.subtreeFailures.Inc()
}

// Write dumps everything g gathers in the Prometheus text format.
func Write(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
