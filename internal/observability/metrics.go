// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the monitor's Prometheus collectors, registered on a
// private registry so tests and multiple servers do not collide. All
// Record methods accept a nil receiver.
type Metrics struct {
	Registry *prometheus.Registry

	// ScholarRequests counts bibliographic API calls by endpoint and outcome
	// (ok, not_found, exhausted, error).
	ScholarRequests *prometheus.CounterVec

	// ScholarRetries counts retried attempts by reason.
	ScholarRetries *prometheus.CounterVec

	// SeedOutcomes counts terminal and retry outcomes per seed by action.
	SeedOutcomes *prometheus.CounterVec

	// CitationsDiscovered counts unique citing papers added to results.
	CitationsDiscovered prometheus.Counter

	// Classifications counts analysis results by outcome
	// (relevant, irrelevant, fallback, skipped).
	Classifications *prometheus.CounterVec

	// ClassificationDuration observes classification latency in seconds.
	ClassificationDuration prometheus.Histogram
}

// NewMetrics creates and registers the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ScholarRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scholar",
			Name:      "requests_total",
			Help:      "Semantic Scholar API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ScholarRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scholar",
			Name:      "retries_total",
			Help:      "Retried Semantic Scholar attempts by reason.",
		}, []string{"reason"}),
		SeedOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "seed_outcomes_total",
			Help:      "Seed processing outcomes by action.",
		}, []string{"action"}),
		CitationsDiscovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "citations_discovered_total",
			Help:      "Unique citing papers discovered.",
		}),
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "classifications_total",
			Help:      "Analysis results by outcome.",
		}, []string{"outcome"}),
		ClassificationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "classification_duration_seconds",
			Help:      "Classification request latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
	}
}

func (m *Metrics) RecordScholarRequest(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.ScholarRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) RecordScholarRetry(reason string) {
	if m == nil {
		return
	}
	m.ScholarRetries.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordSeedOutcome(action string) {
	if m == nil {
		return
	}
	m.SeedOutcomes.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordCitations(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CitationsDiscovered.Add(float64(n))
}

func (m *Metrics) RecordClassification(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.ClassificationDuration.Observe(elapsed.Seconds())
	}
}
