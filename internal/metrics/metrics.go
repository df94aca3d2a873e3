// Package metrics exposes Prometheus instrumentation for the assignment
// engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	assignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trunkline_assignments_total",
			Help: "Total number of assignment attempts",
		},
		[]string{"method", "outcome"},
	)

	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trunkline_transfers_total",
			Help: "Total number of conversation transfers",
		},
		[]string{"outcome"},
	)

	releasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trunkline_releases_total",
			Help: "Total number of conversation releases",
		},
		[]string{"outcome"},
	)

	escalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trunkline_escalations_total",
			Help: "Total number of escalated conversations",
		},
	)

	assignmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trunkline_assignment_duration_seconds",
			Help:    "Assignment operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	eligibleSetSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trunkline_eligible_agents",
			Help:    "Size of the eligible agent set at selection time",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
)

// RecordAssignment counts one assignment attempt by method and outcome.
func RecordAssignment(method, outcome string, elapsed time.Duration) {
	assignmentsTotal.WithLabelValues(method, outcome).Inc()
	assignmentDuration.Observe(elapsed.Seconds())
}

// RecordTransfer counts one transfer attempt.
func RecordTransfer(outcome string) {
	transfersTotal.WithLabelValues(outcome).Inc()
}

// RecordRelease counts one release attempt.
func RecordRelease(outcome string) {
	releasesTotal.WithLabelValues(outcome).Inc()
}

// RecordEscalation counts one escalated conversation.
func RecordEscalation() {
	escalationsTotal.Inc()
}

// RecordEligibleSet observes the eligible set size for one auto-assignment.
func RecordEligibleSet(n int) {
	eligibleSetSize.Observe(float64(n))
}
