package reliability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// metricRetryAttempts counts failed attempts per operation and kind
	metricRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixturewatch_retry_attempts_total",
			Help: "Total number of failed operation attempts",
		},
		[]string{"operation", "kind"},
	)

	// metricFailuresClassified counts classified failures by kind
	metricFailuresClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixturewatch_failures_classified_total",
			Help: "Total number of failures by classified kind",
		},
		[]string{"kind"},
	)

	// metricCircuitTransitions counts breaker state transitions
	metricCircuitTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixturewatch_circuit_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"operation", "state"},
	)

	// metricCircuitState exposes the current breaker state
	// (0=closed, 1=half_open, 2=open)
	metricCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fixturewatch_circuit_state",
			Help: "Current circuit breaker state (0=closed, 1=half_open, 2=open)",
		},
		[]string{"operation"},
	)

	// metricBatchItems counts partial-failure batch items by outcome
	metricBatchItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixturewatch_batch_items_total",
			Help: "Total number of batch items by outcome",
		},
		[]string{"operation", "result"},
	)
)
