package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sagaOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_saga_outcomes_total",
			Help: "Start/stop saga results by outcome variant",
		},
		[]string{"operation", "outcome"},
	)

	compensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_compensations_total",
			Help: "Compensating actions executed after a failed saga step",
		},
		[]string{"operation", "step"},
	)

	gateOpens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_gate_opens_total",
			Help: "Gate open commands by result",
		},
		[]string{"result"},
	)
)

// SagaOutcome records the final variant of a start or stop saga.
func SagaOutcome(operation, outcome string) {
	sagaOutcomes.WithLabelValues(operation, outcome).Inc()
}

// CompensationRun records one executed undo action.
func CompensationRun(operation, step string) {
	compensations.WithLabelValues(operation, step).Inc()
}

// GateOpen records a gate actuation attempt.
func GateOpen(success bool) {
	result := "ok"
	if !success {
		result = "failed"
	}
	gateOpens.WithLabelValues(result).Inc()
}
