package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	openCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_open_commands_total",
			Help: "Open commands dispatched to controllers by result",
		},
		[]string{"result"},
	)

	controllers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gate_connected_controllers",
			Help: "Currently connected gate controllers",
		},
	)
)

// OpenCommand records one dispatched open command.
func OpenCommand(result string) {
	openCommands.WithLabelValues(result).Inc()
}

// ControllerConnected tracks the controller gauge.
func ControllerConnected(delta int) {
	controllers.Add(float64(delta))
}
