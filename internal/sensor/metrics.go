package sensor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the controller's Prometheus instruments.
type Metrics struct {
	Edges         prometheus.Counter
	Reports       *prometheus.CounterVec
	ProbeFailures *prometheus.CounterVec
	State         prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Edges: f.NewCounter(prometheus.CounterOpts{
			Name: "hall_sensor_edges_total",
			Help: "GPIO edges handled.",
		}),
		Reports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hall_sensor_switch_reports_total",
			Help: "Lid switch values reported, by state.",
		}, []string{"state"}),
		ProbeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hall_sensor_probe_failures_total",
			Help: "Failed probes, by the step that failed.",
		}, []string{"step"}),
		State: f.NewGauge(prometheus.GaugeOpts{
			Name: "hall_sensor_lifecycle_state",
			Help: "Current lifecycle state (0 unconfigured ... 7 ready, 8 failed).",
		}),
	}
}
