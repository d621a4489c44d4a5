// Package metrics provides Prometheus metrics for the control loop and bulb sinks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dialight"

var (
	LinesRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "serial",
		Name:      "lines_total",
		Help:      "Complete lines read from the serial port",
	})

	MalformedLines = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "serial",
		Name:      "malformed_lines_total",
		Help:      "Lines that did not contain an event",
	})

	OversizedLines = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "serial",
		Name:      "oversized_lines_total",
		Help:      "Lines discarded for exceeding the maximum length",
	})

	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "control",
		Name:      "events_total",
		Help:      "Handled events by name and outcome",
	}, []string{"name", "outcome"})

	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bulb",
		Name:      "dispatches_total",
		Help:      "Color commands handed to the bulb backend",
	}, []string{"backend"})

	power = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "light",
		Name:      "on",
		Help:      "1 if the light is switched on",
	})

	brightness = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "light",
		Name:      "brightness",
		Help:      "Stored dial brightness in [0, 1] before correction",
	})

	kelvin = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "light",
		Name:      "kelvin",
		Help:      "Stored color temperature",
	})
)

// ObserveLight publishes the controller's stored state.
func ObserveLight(on bool, b float64, k int) {
	if on {
		power.Set(1)
	} else {
		power.Set(0)
	}
	brightness.Set(b)
	kelvin.Set(float64(k))
}
