package sensor

import (
	"log"

	"github.com/sweeney/hall-sensor/internal/gpio"
	"github.com/sweeney/hall-sensor/internal/input"
)

// Logical maps a raw pin level to the lid switch value: 1 (near/closed)
// when the level differs from activeLow, 0 (far/open) otherwise.
func Logical(raw int, activeLow bool) int32 {
	var v int32
	if raw != 0 {
		v = 1
	}
	if activeLow {
		v ^= 1
	}
	return v
}

// handleEdge runs on the binding's worker for every edge. It always reads
// the pin and reports, even when the value is unchanged.
func (c *Controller) handleEdge(gpio.Edge) {
	raw, err := c.line.Value()
	if err != nil {
		log.Printf("sensor: read gpio %d: %v", c.cfg.GPIO, err)
	}
	value := Logical(raw, c.cfg.ActiveLow)

	if value == input.LidClosed {
		log.Printf("sensor: near")
	} else {
		log.Printf("sensor: far")
	}

	if err := c.ch.ReportSwitch(input.SwLid, value); err != nil {
		log.Printf("sensor: report switch: %v", err)
	}
	if err := c.ch.Sync(); err != nil {
		log.Printf("sensor: sync: %v", err)
	}

	if c.metrics != nil {
		c.metrics.Edges.Inc()
		c.metrics.Reports.WithLabelValues(input.StateName(value)).Inc()
	}
}
