// Package gpio provides GPIO line claiming and edge interrupt binding with
// hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"time"
)

// Consumer is the label attached to the claimed line, visible in gpioinfo.
const Consumer = "hall_sensor_irq"

// MaxLines bounds the addressable line offsets. Offsets outside
// [0, MaxLines) are never valid, whatever the chip reports.
const MaxLines = 512

var (
	// ErrClaimFailed is returned when a line cannot be requested.
	ErrClaimFailed = errors.New("gpio: claim failed")

	// ErrBindFailed is returned when edge detection cannot be enabled.
	ErrBindFailed = errors.New("gpio: interrupt bind failed")
)

// Valid reports whether offset is an addressable line number.
func Valid(offset int) bool {
	return offset >= 0 && offset < MaxLines
}

// Edge is a single transition observed on a watched line.
type Edge struct {
	Rising bool
	Time   time.Time
}

// Chip hands out lines.
type Chip interface {
	// Claim requests the line as an input, labelled with consumer.
	Claim(offset int, consumer string) (Line, error)
}

// Line is a claimed input line.
type Line interface {
	// Offset returns the line number on its chip.
	Offset() int

	// Value returns the raw level, 0 or 1. It may block.
	Value() (int, error)

	// Watch enables detection of both rising and falling edges and calls
	// handler for each one. Only one handler may be watching at a time.
	Watch(handler func(Edge)) error

	// Unwatch disables edge detection. No handler call starts after it returns.
	Unwatch() error

	// Close releases the line.
	Close() error
}
