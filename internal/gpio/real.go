//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealChip claims lines from an actual GPIO character device.
type RealChip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named chip, e.g. "gpiochip0".
func OpenChip(name string) (*RealChip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealChip{chip: chip}, nil
}

// Claim requests the line as an input. Edge detection stays off until Watch.
func (c *RealChip) Claim(offset int, consumer string) (Line, error) {
	l := &realLine{offset: offset}
	line, err := c.chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.WithEventHandler(l.dispatch),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", ErrClaimFailed, offset, err)
	}
	l.line = line
	return l, nil
}

// Close closes the chip. Lines already claimed stay valid until closed.
func (c *RealChip) Close() error {
	return c.chip.Close()
}

type realLine struct {
	offset int
	line   *gpiocdev.Line

	mu      sync.Mutex
	handler func(Edge)
}

func (l *realLine) Offset() int { return l.offset }

func (l *realLine) Value() (int, error) {
	v, err := l.line.Value()
	if err != nil {
		return 0, fmt.Errorf("read line %d: %w", l.offset, err)
	}
	return v, nil
}

func (l *realLine) Watch(handler func(Edge)) error {
	l.mu.Lock()
	l.handler = handler
	l.mu.Unlock()

	if err := l.line.Reconfigure(gpiocdev.WithBothEdges); err != nil {
		l.mu.Lock()
		l.handler = nil
		l.mu.Unlock()
		return fmt.Errorf("enable edges on line %d: %w", l.offset, err)
	}
	return nil
}

func (l *realLine) Unwatch() error {
	err := l.line.Reconfigure(gpiocdev.WithoutEdges)
	l.mu.Lock()
	l.handler = nil
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("disable edges on line %d: %w", l.offset, err)
	}
	return nil
}

func (l *realLine) Close() error {
	return l.line.Close()
}

// dispatch runs on the gpiocdev watcher goroutine.
func (l *realLine) dispatch(evt gpiocdev.LineEvent) {
	l.mu.Lock()
	h := l.handler
	l.mu.Unlock()
	if h == nil {
		return
	}
	h(Edge{
		Rising: evt.Type == gpiocdev.LineEventRisingEdge,
		Time:   time.Now(),
	})
}
