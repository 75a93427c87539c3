package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// FakeChip is a test double that hands out FakeLines.
type FakeChip struct {
	mu sync.Mutex

	// ClaimError, if set, will be returned by Claim.
	ClaimError error

	// WatchError, if set, is returned by Watch on lines claimed afterwards.
	WatchError error

	lines map[int]*FakeLine
}

// NewFakeChip creates an empty FakeChip.
func NewFakeChip() *FakeChip {
	return &FakeChip{lines: make(map[int]*FakeLine)}
}

// Claim returns a FakeLine for offset. Claiming a line that is already held
// fails, as the kernel reports EBUSY.
func (c *FakeChip) Claim(offset int, consumer string) (Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ClaimError != nil {
		return nil, fmt.Errorf("%w: line %d: %w", ErrClaimFailed, offset, c.ClaimError)
	}
	if l, ok := c.lines[offset]; ok && !l.closed {
		return nil, fmt.Errorf("%w: line %d: busy", ErrClaimFailed, offset)
	}
	l := &FakeLine{offset: offset, Consumer: consumer, watchErr: c.WatchError}
	c.lines[offset] = l
	return l, nil
}

// Line returns the most recent line claimed at offset, or nil.
func (c *FakeChip) Line(offset int) *FakeLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines[offset]
}

// Held reports whether offset is claimed and not yet released.
func (c *FakeChip) Held(offset int) bool {
	l := c.Line(offset)
	return l != nil && !l.Closed()
}

// FakeLine is a scripted input line.
type FakeLine struct {
	offset int

	// Consumer is the label passed to Claim.
	Consumer string

	mu       sync.Mutex
	level    int
	handler  func(Edge)
	closed   bool
	reads    int
	readErr  error
	watchErr error
}

func (l *FakeLine) Offset() int { return l.offset }

// Value returns the current scripted level.
func (l *FakeLine) Value() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads++
	if l.readErr != nil {
		return 0, l.readErr
	}
	return l.level, nil
}

// Watch records the handler.
func (l *FakeLine) Watch(handler func(Edge)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watchErr != nil {
		return l.watchErr
	}
	if l.closed {
		return errors.New("line closed")
	}
	l.handler = handler
	return nil
}

// Unwatch drops the handler.
func (l *FakeLine) Unwatch() error {
	l.mu.Lock()
	l.handler = nil
	l.mu.Unlock()
	return nil
}

// Close marks the line as released.
func (l *FakeLine) Close() error {
	l.mu.Lock()
	l.closed = true
	l.handler = nil
	l.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (l *FakeLine) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Watched reports whether a handler is installed.
func (l *FakeLine) Watched() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handler != nil
}

// Reads returns how many times Value was called.
func (l *FakeLine) Reads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}

// SetLevel changes the level without raising an edge.
func (l *FakeLine) SetLevel(level int) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetReadError makes subsequent Value calls fail.
func (l *FakeLine) SetReadError(err error) {
	l.mu.Lock()
	l.readErr = err
	l.mu.Unlock()
}

// Drive sets the level and raises the matching edge, like a real signal
// transition. Driving to the current level still raises an edge, which is
// how contact bounce looks from userspace.
// It returns false when nothing is watching the line.
func (l *FakeLine) Drive(level int) bool {
	l.mu.Lock()
	l.level = level
	h := l.handler
	l.mu.Unlock()
	if h == nil {
		return false
	}
	h(Edge{Rising: level != 0, Time: time.Now()})
	return true
}
