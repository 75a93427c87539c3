// Package power sequences the sensor's supply rail and its wake capability.
package power

import (
	"errors"
	"fmt"
	"log"
)

// RailName is the supply the sensor draws from.
const RailName = "vddio"

var (
	// ErrUnavailable is returned when the rail cannot be acquired.
	ErrUnavailable = errors.New("power: rail unavailable")

	// ErrConfigure is returned when the voltage range cannot be set.
	ErrConfigure = errors.New("power: set voltage failed")

	// ErrEnable is returned when the rail cannot be switched on.
	ErrEnable = errors.New("power: enable failed")
)

// Regulator is a controllable supply.
type Regulator interface {
	// CountVoltages returns the number of selectable voltages. Zero or less
	// means the output voltage is fixed.
	CountVoltages() int

	SetVoltage(minUV, maxUV uint32) error
	Enable() error
	Disable() error
}

// Provider looks regulators up by supply name.
type Provider interface {
	Get(name string) (Regulator, error)
}

// RailState tracks a rail through its lifetime.
type RailState int

const (
	RailUnacquired RailState = iota
	RailConfigured
	RailEnabled
	RailDisabled
)

func (s RailState) String() string {
	switch s {
	case RailUnacquired:
		return "unacquired"
	case RailConfigured:
		return "configured"
	case RailEnabled:
		return "enabled"
	case RailDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("RailState(%d)", int(s))
	}
}

// Rail is an acquired regulator and the range it was configured for.
type Rail struct {
	name  string
	reg   Regulator
	state RailState
	minUV uint32
	maxUV uint32
}

// Name returns the supply name.
func (r *Rail) Name() string { return r.name }

// State returns the current state. A nil rail is unacquired.
func (r *Rail) State() RailState {
	if r == nil {
		return RailUnacquired
	}
	return r.state
}

// Manager acquires and sequences rails from a Provider.
type Manager struct {
	provider Provider
}

// NewManager creates a Manager over provider.
func NewManager(provider Provider) *Manager {
	return &Manager{provider: provider}
}

// Acquire looks up the named rail. The returned rail is not yet configured.
func (m *Manager) Acquire(name string) (*Rail, error) {
	reg, err := m.provider.Get(name)
	if err != nil {
		log.Printf("power: regulator %s get failed: %v", name, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, name, err)
	}
	return &Rail{name: name, reg: reg}, nil
}

// Configure sets the rail's voltage range. Rails with a fixed output are
// left alone. If setting the range fails the rail is reset to [0, maxUV]
// before the error is returned; a failing reset is only logged.
func (m *Manager) Configure(r *Rail, minUV, maxUV uint32) error {
	r.minUV, r.maxUV = minUV, maxUV
	if r.reg.CountVoltages() <= 0 {
		r.state = RailConfigured
		return nil
	}
	if err := r.reg.SetVoltage(minUV, maxUV); err != nil {
		log.Printf("power: regulator %s set voltage failed: %v", r.name, err)
		m.reset(r)
		return fmt.Errorf("%w: %s [%d,%d]: %w", ErrConfigure, r.name, minUV, maxUV, err)
	}
	r.state = RailConfigured
	return nil
}

// Deconfigure resets the rail's range to [0, maxUV], releasing its voltage
// request. The rail is unacquired afterwards. A nil rail is a no-op.
func (m *Manager) Deconfigure(r *Rail) {
	if r == nil {
		return
	}
	m.reset(r)
	r.state = RailUnacquired
}

func (m *Manager) reset(r *Rail) {
	if r.reg.CountVoltages() <= 0 {
		return
	}
	if err := r.reg.SetVoltage(0, r.maxUV); err != nil {
		log.Printf("power: regulator %s reset voltage failed: %v", r.name, err)
	}
}

// Enable switches the rail on.
func (m *Manager) Enable(r *Rail) error {
	if err := r.reg.Enable(); err != nil {
		log.Printf("power: enable regulator %s failed: %v", r.name, err)
		return fmt.Errorf("%w: %s: %w", ErrEnable, r.name, err)
	}
	r.state = RailEnabled
	return nil
}

// Disable switches the rail off. A nil rail is a no-op.
func (m *Manager) Disable(r *Rail) error {
	if r == nil {
		return nil
	}
	if err := r.reg.Disable(); err != nil {
		log.Printf("power: disable regulator %s failed: %v", r.name, err)
		return fmt.Errorf("disable %s: %w", r.name, err)
	}
	r.state = RailDisabled
	return nil
}
