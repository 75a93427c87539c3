// Package input publishes the sensor's lid switch as a logical input device.
// Values are reported per event and delivered to sinks as a frame when the
// device is synced, the way the Linux input subsystem groups events between
// SYN_REPORTs.
package input

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Device identity.
const (
	DeviceName = "hall_sensor"
	PhysPath   = "/dev/input/hall_dev"
)

// Event types and codes, numbered as in linux/input-event-codes.h.
const (
	EvSyn uint16 = 0x00
	EvSw  uint16 = 0x05

	SynReport uint16 = 0x00
	SwLid     uint16 = 0x00
)

// Switch values for SwLid.
const (
	LidOpen   int32 = 0 // far
	LidClosed int32 = 1 // near
)

var (
	// ErrNotRegistered is returned when reporting on a device that is not
	// registered.
	ErrNotRegistered = errors.New("input: device not registered")

	// ErrAlreadyRegistered is returned by a second Register.
	ErrAlreadyRegistered = errors.New("input: device already registered")
)

// Event is a single input event.
type Event struct {
	Time  time.Time
	Type  uint16
	Code  uint16
	Value int32
}

// IsSync reports whether e terminates a frame.
func (e Event) IsSync() bool {
	return e.Type == EvSyn && e.Code == SynReport
}

// StateName returns "NEAR" or "FAR" for a lid switch value.
func StateName(value int32) string {
	if value == LidClosed {
		return "NEAR"
	}
	return "FAR"
}

// Sink receives frames from a device. A frame holds the reported events
// followed by one sync event.
type Sink interface {
	Deliver(frame []Event) error
}

// Sinks delivers each frame to every sink in order. All sinks are tried;
// their errors are joined.
type Sinks []Sink

func (s Sinks) Deliver(frame []Event) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Deliver(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Device is a registered switch device.
type Device struct {
	name string
	phys string
	sink Sink
	now  func() time.Time

	mu         sync.Mutex
	registered bool
	pending    []Event
}

// NewDevice creates an unregistered lid switch device delivering to sink.
// If now is nil, time.Now is used.
func NewDevice(sink Sink, now func() time.Time) *Device {
	if now == nil {
		now = time.Now
	}
	return &Device{
		name: DeviceName,
		phys: PhysPath,
		sink: sink,
		now:  now,
	}
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Phys returns the physical path identifier.
func (d *Device) Phys() string { return d.phys }

// Register makes the device available to consumers.
func (d *Device) Register() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.registered {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, d.name)
	}
	if d.sink == nil {
		return fmt.Errorf("input: unable to register %s: no sink", d.name)
	}
	d.registered = true
	d.pending = nil
	return nil
}

// Unregister withdraws the device. Pending events are dropped.
func (d *Device) Unregister() {
	d.mu.Lock()
	d.registered = false
	d.pending = nil
	d.mu.Unlock()
}

// Registered reports whether the device is registered.
func (d *Device) Registered() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registered
}

// ReportSwitch queues a switch event. Values other than 0 are reported as 1.
// The value is queued even if it equals the last one delivered.
func (d *Device) ReportSwitch(code uint16, value int32) error {
	if value != 0 {
		value = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.registered {
		return ErrNotRegistered
	}
	d.pending = append(d.pending, Event{Time: d.now(), Type: EvSw, Code: code, Value: value})
	return nil
}

// Sync terminates the current frame and hands it to the sink.
func (d *Device) Sync() error {
	d.mu.Lock()
	if !d.registered {
		d.mu.Unlock()
		return ErrNotRegistered
	}
	frame := append(d.pending, Event{Time: d.now(), Type: EvSyn, Code: SynReport})
	d.pending = nil
	d.mu.Unlock()

	if err := d.sink.Deliver(frame); err != nil {
		log.Printf("input: %s deliver: %v", d.name, err)
		return err
	}
	return nil
}
