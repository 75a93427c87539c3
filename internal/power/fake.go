package power

import (
	"fmt"
	"sync"
)

// FakeRegulator records calls for test assertions.
type FakeRegulator struct {
	// Voltages is returned by CountVoltages.
	Voltages int

	// SetVoltageError, if set, is returned by the first SetVoltage call only.
	// The reset that follows a failed configure then succeeds.
	SetVoltageError error

	// EnableError, if set, will be returned by Enable.
	EnableError error

	// DisableError, if set, will be returned by Disable.
	DisableError error

	// Ranges contains every range passed to SetVoltage, in order.
	Ranges [][2]uint32

	Enabled      bool
	EnableCalls  int
	DisableCalls int
}

// CountVoltages returns Voltages.
func (f *FakeRegulator) CountVoltages() int {
	return f.Voltages
}

// SetVoltage records the range.
func (f *FakeRegulator) SetVoltage(minUV, maxUV uint32) error {
	f.Ranges = append(f.Ranges, [2]uint32{minUV, maxUV})
	if err := f.SetVoltageError; err != nil {
		f.SetVoltageError = nil
		return err
	}
	return nil
}

// Enable records the call.
func (f *FakeRegulator) Enable() error {
	f.EnableCalls++
	if f.EnableError != nil {
		return f.EnableError
	}
	f.Enabled = true
	return nil
}

// Disable records the call.
func (f *FakeRegulator) Disable() error {
	f.DisableCalls++
	if f.DisableError != nil {
		return f.DisableError
	}
	f.Enabled = false
	return nil
}

// LastRange returns the most recent range set, and false if none was.
func (f *FakeRegulator) LastRange() ([2]uint32, bool) {
	if len(f.Ranges) == 0 {
		return [2]uint32{}, false
	}
	return f.Ranges[len(f.Ranges)-1], true
}

// FakeProvider serves FakeRegulators by name.
type FakeProvider struct {
	Regulators map[string]*FakeRegulator

	// GetError, if set, will be returned by Get.
	GetError error

	Gets int
}

// Get returns the named regulator.
func (p *FakeProvider) Get(name string) (Regulator, error) {
	p.Gets++
	if p.GetError != nil {
		return nil, p.GetError
	}
	r, ok := p.Regulators[name]
	if !ok {
		return nil, fmt.Errorf("no regulator %q", name)
	}
	return r, nil
}

// FakeWakeup records wakeup changes.
type FakeWakeup struct {
	mu      sync.Mutex
	enabled bool
	calls   []bool

	// Error, if set, will be returned by SetWakeup.
	Error error
}

func (w *FakeWakeup) SetWakeup(enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, enabled)
	if w.Error != nil {
		return w.Error
	}
	w.enabled = enabled
	return nil
}

// Enabled reports the current wake setting.
func (w *FakeWakeup) Enabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

// Calls returns every value passed to SetWakeup.
func (w *FakeWakeup) Calls() []bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]bool(nil), w.calls...)
}
