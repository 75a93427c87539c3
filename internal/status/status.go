// Package status provides a thread-safe status tracker for the hall-sensor
// daemon. It is read by the HTTP handlers and by system event publishing.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/hall-sensor/internal/input"
)

// Config contains daemon configuration for display.
type Config struct {
	GPIO      int
	ActiveLow bool
	Wakeup    bool
	MinUV     uint32
	MaxUV     uint32
	Broker    string
	HTTPAddr  string
}

// Counts tracks switch reports since startup.
type Counts struct {
	Near int
	Far  int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Lifecycle     string
	Switch        string // "NEAR", "FAR" or "" before the first edge
	LastEvent     time.Time
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether the sensor finished probing.
func (s Snapshot) Ready() bool {
	return s.Lifecycle == "ready"
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Lifecycle: "unconfigured",
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Deliver records the switch events of a frame. It makes the tracker an
// input.Sink.
func (t *Tracker) Deliver(frame []input.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range frame {
		if e.Type != input.EvSw || e.Code != input.SwLid {
			continue
		}
		t.snap.Switch = input.StateName(e.Value)
		t.snap.LastEvent = e.Time
		if e.Value == input.LidClosed {
			t.snap.Counts.Near++
		} else {
			t.snap.Counts.Far++
		}
	}
	return nil
}

// SetLifecycle sets the controller's lifecycle state name.
func (t *Tracker) SetLifecycle(state string) {
	t.mu.Lock()
	t.snap.Lifecycle = state
	t.mu.Unlock()
}

// SetConfig replaces the displayed configuration.
func (t *Tracker) SetConfig(cfg Config) {
	t.mu.Lock()
	t.snap.Config = cfg
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
