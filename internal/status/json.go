package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/hall-sensor/internal/input"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Device        string     `json:"device"`
	Phys          string     `json:"phys"`
	Lifecycle     string     `json:"lifecycle"`
	Ready         bool       `json:"ready"`
	Switch        string     `json:"switch"`
	LastEvent     string     `json:"last_event,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"switch_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of switch counts.
type CountsJSON struct {
	Near int `json:"near"`
	Far  int `json:"far"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	GPIO      int    `json:"gpio"`
	ActiveLow bool   `json:"active_low"`
	Wakeup    bool   `json:"wakeup"`
	MinUV     uint32 `json:"min_uv"`
	MaxUV     uint32 `json:"max_uv"`
	Broker    string `json:"broker"`
	HTTPAddr  string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	sw := snap.Switch
	if sw == "" {
		sw = "UNKNOWN"
	}

	inner := StatusInner{
		Device:        input.DeviceName,
		Phys:          input.PhysPath,
		Lifecycle:     snap.Lifecycle,
		Ready:         snap.Ready(),
		Switch:        sw,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        CountsJSON{Near: snap.Counts.Near, Far: snap.Counts.Far},
		Config: ConfigJSON{
			GPIO:      snap.Config.GPIO,
			ActiveLow: snap.Config.ActiveLow,
			Wakeup:    snap.Config.Wakeup,
			MinUV:     snap.Config.MinUV,
			MaxUV:     snap.Config.MaxUV,
			Broker:    snap.Config.Broker,
			HTTPAddr:  snap.Config.HTTPAddr,
		},
	}
	if !snap.LastEvent.IsZero() {
		inner.LastEvent = snap.LastEvent.UTC().Format(time.RFC3339Nano)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
