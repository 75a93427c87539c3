// Package mqtt delivers lid switch frames and daemon lifecycle events to an
// MQTT broker, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/hall-sensor/internal/input"
)

// Topic is the MQTT topic for switch events.
const Topic = "input/hall_sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "input/hall_sensor/system"

// Publisher publishes to MQTT. It is an input.Sink, so it can be attached
// directly to the switch device.
type Publisher interface {
	// Deliver publishes each switch event in the frame.
	// Returns error if publishing fails (should not crash the process).
	Deliver(frame []input.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Switch SwitchPayload `json:"switch"`
}

// SwitchPayload contains one switch event.
type SwitchPayload struct {
	Timestamp string `json:"timestamp"`
	Device    string `json:"device"`
	Phys      string `json:"phys"`
	Code      string `json:"code"`
	Value     int32  `json:"value"`
	State     string `json:"state"`
}

// FormatPayload creates the JSON payload for a switch event.
func FormatPayload(event input.Event) ([]byte, error) {
	payload := Payload{
		Switch: SwitchPayload{
			Timestamp: event.Time.UTC().Format(time.RFC3339Nano),
			Device:    input.DeviceName,
			Phys:      input.PhysPath,
			Code:      "SW_LID",
			Value:     event.Value,
			State:     input.StateName(event.Value),
		},
	}
	return json.Marshal(payload)
}

// switchEvents returns the events of a frame worth publishing.
func switchEvents(frame []input.Event) []input.Event {
	var out []input.Event
	for _, e := range frame {
		if e.Type == input.EvSw && e.Code == input.SwLid {
			out = append(out, e)
		}
	}
	return out
}

// SystemPayload represents the MQTT message payload for system events that
// don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
