// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

// Topic is the MQTT topic for shifter events.
const Topic = "input/gearshift/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "input/gearshift/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a shifter event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Gearshift GearshiftPayload `json:"gearshift"`
}

// GearshiftPayload contains the shifter event details.
type GearshiftPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Gear      string `json:"gear"`
	Previous  string `json:"previous"`
	Key       string `json:"key,omitempty"`
	Connected bool   `json:"connected"`
}

// FormatPayload creates the JSON payload for a shifter event.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := GearshiftPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Event:     string(event.Type),
		Gear:      event.Gear.String(),
		Previous:  event.Previous.String(),
		Connected: event.Connected,
	}
	if event.Key != 0 {
		p.Key = event.Key.String()
	}
	return json.Marshal(Payload{Gearshift: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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

	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}

// Discard is a Publisher used when no broker is configured.
type Discard struct{}

func (Discard) Publish(logic.Event) error       { return nil }
func (Discard) PublishSystem(SystemEvent) error { return nil }
func (Discard) Close() error                    { return nil }
func (Discard) IsConnected() bool               { return false }
