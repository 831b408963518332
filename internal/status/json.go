package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Gear          string     `json:"gear"`
	Connected     bool       `json:"connected"`
	Ready         bool       `json:"ready"`
	Held          string     `json:"held,omitempty"`
	Pending       []string   `json:"pending"`
	LastChange    string     `json:"last_change,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	GearChanges   int `json:"gear_changes"`
	Disconnects   int `json:"disconnects"`
	Reconnects    int `json:"reconnects"`
	KeysPressed   int `json:"keys_pressed"`
	KeysDropped   int `json:"keys_dropped"`
	OutputErrors  int `json:"output_errors"`
	SamplerErrors int `json:"sampler_errors"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HoldMs      int64  `json:"hold_ms"`
	QueueSize   int    `json:"queue_size"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Gear:          snap.Gear.String(),
		Connected:     snap.Connected,
		Ready:         snap.Baselined,
		Pending:       make([]string, 0, len(snap.Pending)),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			GearChanges:   snap.Counts.GearChanges,
			Disconnects:   snap.Counts.Disconnects,
			Reconnects:    snap.Counts.Reconnects,
			KeysPressed:   snap.Counts.KeysPressed,
			KeysDropped:   snap.Counts.KeysDropped,
			OutputErrors:  snap.Counts.OutputErrors,
			SamplerErrors: snap.Counts.SamplerErrors,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HoldMs:      snap.Config.HoldMs,
			QueueSize:   snap.Config.QueueSize,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if snap.Held != 0 {
		inner.Held = snap.Held.String()
	}
	for _, k := range snap.Pending {
		inner.Pending = append(inner.Pending, k.String())
	}
	if !snap.LastChange.IsZero() {
		inner.LastChange = snap.LastChange.UTC().Format(time.RFC3339Nano)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatCompactJSON returns the status on a single line, for websocket frames.
func FormatCompactJSON(snap Snapshot) []byte {
	data, _ := json.Marshal(StatusJSON{Status: buildInner(snap)})
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
