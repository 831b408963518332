package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      logic.EventGearChange,
		Gear:      logic.Reverse,
		Previous:  logic.Neutral,
		Key:       'r',
		Connected: true,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"gearshift":{"timestamp":"2026-02-02T22:18:12Z","event":"GEAR_CHANGE","gear":"R","previous":"N","key":"r","connected":true}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadOmitsMissingKey(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      logic.EventDisconnected,
		Gear:      logic.Gear3,
		Previous:  logic.Gear3,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]map[string]any
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	inner := parsed["gearshift"]
	if _, ok := inner["key"]; ok {
		t.Error("key should be omitted when no key is mapped")
	}
	if inner["event"] != "SHIFTER_DISCONNECTED" {
		t.Errorf("event: got %v", inner["event"])
	}
	if inner["connected"] != false {
		t.Errorf("connected: got %v, want false", inner["connected"])
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 3, 0, 0, 0, 0, loc),
		Type:      logic.EventGearChange,
	}

	payload, _ := FormatPayload(event)
	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Gearshift.Timestamp != "2026-02-02T22:00:00Z" {
		t.Errorf("timestamp: got %s, want UTC", parsed.Gearshift.Timestamp)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"OFFLINE","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadOmitsReason(t *testing.T) {
	payload, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	})

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("got %s, want raw payload", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	events := []logic.Event{
		{Type: logic.EventGearChange, Gear: logic.Gear1, Previous: logic.Neutral, Key: '1'},
		{Type: logic.EventGearChange, Gear: logic.Neutral, Previous: logic.Gear1, Key: 'n'},
	}
	for _, e := range events {
		if err := f.Publish(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(f.Events) != 2 || len(f.Payloads) != 2 {
		t.Fatalf("expected 2 events and payloads, got %d/%d", len(f.Events), len(f.Payloads))
	}
	if f.Events[0].Gear != logic.Gear1 || f.Events[1].Gear != logic.Neutral {
		t.Error("events recorded out of order")
	}
	if got := f.Keys(); got != "1n" {
		t.Errorf("Keys: got %q, want 1n", got)
	}
	if g := f.Gears(); len(g) != 2 || g[0] != "1" || g[1] != "N" {
		t.Errorf("Gears: got %v", g)
	}
	if f.Decoded[1].Previous != "1" {
		t.Errorf("decoded previous: got %q, want 1", f.Decoded[1].Previous)
	}
	for i, m := range f.Messages {
		if m.Topic != Topic || m.Retained {
			t.Errorf("message %d: got topic=%s retained=%v", i, m.Topic, m.Retained)
		}
	}
}

func TestFakePublisherKeysSkipsConnectivity(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.Event{Type: logic.EventGearChange, Gear: logic.Reverse, Key: 'r'})
	f.Publish(logic.Event{Type: logic.EventDisconnected, Gear: logic.Reverse})
	f.Publish(logic.Event{Type: logic.EventGearChange, Gear: logic.Gear6})

	if got := f.Keys(); got != "r" {
		t.Errorf("Keys: got %q, want r", got)
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("publish failed")
	f.PublishSystemError = errors.New("system failed")

	if err := f.Publish(logic.Event{}); err == nil {
		t.Error("expected publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected publish system error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherSystemEvents(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Event: "SHUTDOWN", Reason: "SIGTERM"})

	names := f.SystemEventNames()
	if len(names) != 2 || names[0] != "STARTUP" || names[1] != "SHUTDOWN" {
		t.Errorf("names: got %v", names)
	}
	if !f.SystemEvents[0].Retained {
		t.Error("retained flag not recorded")
	}
	retained := f.Retained()
	if len(retained) != 1 || retained[0].Topic != TopicSystem {
		t.Errorf("retained: got %+v", retained)
	}

	if err := f.Close(); err != nil || !f.Closed {
		t.Error("Close should mark the publisher closed")
	}
}

func TestDiscard(t *testing.T) {
	var p Publisher = Discard{}
	if err := p.Publish(logic.Event{}); err != nil {
		t.Errorf("Publish: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{}); err != nil {
		t.Errorf("PublishSystem: %v", err)
	}
	if (Discard{}).IsConnected() {
		t.Error("Discard should never report connected")
	}
}

func TestTopics(t *testing.T) {
	if Topic != "input/gearshift/events" {
		t.Errorf("Topic: got %q", Topic)
	}
	if TopicSystem != "input/gearshift/system" {
		t.Errorf("TopicSystem: got %q", TopicSystem)
	}
}
