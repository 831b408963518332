package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

// FakeMessage is one message as it would have reached the broker.
type FakeMessage struct {
	Topic    string
	Retained bool
	Payload  []byte
}

// FakePublisher records what a RealPublisher would have sent. Shifter
// payloads are decoded back into GearshiftPayload so tests can assert on
// the wire format rather than on logic.Event.
type FakePublisher struct {
	Events   []logic.Event
	Payloads [][]byte
	// Decoded holds each shifter payload parsed back from JSON.
	Decoded []GearshiftPayload

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// Messages lists every publish in order across both topics.
	Messages []FakeMessage

	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish formats the shifter event and records it on Topic.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode shifter payload: %w", err)
	}

	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	f.Decoded = append(f.Decoded, p.Gearshift)
	f.Messages = append(f.Messages, FakeMessage{Topic: Topic, Payload: payload})
	return nil
}

// PublishSystem records the system event on TopicSystem.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	f.Messages = append(f.Messages, FakeMessage{Topic: TopicSystem, Retained: event.Retained, Payload: payload})
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Keys joins the key of every published gear change, in publish order.
// Changes into an unmapped gear contribute nothing.
func (f *FakePublisher) Keys() string {
	var b strings.Builder
	for _, p := range f.Decoded {
		if p.Event == string(logic.EventGearChange) {
			b.WriteString(p.Key)
		}
	}
	return b.String()
}

// Gears lists the gear field of every shifter payload.
func (f *FakePublisher) Gears() []string {
	gears := make([]string, len(f.Decoded))
	for i, p := range f.Decoded {
		gears[i] = p.Gear
	}
	return gears
}

// SystemEventNames returns the Event field of each recorded system event.
func (f *FakePublisher) SystemEventNames() []string {
	names := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		names[i] = e.Event
	}
	return names
}

// Retained returns the messages that would stay on the broker.
func (f *FakePublisher) Retained() []FakeMessage {
	var out []FakeMessage
	for _, m := range f.Messages {
		if m.Retained {
			out = append(out, m)
		}
	}
	return out
}
