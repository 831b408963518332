package logic

import (
	"testing"
	"time"
)

func TestMonitorBaseline(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(DefaultKeyMap(), now)

	if m.IsBaselined() {
		t.Error("new monitor should not be baselined")
	}

	events := m.Process(Input{Gear: Gear3, Connected: true, Time: now})
	if len(events) != 0 {
		t.Errorf("expected no events at baseline, got %d", len(events))
	}
	if !m.IsBaselined() {
		t.Error("expected baselined after first sample")
	}

	g, c := m.CurrentState()
	if g != Gear3 || !c {
		t.Errorf("CurrentState: got (%s, %v), want (3, true)", g, c)
	}
}

func TestMonitorGearChange(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(DefaultKeyMap(), now)
	m.Process(Input{Gear: Neutral, Connected: true, Time: now})

	// Same gear: nothing
	if events := m.Process(Input{Gear: Neutral, Connected: true, Time: now.Add(10 * time.Millisecond)}); len(events) != 0 {
		t.Errorf("expected no events for stable gear, got %d", len(events))
	}

	events := m.Process(Input{Gear: Gear1, Connected: true, Time: now.Add(20 * time.Millisecond)})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventGearChange {
		t.Errorf("Type: got %s, want GEAR_CHANGE", e.Type)
	}
	if e.Gear != Gear1 || e.Previous != Neutral {
		t.Errorf("gears: got %s<-%s, want 1<-N", e.Gear, e.Previous)
	}
	if e.Key != '1' {
		t.Errorf("Key: got %q, want '1'", e.Key)
	}
	if m.EventCountsSnapshot().GearChanges != 1 {
		t.Errorf("GearChanges: got %d, want 1", m.EventCountsSnapshot().GearChanges)
	}
}

func TestMonitorUnmappedGear(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(KeyMap{Reverse: 'r'}, now)
	m.Process(Input{Gear: Neutral, Connected: true, Time: now})

	events := m.Process(Input{Gear: Gear2, Connected: true, Time: now})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Key != 0 {
		t.Errorf("Key: got %q, want none", events[0].Key)
	}
}

func TestMonitorConnectivity(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(DefaultKeyMap(), now)
	m.Process(Input{Gear: Gear2, Connected: true, Time: now})

	events := m.Process(Input{Gear: Gear2, Connected: false, Time: now})
	if len(events) != 1 || events[0].Type != EventDisconnected {
		t.Fatalf("expected SHIFTER_DISCONNECTED, got %+v", events)
	}

	// Reconnect in a different gear: connectivity first, then the change.
	events = m.Process(Input{Gear: Gear4, Connected: true, Time: now})
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventConnected {
		t.Errorf("event 0: got %s, want SHIFTER_CONNECTED", events[0].Type)
	}
	if events[1].Type != EventGearChange || events[1].Gear != Gear4 {
		t.Errorf("event 1: got %s %s, want GEAR_CHANGE 4", events[1].Type, events[1].Gear)
	}

	c := m.EventCountsSnapshot()
	if c.Disconnects != 1 || c.Reconnects != 1 {
		t.Errorf("counts: got %+v, want 1 disconnect and 1 reconnect", c)
	}
}

func TestMonitorHeartbeat(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(DefaultKeyMap(), start)

	if hb := m.CheckHeartbeat(start.Add(time.Hour), time.Minute, EventCounts{}); hb != nil {
		t.Error("expected no heartbeat before baseline")
	}

	m.Process(Input{Gear: Neutral, Connected: true, Time: start})

	if hb := m.CheckHeartbeat(start.Add(30*time.Second), time.Minute, EventCounts{}); hb != nil {
		t.Error("expected no heartbeat before interval")
	}

	counts := EventCounts{GearChanges: 4, KeysPressed: 4}
	hb := m.CheckHeartbeat(start.Add(time.Minute), time.Minute, counts)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != time.Minute {
		t.Errorf("Uptime: got %v, want 1m", hb.Uptime)
	}
	if hb.Counts != counts {
		t.Errorf("Counts: got %+v, want %+v", hb.Counts, counts)
	}

	if hb := m.CheckHeartbeat(start.Add(90*time.Second), time.Minute, counts); hb != nil {
		t.Error("expected interval to restart after heartbeat")
	}
	if hb := m.CheckHeartbeat(start.Add(time.Hour), 0, counts); hb != nil {
		t.Error("expected no heartbeat when disabled")
	}
}

func TestTotals(t *testing.T) {
	c := Totals(
		EventCounts{GearChanges: 3},
		SchedulerStats{Pressed: 3, Dropped: 1, PressErrors: 1, ReleaseErrors: 2},
		DecoderStats{AnalogErrors: 4, DigitalErrors: 1},
	)
	want := EventCounts{GearChanges: 3, KeysPressed: 3, KeysDropped: 1, OutputErrors: 3, SamplerErrors: 5}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}
