package logic

import "time"

// Input is one polling-loop observation of the decoder.
type Input struct {
	Gear      Gear
	Connected bool
	Time      time.Time
}

// Monitor turns successive decoder readings into gear change and
// connectivity events, and keeps the counters reported by heartbeats.
type Monitor struct {
	keys          KeyMap
	baselined     bool
	gear          Gear
	connected     bool
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewMonitor creates a monitor that maps gear changes through keys.
// The startTime is used for calculating uptime in heartbeat events.
func NewMonitor(keys KeyMap, startTime time.Time) *Monitor {
	return &Monitor{
		keys:          keys,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a new observation and returns any events that should be emitted.
// The first observation only establishes the baseline.
func (m *Monitor) Process(in Input) []Event {
	if !m.baselined {
		m.gear = in.Gear
		m.connected = in.Connected
		m.baselined = true
		return nil
	}

	var events []Event

	// Connectivity first: a reconnect may carry a gear change in the same sample.
	if in.Connected != m.connected {
		t := EventDisconnected
		if in.Connected {
			t = EventConnected
			m.eventCounts.Reconnects++
		} else {
			m.eventCounts.Disconnects++
		}
		m.connected = in.Connected
		events = append(events, Event{
			Timestamp: in.Time,
			Type:      t,
			Gear:      m.gear,
			Previous:  m.gear,
			Connected: in.Connected,
		})
	}

	if in.Gear != m.gear {
		key, _ := m.keys.Lookup(in.Gear)
		events = append(events, Event{
			Timestamp: in.Time,
			Type:      EventGearChange,
			Gear:      in.Gear,
			Previous:  m.gear,
			Key:       key,
			Connected: in.Connected,
		})
		m.gear = in.Gear
		m.eventCounts.GearChanges++
	}

	return events
}

// IsBaselined returns whether the monitor has seen its first observation.
func (m *Monitor) IsBaselined() bool {
	return m.baselined
}

// CurrentState returns the last observed gear and connectivity.
func (m *Monitor) CurrentState() (Gear, bool) {
	return m.gear, m.connected
}

// EventCountsSnapshot returns a copy of the monitor's own counters.
func (m *Monitor) EventCountsSnapshot() EventCounts {
	return m.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
// counts is the full set of counters to report.
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration, counts EventCounts) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !m.baselined {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    counts,
	}
}

// Totals merges the monitor, scheduler and decoder counters.
func Totals(c EventCounts, s SchedulerStats, d DecoderStats) EventCounts {
	c.KeysPressed = s.Pressed
	c.KeysDropped = s.Dropped
	c.OutputErrors = s.PressErrors + s.ReleaseErrors
	c.SamplerErrors = d.AnalogErrors + d.DigitalErrors
	return c
}
