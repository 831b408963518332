// Package status provides a thread-safe status tracker for the gearshift-keyboard daemon.
// It is read by the HTTP and websocket handlers while the polling loop writes it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HoldMs      int64
	QueueSize   int
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Gear          logic.Gear
	Connected     bool
	Baselined     bool
	Held          logic.KeySymbol // zero when no key is held
	Pending       []logic.KeySymbol
	Counts        logic.EventCounts
	LastChange    time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Update is the state the polling loop reports each tick.
type Update struct {
	Gear       logic.Gear
	Connected  bool
	Baselined  bool
	Held       logic.KeySymbol
	Pending    []logic.KeySymbol
	Counts     logic.EventCounts
	LastChange time.Time
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update replaces the shifter and scheduler state.
func (t *Tracker) Update(u Update) {
	pending := append([]logic.KeySymbol(nil), u.Pending...)

	t.mu.Lock()
	t.snap.Gear = u.Gear
	t.snap.Connected = u.Connected
	t.snap.Baselined = u.Baselined
	t.snap.Held = u.Held
	t.snap.Pending = pending
	t.snap.Counts = u.Counts
	t.snap.LastChange = u.LastChange
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
	s.Now = t.now()
	return s
}
