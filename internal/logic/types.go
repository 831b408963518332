// Package logic contains the pure gearshift decoding and key scheduling state machines.
// This package has NO external dependencies (no GPIO, uinput, MQTT, OS, or time.Sleep).
// Hardware is reached only through the Sampler and Keyboard interfaces, and time
// is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

// Gear is a decoded shifter position.
type Gear uint8

const (
	Neutral Gear = iota
	Gear1
	Gear2
	Gear3
	Gear4
	Gear5
	Gear6
	Reverse
)

// String returns "N", "1".."6" or "R".
func (g Gear) String() string {
	switch {
	case g == Neutral:
		return "N"
	case g == Reverse:
		return "R"
	case g >= Gear1 && g <= Gear6:
		return string(rune('0' + g))
	}
	return fmt.Sprintf("Gear(%d)", uint8(g))
}

// ParseGear is the inverse of Gear.String.
func ParseGear(s string) (Gear, error) {
	switch s {
	case "N", "n":
		return Neutral, nil
	case "R", "r":
		return Reverse, nil
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '6' {
		return Gear(s[0] - '0'), nil
	}
	return Neutral, fmt.Errorf("invalid gear %q (must be N, 1-6 or R)", s)
}

// ChannelKind distinguishes analog from digital inputs.
type ChannelKind uint8

const (
	Analog ChannelKind = iota
	Digital
)

// Channel identifies one physical input.
type Channel struct {
	Kind ChannelKind
	Line int
}

// AnalogChannel returns an analog channel on the given line.
func AnalogChannel(line int) Channel { return Channel{Kind: Analog, Line: line} }

// DigitalChannel returns a digital channel on the given line.
func DigitalChannel(line int) Channel { return Channel{Kind: Digital, Line: line} }

func (c Channel) String() string {
	if c.Kind == Digital {
		return fmt.Sprintf("D%d", c.Line)
	}
	return fmt.Sprintf("A%d", c.Line)
}

// InputMode is the electrical configuration requested for a channel.
type InputMode uint8

const (
	InputFloating InputMode = iota
	InputPullUp
)

// Sampler reads raw levels from the shifter hardware.
type Sampler interface {
	// ConfigureInput sets the input mode of a channel. Called once from Decoder.Begin.
	ConfigureInput(ch Channel, mode InputMode) error

	// ReadAnalog returns the level of an analog channel scaled to 0..1023.
	ReadAnalog(ch Channel) (uint16, error)

	// ReadDigital returns true when the digital channel reads high.
	ReadDigital(ch Channel) (bool, error)
}

// KeySymbol is one printable key to emit.
type KeySymbol rune

func (k KeySymbol) String() string {
	return string(rune(k))
}

// Keyboard emits key presses to the host.
type Keyboard interface {
	Begin() error
	Press(sym KeySymbol) error
	ReleaseAll() error
}

// AxisSample is a single reading of both shifter axes.
type AxisSample struct {
	X uint16
	Y uint16
}

// EventType represents something the daemon reports.
type EventType string

const (
	EventGearChange   EventType = "GEAR_CHANGE"
	EventDisconnected EventType = "SHIFTER_DISCONNECTED"
	EventConnected    EventType = "SHIFTER_CONNECTED"
)

// Event represents a shifter state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Gear      Gear
	Previous  Gear
	Key       KeySymbol // zero when the gear has no mapped key
	Connected bool
}

// KeyAction is the physical action a scheduler tick performed.
type KeyAction string

const (
	KeyDown KeyAction = "KEY_DOWN"
	KeyUp   KeyAction = "KEY_UP"
)

// KeyEvent describes one press or release issued by the Scheduler.
type KeyEvent struct {
	Timestamp time.Time
	Action    KeyAction
	Key       KeySymbol
	Err       error // output failure; the scheduler has already moved on
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	GearChanges   int
	Disconnects   int
	Reconnects    int
	KeysPressed   int
	KeysDropped   int
	OutputErrors  int
	SamplerErrors int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
