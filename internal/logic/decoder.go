package logic

// Thresholds holds the H-pattern geometry and disconnect level, in 0..1023 units.
type Thresholds struct {
	LeftX      uint16 // X below this is the left column (gears 1, 2)
	RightX     uint16 // X below this (and not left) is the middle column (3, 4)
	TopY       uint16 // Y above this is the top row (1, 3, 5)
	BottomY    uint16 // Y below this is the bottom row (2, 4, 6)
	Disconnect uint16 // both axes above this means the shifter is unplugged

	// ReverseDebounce selects a debounced button read when refining gear 6.
	ReverseDebounce bool
}

// DefaultThresholds returns the geometry of a Logitech G29 shifter on a 10-bit ADC.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LeftX:           365,
		RightX:          580,
		TopY:            700,
		BottomY:         300,
		Disconnect:      920,
		ReverseDebounce: true,
	}
}

// DecoderStats counts sampler failures seen by a Decoder.
type DecoderStats struct {
	AnalogErrors  int
	DigitalErrors int
}

// Decoder turns raw shifter levels into a Gear.
// Not safe for concurrent use.
type Decoder struct {
	x, y, button Channel
	th           Thresholds

	sampler     Sampler
	initialized bool
	connected   bool
	buttonHeld  bool
	last        Gear
	stats       DecoderStats
}

// NewDecoder stores the channel assignment. It performs no I/O.
func NewDecoder(x, y, button Channel, th Thresholds) *Decoder {
	return &Decoder{
		x:      x,
		y:      y,
		button: button,
		th:     th,
	}
}

// Begin configures the input modes through s: pull-up on both axes, floating
// input on the button. The decoder reports Neutral until Begin succeeds.
func (d *Decoder) Begin(s Sampler) error {
	if err := s.ConfigureInput(d.x, InputPullUp); err != nil {
		return err
	}
	if err := s.ConfigureInput(d.y, InputPullUp); err != nil {
		return err
	}
	if err := s.ConfigureInput(d.button, InputFloating); err != nil {
		return err
	}
	d.sampler = s
	d.initialized = true
	return nil
}

// SampleInputs reads both axes and updates the connectivity flag.
// A failed read is treated as a disconnected shifter.
func (d *Decoder) SampleInputs() AxisSample {
	if !d.initialized {
		return AxisSample{}
	}

	x, errX := d.sampler.ReadAnalog(d.x)
	y, errY := d.sampler.ReadAnalog(d.y)
	if errX != nil || errY != nil {
		d.stats.AnalogErrors++
		d.connected = false
		return AxisSample{X: x, Y: y}
	}

	d.connected = !(x > d.th.Disconnect && y > d.th.Disconnect)
	return AxisSample{X: x, Y: y}
}

// RawPosition classifies s into Neutral or Gear1..Gear6.
// While disconnected it returns the last returned gear unchanged.
func (d *Decoder) RawPosition(s AxisSample) Gear {
	if !d.connected {
		return d.last
	}

	switch {
	case s.Y > d.th.TopY:
		switch {
		case s.X < d.th.LeftX:
			return Gear1
		case s.X < d.th.RightX:
			return Gear3
		default:
			return Gear5
		}
	case s.Y < d.th.BottomY:
		switch {
		case s.X < d.th.LeftX:
			return Gear2
		case s.X < d.th.RightX:
			return Gear4
		default:
			return Gear6
		}
	}
	return Neutral
}

// ReadButton reads the reverse button. With debounce set, a press is reported
// only on the first read after the button goes down; the button must read
// released before another press is reported. A disconnected shifter is never pressed.
func (d *Decoder) ReadButton(debounce bool) bool {
	if !d.initialized || !d.connected {
		return false
	}

	pressed, err := d.sampler.ReadDigital(d.button)
	if err != nil {
		d.stats.DigitalErrors++
		return false
	}

	if debounce && d.buttonHeld && pressed {
		return false
	}
	d.buttonHeld = pressed
	return pressed
}

// CurrentPosition samples the shifter once and returns the refined gear.
func (d *Decoder) CurrentPosition() Gear {
	if !d.initialized {
		return Neutral
	}

	raw := d.RawPosition(d.SampleInputs())
	if raw == Gear6 {
		raw = refineReverse(d.ReadButton(d.th.ReverseDebounce), d.last)
	} else {
		// The button is only read in the gear 6 gate; a release elsewhere
		// goes unseen, so the next engagement starts from released.
		d.buttonHeld = false
	}

	d.last = raw
	return raw
}

// refineReverse resolves a raw gear 6 reading. The reverse gate shares the
// gear 6 detent and the knob cannot move from reverse to 6 without passing
// through neutral:
//
//	pressed  previous  result
//	yes      any       Reverse
//	no       Reverse   Reverse
//	no       other     Gear6
func refineReverse(pressed bool, previous Gear) Gear {
	if pressed || previous == Reverse {
		return Reverse
	}
	return Gear6
}

// Connected reports whether the last sample looked like a plugged-in shifter.
func (d *Decoder) Connected() bool {
	return d.connected
}

// Last returns the most recently returned gear.
func (d *Decoder) Last() Gear {
	return d.last
}

// Stats returns a copy of the sampler failure counters.
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}
