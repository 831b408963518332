package gpio

import (
	"errors"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

// Sample represents one scripted shifter reading (already scaled to 0..1023).
type Sample struct {
	X      uint16
	Y      uint16
	Button bool
}

// FakeSampler is a test double that returns scripted shifter readings.
type FakeSampler struct {
	// Samples contains scripted readings. Each read of the X channel
	// starts a new sampling pass and consumes the next sample; the Y and
	// button reads of that pass return the same sample.
	Samples []Sample

	// index tracks the next sample to consume
	index   int
	current Sample

	x, y, button logic.Channel

	// Modes records ConfigureInput calls.
	Modes map[logic.Channel]logic.InputMode

	// Closed tracks if Close was called
	Closed bool

	// ConfigureError, ReadError, if set, will be returned by the matching calls.
	ConfigureError error
	ReadError      error
}

// NewFakeSampler creates a FakeSampler for the given channel assignment.
func NewFakeSampler(x, y, button logic.Channel, samples []Sample) *FakeSampler {
	return &FakeSampler{
		Samples: samples,
		x:       x,
		y:       y,
		button:  button,
		Modes:   make(map[logic.Channel]logic.InputMode),
	}
}

// ConfigureInput records the requested mode.
func (f *FakeSampler) ConfigureInput(ch logic.Channel, mode logic.InputMode) error {
	if f.ConfigureError != nil {
		return f.ConfigureError
	}
	f.Modes[ch] = mode
	return nil
}

// ReadAnalog returns the X or Y level of the current sample.
// If samples are exhausted, the last sample repeats.
func (f *FakeSampler) ReadAnalog(ch logic.Channel) (uint16, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	switch ch {
	case f.x:
		if len(f.Samples) == 0 {
			return 0, errors.New("no samples configured")
		}
		f.current = f.Samples[f.index]
		if f.index < len(f.Samples)-1 {
			f.index++
		}
		return f.current.X, nil
	case f.y:
		return f.current.Y, nil
	}
	return 0, errors.New("unknown analog channel " + ch.String())
}

// ReadDigital returns the button level of the current sample.
func (f *FakeSampler) ReadDigital(ch logic.Channel) (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if ch != f.button {
		return false, errors.New("unknown digital channel " + ch.String())
	}
	return f.current.Button, nil
}

// Close marks the sampler as closed.
func (f *FakeSampler) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the beginning of samples.
func (f *FakeSampler) Reset() {
	f.index = 0
	f.current = Sample{}
	f.Closed = false
}
