// Package gpio provides shifter input sampling with hardware abstraction.
// The real implementation reads the axes from a Linux IIO ADC and the
// reverse button from the GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/gearshift-keyboard/internal/logic"

// Default wiring: ADC channels 0/1 for the axes, BCM 17 for the button.
const (
	DefaultAxisX  = 0
	DefaultAxisY  = 1
	DefaultButton = 17
)

// DefaultChip is the GPIO character device holding the button line.
const DefaultChip = "gpiochip0"

// DefaultIIODevice is the sysfs directory of the ADC.
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// Sampler is a logic.Sampler that owns hardware resources.
type Sampler interface {
	logic.Sampler

	// Close releases GPIO and ADC resources.
	Close() error
}

// scaleTo10Bit converts a reading from an ADC of the given resolution to 0..1023.
func scaleTo10Bit(raw uint32, bits int) uint16 {
	switch {
	case bits > 10:
		raw >>= uint(bits - 10)
	case bits < 10:
		raw <<= uint(10 - bits)
	}
	if raw > 1023 {
		raw = 1023
	}
	return uint16(raw)
}
