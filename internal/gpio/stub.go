//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealSampler is not available on non-Linux platforms.
type RealSampler struct{}

// NewRealSampler returns a sampler whose every call fails on non-Linux platforms.
func NewRealSampler(chipName, iioDir string, adcBits int) *RealSampler {
	return &RealSampler{}
}

// ConfigureInput is not implemented on non-Linux platforms.
func (r *RealSampler) ConfigureInput(ch logic.Channel, mode logic.InputMode) error {
	return errUnsupported
}

// ReadAnalog is not implemented on non-Linux platforms.
func (r *RealSampler) ReadAnalog(ch logic.Channel) (uint16, error) {
	return 0, errUnsupported
}

// ReadDigital is not implemented on non-Linux platforms.
func (r *RealSampler) ReadDigital(ch logic.Channel) (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealSampler) Close() error {
	return nil
}
