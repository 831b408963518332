//go:build !linux

package keyboard

import (
	"errors"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

var errUnsupported = errors.New("keyboard: uinput not supported on this platform (requires Linux)")

// Uinput is not available on non-Linux platforms.
type Uinput struct{}

// NewUinput returns a keyboard whose every call fails on non-Linux platforms.
func NewUinput(path string) *Uinput {
	return &Uinput{}
}

// Begin is not implemented on non-Linux platforms.
func (u *Uinput) Begin() error { return errUnsupported }

// Press is not implemented on non-Linux platforms.
func (u *Uinput) Press(sym logic.KeySymbol) error { return errUnsupported }

// ReleaseAll is not implemented on non-Linux platforms.
func (u *Uinput) ReleaseAll() error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (u *Uinput) Close() error { return nil }
