package keyboard

import (
	"fmt"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

// Action is one recorded keyboard call.
type Action struct {
	Op  string // "press" or "release"
	Key logic.KeySymbol
}

func (a Action) String() string {
	if a.Op == "press" {
		return fmt.Sprintf("press(%s)", a.Key)
	}
	return a.Op
}

// FakeKeyboard records presses and releases for test assertions.
type FakeKeyboard struct {
	// Actions contains all successful press and release calls in order.
	Actions []Action

	// Begun counts Begin calls.
	Begun int

	// Down is the set of symbols currently pressed.
	Down map[logic.KeySymbol]bool

	// BeginError, PressError, ReleaseError, if set, are returned by the matching calls.
	BeginError   error
	PressError   error
	ReleaseError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeKeyboard creates a FakeKeyboard for testing.
func NewFakeKeyboard() *FakeKeyboard {
	return &FakeKeyboard{Down: make(map[logic.KeySymbol]bool)}
}

// Begin records the call.
func (f *FakeKeyboard) Begin() error {
	f.Begun++
	return f.BeginError
}

// Press records the key as held.
func (f *FakeKeyboard) Press(sym logic.KeySymbol) error {
	if f.PressError != nil {
		return f.PressError
	}
	f.Down[sym] = true
	f.Actions = append(f.Actions, Action{Op: "press", Key: sym})
	return nil
}

// ReleaseAll clears every held key.
func (f *FakeKeyboard) ReleaseAll() error {
	if f.ReleaseError != nil {
		return f.ReleaseError
	}
	f.Down = make(map[logic.KeySymbol]bool)
	f.Actions = append(f.Actions, Action{Op: "release"})
	return nil
}

// Close marks the keyboard as closed.
func (f *FakeKeyboard) Close() error {
	f.Closed = true
	return nil
}

// Pressed returns the pressed symbols in order.
func (f *FakeKeyboard) Pressed() string {
	var out []rune
	for _, a := range f.Actions {
		if a.Op == "press" {
			out = append(out, rune(a.Key))
		}
	}
	return string(out)
}

// Reset clears recorded actions.
func (f *FakeKeyboard) Reset() {
	f.Actions = nil
	f.Begun = 0
	f.Down = make(map[logic.KeySymbol]bool)
	f.BeginError = nil
	f.PressError = nil
	f.ReleaseError = nil
	f.Closed = false
}
