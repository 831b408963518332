// Package keyboard emits key presses to the host.
// The real implementation creates a virtual keyboard through Linux uinput.
// The fake implementation records presses for tests.
package keyboard

import (
	"fmt"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

// DefaultDevice is the uinput control node.
const DefaultDevice = "/dev/uinput"

// DeviceName is the name the virtual keyboard registers with.
const DeviceName = "gearshift-keyboard"

// Output is a logic.Keyboard that owns a device.
type Output interface {
	logic.Keyboard

	// Close releases every key and destroys the device.
	Close() error
}

// Linux input event codes (linux/input-event-codes.h).
const (
	keyEsc        = 1
	keyMinus      = 12
	keyEqual      = 13
	keyBackspace  = 14
	keyTab        = 15
	keyLeftBrace  = 26
	keyRightBrace = 27
	keyEnter      = 28
	keySemicolon  = 39
	keyApostrophe = 40
	keyGrave      = 41
	keyLeftShift  = 42
	keyBackslash  = 43
	keyComma      = 51
	keyDot        = 52
	keySlash      = 53
	keySpace      = 57
)

// Keystroke is the key code for a symbol and whether shift must be held.
type Keystroke struct {
	Code  uint16
	Shift bool
}

var letterCodes = [26]uint16{
	30, 48, 46, 32, 18, 33, 34, 35, 23, 36, 37, 38, 50, // a..m
	49, 24, 25, 16, 19, 31, 20, 22, 47, 17, 45, 21, 44, // n..z
}

var digitCodes = [10]uint16{11, 2, 3, 4, 5, 6, 7, 8, 9, 10} // 0..9

var punctCodes = map[rune]Keystroke{
	' ':  {Code: keySpace},
	'\n': {Code: keyEnter},
	'\t': {Code: keyTab},
	'\b': {Code: keyBackspace},
	0x1b: {Code: keyEsc},
	'-':  {Code: keyMinus},
	'_':  {Code: keyMinus, Shift: true},
	'=':  {Code: keyEqual},
	'+':  {Code: keyEqual, Shift: true},
	'[':  {Code: keyLeftBrace},
	'{':  {Code: keyLeftBrace, Shift: true},
	']':  {Code: keyRightBrace},
	'}':  {Code: keyRightBrace, Shift: true},
	';':  {Code: keySemicolon},
	':':  {Code: keySemicolon, Shift: true},
	'\'': {Code: keyApostrophe},
	'"':  {Code: keyApostrophe, Shift: true},
	'`':  {Code: keyGrave},
	'~':  {Code: keyGrave, Shift: true},
	'\\': {Code: keyBackslash},
	'|':  {Code: keyBackslash, Shift: true},
	',':  {Code: keyComma},
	'<':  {Code: keyComma, Shift: true},
	'.':  {Code: keyDot},
	'>':  {Code: keyDot, Shift: true},
	'/':  {Code: keySlash},
	'?':  {Code: keySlash, Shift: true},
}

// shiftedDigits are the US layout symbols above 0..9.
const shiftedDigits = ")!@#$%^&*("

// Lookup returns the US-layout keystroke for sym.
func Lookup(sym logic.KeySymbol) (Keystroke, error) {
	r := rune(sym)
	switch {
	case r >= 'a' && r <= 'z':
		return Keystroke{Code: letterCodes[r-'a']}, nil
	case r >= 'A' && r <= 'Z':
		return Keystroke{Code: letterCodes[r-'A'], Shift: true}, nil
	case r >= '0' && r <= '9':
		return Keystroke{Code: digitCodes[r-'0']}, nil
	}
	for i, s := range shiftedDigits {
		if s == r {
			return Keystroke{Code: digitCodes[i], Shift: true}, nil
		}
	}
	if ks, ok := punctCodes[r]; ok {
		return ks, nil
	}
	return Keystroke{}, fmt.Errorf("no key for symbol %q", r)
}

// allCodes lists every key code the virtual keyboard may emit.
func allCodes() []uint16 {
	codes := []uint16{keyLeftShift}
	codes = append(codes, letterCodes[:]...)
	codes = append(codes, digitCodes[:]...)
	seen := make(map[uint16]bool, len(codes))
	for _, c := range codes {
		seen[c] = true
	}
	for _, ks := range punctCodes {
		if !seen[ks.Code] {
			seen[ks.Code] = true
			codes = append(codes, ks.Code)
		}
	}
	return codes
}
