//go:build linux

package keyboard

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sweeney/gearshift-keyboard/internal/logic"
)

// uinput ioctls (linux/uinput.h).
const (
	uiDevCreate  = 0x5501     // _IO('U', 1)
	uiDevDestroy = 0x5502     // _IO('U', 2)
	uiSetEvBit   = 0x40045564 // _IOW('U', 100, int)
	uiSetKeyBit  = 0x40045565 // _IOW('U', 101, int)
)

const (
	evSyn     = 0x00
	evKey     = 0x01
	synReport = 0
	busUSB    = 0x03
	absCnt    = 64
)

// uinputUserDev mirrors struct uinput_user_dev.
type uinputUserDev struct {
	Name         [80]byte
	BusType      uint16
	Vendor       uint16
	Product      uint16
	Version      uint16
	FFEffectsMax uint32
	AbsMax       [absCnt]int32
	AbsMin       [absCnt]int32
	AbsFuzz      [absCnt]int32
	AbsFlat      [absCnt]int32
}

// inputEvent mirrors struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Uinput is a virtual USB keyboard backed by /dev/uinput.
type Uinput struct {
	path string
	fd   int
	down []uint16 // codes pressed, in press order
}

// NewUinput returns a keyboard that will be created at path on Begin.
func NewUinput(path string) *Uinput {
	return &Uinput{path: path, fd: -1}
}

// Begin opens the uinput node and registers the virtual keyboard.
// Calling it on an open keyboard is a no-op.
func (u *Uinput) Begin() error {
	if u.fd >= 0 {
		return nil
	}

	fd, err := unix.Open(u.path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", u.path, err)
	}

	if err := u.setup(fd); err != nil {
		unix.Close(fd)
		return err
	}
	u.fd = fd
	return nil
}

func (u *Uinput) setup(fd int) error {
	if err := unix.IoctlSetInt(fd, uiSetEvBit, evKey); err != nil {
		return fmt.Errorf("uinput set EV_KEY: %w", err)
	}
	if err := unix.IoctlSetInt(fd, uiSetEvBit, evSyn); err != nil {
		return fmt.Errorf("uinput set EV_SYN: %w", err)
	}
	for _, code := range allCodes() {
		if err := unix.IoctlSetInt(fd, uiSetKeyBit, int(code)); err != nil {
			return fmt.Errorf("uinput set key %d: %w", code, err)
		}
	}

	dev := uinputUserDev{
		BusType: busUSB,
		Vendor:  0x1209, // pid.codes open-source vendor
		Product: 0x0001,
		Version: 1,
	}
	copy(dev.Name[:], DeviceName)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.NativeEndian, &dev); err != nil {
		return fmt.Errorf("encode uinput device: %w", err)
	}
	if _, err := unix.Write(fd, buf.Bytes()); err != nil {
		return fmt.Errorf("write uinput device: %w", err)
	}

	if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
		return fmt.Errorf("uinput create: %w", err)
	}
	return nil
}

// Press holds the key for sym, with shift for shifted symbols.
func (u *Uinput) Press(sym logic.KeySymbol) error {
	if u.fd < 0 {
		return fmt.Errorf("uinput: keyboard not started")
	}
	ks, err := Lookup(sym)
	if err != nil {
		return err
	}

	var events []inputEvent
	if ks.Shift {
		events = append(events, keyEvent(keyLeftShift, 1))
		u.down = append(u.down, keyLeftShift)
	}
	events = append(events, keyEvent(ks.Code, 1), synEvent())
	u.down = append(u.down, ks.Code)
	return u.write(events)
}

// ReleaseAll releases every key pressed since the last release, in reverse order.
func (u *Uinput) ReleaseAll() error {
	if u.fd < 0 {
		return fmt.Errorf("uinput: keyboard not started")
	}
	if len(u.down) == 0 {
		return nil
	}

	events := make([]inputEvent, 0, len(u.down)+1)
	for i := len(u.down) - 1; i >= 0; i-- {
		events = append(events, keyEvent(u.down[i], 0))
	}
	events = append(events, synEvent())
	u.down = u.down[:0]
	return u.write(events)
}

func (u *Uinput) write(events []inputEvent) error {
	now := unix.NsecToTimeval(time.Now().UnixNano())
	var buf bytes.Buffer
	for i := range events {
		events[i].Time = now
		if err := binary.Write(&buf, binary.NativeEndian, &events[i]); err != nil {
			return fmt.Errorf("encode input event: %w", err)
		}
	}
	if _, err := unix.Write(u.fd, buf.Bytes()); err != nil {
		return fmt.Errorf("write input events: %w", err)
	}
	return nil
}

// Close releases held keys and destroys the virtual keyboard.
func (u *Uinput) Close() error {
	if u.fd < 0 {
		return nil
	}

	var errs []error
	if err := u.ReleaseAll(); err != nil {
		errs = append(errs, err)
	}
	if err := unix.IoctlSetInt(u.fd, uiDevDestroy, 0); err != nil {
		errs = append(errs, fmt.Errorf("uinput destroy: %w", err))
	}
	if err := unix.Close(u.fd); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", u.path, err))
	}
	u.fd = -1

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func keyEvent(code uint16, value int32) inputEvent {
	return inputEvent{Type: evKey, Code: code, Value: value}
}

func synEvent() inputEvent {
	return inputEvent{Type: evSyn, Code: synReport}
}
