package logic

import "errors"

var (
	testX      = AnalogChannel(0)
	testY      = AnalogChannel(1)
	testButton = DigitalChannel(17)
)

// stubSampler returns whatever levels the test last set.
type stubSampler struct {
	x, y         uint16
	button       bool
	buttons      []bool // if set, consumed one per ReadDigital, last value repeats
	modes        map[Channel]InputMode
	configErr    error
	analogErr    error
	digitalErr   error
	digitalReads int
}

func newStubSampler() *stubSampler {
	return &stubSampler{modes: make(map[Channel]InputMode)}
}

func (s *stubSampler) ConfigureInput(ch Channel, mode InputMode) error {
	if s.configErr != nil {
		return s.configErr
	}
	s.modes[ch] = mode
	return nil
}

func (s *stubSampler) ReadAnalog(ch Channel) (uint16, error) {
	if s.analogErr != nil {
		return 0, s.analogErr
	}
	if ch == testX {
		return s.x, nil
	}
	return s.y, nil
}

func (s *stubSampler) ReadDigital(ch Channel) (bool, error) {
	s.digitalReads++
	if s.digitalErr != nil {
		return false, s.digitalErr
	}
	if len(s.buttons) > 0 {
		v := s.buttons[0]
		if len(s.buttons) > 1 {
			s.buttons = s.buttons[1:]
		}
		return v, nil
	}
	return s.button, nil
}

func (s *stubSampler) set(x, y uint16, button bool) {
	s.x, s.y, s.button = x, y, button
}

// keyRecord is one call made on recordingKeyboard.
type keyRecord struct {
	op  string // "begin", "press", "release"
	key KeySymbol
}

type recordingKeyboard struct {
	calls      []keyRecord
	beginErr   error
	pressErr   error
	releaseErr error
}

func (k *recordingKeyboard) Begin() error {
	k.calls = append(k.calls, keyRecord{op: "begin"})
	return k.beginErr
}

func (k *recordingKeyboard) Press(sym KeySymbol) error {
	if k.pressErr != nil {
		return k.pressErr
	}
	k.calls = append(k.calls, keyRecord{op: "press", key: sym})
	return nil
}

func (k *recordingKeyboard) ReleaseAll() error {
	if k.releaseErr != nil {
		return k.releaseErr
	}
	k.calls = append(k.calls, keyRecord{op: "release"})
	return nil
}

var errStub = errors.New("stub failure")
