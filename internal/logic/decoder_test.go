package logic

import "testing"

func newTestDecoder(t *testing.T) (*Decoder, *stubSampler) {
	t.Helper()
	s := newStubSampler()
	s.set(470, 500, false) // neutral
	d := NewDecoder(testX, testY, testButton, DefaultThresholds())
	if err := d.Begin(s); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	d.SampleInputs()
	return d, s
}

func TestDecoderBeforeBegin(t *testing.T) {
	d := NewDecoder(testX, testY, testButton, DefaultThresholds())

	if g := d.CurrentPosition(); g != Neutral {
		t.Errorf("CurrentPosition before Begin: got %s, want N", g)
	}
	if d.Connected() {
		t.Error("expected Connected=false before Begin")
	}
	if d.ReadButton(false) {
		t.Error("expected ReadButton=false before Begin")
	}
	if s := d.SampleInputs(); s != (AxisSample{}) {
		t.Errorf("SampleInputs before Begin: got %+v, want zero", s)
	}
}

func TestDecoderBeginConfiguresInputs(t *testing.T) {
	s := newStubSampler()
	d := NewDecoder(testX, testY, testButton, DefaultThresholds())
	if err := d.Begin(s); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if s.modes[testX] != InputPullUp {
		t.Errorf("X mode: got %v, want pull-up", s.modes[testX])
	}
	if s.modes[testY] != InputPullUp {
		t.Errorf("Y mode: got %v, want pull-up", s.modes[testY])
	}
	mode, ok := s.modes[testButton]
	if !ok || mode != InputFloating {
		t.Errorf("button mode: got %v (set=%v), want floating", mode, ok)
	}
}

func TestDecoderBeginError(t *testing.T) {
	s := newStubSampler()
	s.configErr = errStub
	s.set(100, 800, false)
	d := NewDecoder(testX, testY, testButton, DefaultThresholds())

	if err := d.Begin(s); err == nil {
		t.Fatal("expected Begin error")
	}
	if g := d.CurrentPosition(); g != Neutral {
		t.Errorf("CurrentPosition after failed Begin: got %s, want N", g)
	}
}

func TestDecoderGearTable(t *testing.T) {
	tests := []struct {
		x, y uint16
		want Gear
	}{
		// top row
		{0, 701, Gear1},
		{364, 1000, Gear1},
		{365, 701, Gear3},
		{579, 800, Gear3},
		{580, 800, Gear5},
		{910, 910, Gear5},
		// bottom row
		{0, 299, Gear2},
		{364, 0, Gear2},
		{365, 0, Gear4},
		{579, 299, Gear4},
		{580, 0, Gear6},
		{1023, 100, Gear6},
		// between the rows, regardless of X
		{0, 300, Neutral},
		{470, 500, Neutral},
		{1023, 700, Neutral},
		{364, 700, Neutral},
	}

	for _, tt := range tests {
		d, s := newTestDecoder(t)
		s.set(tt.x, tt.y, false)
		if got := d.CurrentPosition(); got != tt.want {
			t.Errorf("x=%d y=%d: got %s, want %s", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDecoderRawPositionIgnoresButton(t *testing.T) {
	d, s := newTestDecoder(t)
	s.set(700, 100, true)

	sample := d.SampleInputs()
	if got := d.RawPosition(sample); got != Gear6 {
		t.Errorf("RawPosition: got %s, want 6", got)
	}
	if s.digitalReads != 0 {
		t.Errorf("RawPosition read the button %d times", s.digitalReads)
	}
}

func TestDecoderDisconnectFreezesGear(t *testing.T) {
	d, s := newTestDecoder(t)

	s.set(100, 800, false)
	if g := d.CurrentPosition(); g != Gear1 {
		t.Fatalf("setup: got %s, want 1", g)
	}
	if !d.Connected() {
		t.Fatal("expected connected")
	}

	for _, lv := range [][2]uint16{{921, 921}, {1023, 921}, {1000, 1000}, {921, 1023}} {
		s.set(lv[0], lv[1], true)
		if g := d.CurrentPosition(); g != Gear1 {
			t.Errorf("x=%d y=%d disconnected: got %s, want frozen 1", lv[0], lv[1], g)
		}
		if d.Connected() {
			t.Errorf("x=%d y=%d: expected Connected=false", lv[0], lv[1])
		}
	}

	// Back in range: decoding resumes.
	s.set(100, 100, false)
	if g := d.CurrentPosition(); g != Gear2 {
		t.Errorf("after reconnect: got %s, want 2", g)
	}
	if !d.Connected() {
		t.Error("expected Connected=true after reconnect")
	}
}

func TestDecoderDisconnectNeedsBothAxes(t *testing.T) {
	d, s := newTestDecoder(t)

	// Only one axis high, or exactly at the threshold, is still connected.
	for _, lv := range [][2]uint16{{1023, 500}, {500, 1023}, {920, 1023}, {1023, 920}} {
		s.set(lv[0], lv[1], false)
		d.SampleInputs()
		if !d.Connected() {
			t.Errorf("x=%d y=%d: expected connected", lv[0], lv[1])
		}
	}
}

func TestDecoderDisconnectedKeepsReverse(t *testing.T) {
	d, s := newTestDecoder(t)

	s.set(700, 100, true)
	if g := d.CurrentPosition(); g != Reverse {
		t.Fatalf("setup: got %s, want R", g)
	}

	s.set(1000, 1000, false)
	for i := 0; i < 3; i++ {
		if g := d.CurrentPosition(); g != Reverse {
			t.Errorf("call %d: got %s, want R", i, g)
		}
	}
}

func TestDecoderDisconnectedKeepsGear6(t *testing.T) {
	d, s := newTestDecoder(t)

	s.set(700, 100, false)
	if g := d.CurrentPosition(); g != Gear6 {
		t.Fatalf("setup: got %s, want 6", g)
	}

	s.set(1000, 1000, true)
	if g := d.CurrentPosition(); g != Gear6 {
		t.Errorf("disconnected: got %s, want 6", g)
	}
}

func TestDecoderReverseLatch(t *testing.T) {
	d, s := newTestDecoder(t)

	steps := []struct {
		x, y   uint16
		button bool
		want   Gear
	}{
		{700, 100, true, Reverse},  // raw 6 + button
		{700, 100, false, Reverse}, // latch holds
		{470, 500, false, Neutral}, // latch cleared
		{700, 100, false, Gear6},   // no stale latch
	}

	for i, st := range steps {
		s.set(st.x, st.y, st.button)
		if got := d.CurrentPosition(); got != st.want {
			t.Errorf("step %d: got %s, want %s", i, got, st.want)
		}
		if d.Last() != st.want {
			t.Errorf("step %d: Last() = %s, want %s", i, d.Last(), st.want)
		}
	}
}

func TestDecoderReverseAgainAfterNeutral(t *testing.T) {
	d, s := newTestDecoder(t)

	steps := []struct {
		x, y   uint16
		button bool
		want   Gear
	}{
		{700, 100, true, Reverse},
		{470, 500, false, Neutral}, // released outside the gate, never read
		{700, 100, true, Reverse},
		{470, 500, true, Neutral}, // held through neutral
		{700, 100, true, Reverse},
	}

	var got []Gear
	for i, st := range steps {
		s.set(st.x, st.y, st.button)
		g := d.CurrentPosition()
		got = append(got, g)
		if g != st.want {
			t.Errorf("step %d: got %s, want %s (sequence %v)", i, g, st.want, got)
		}
	}
}

func TestDecoderReverseHeldButtonStaysReverse(t *testing.T) {
	d, s := newTestDecoder(t)
	s.set(700, 100, true)

	for i := 0; i < 5; i++ {
		if got := d.CurrentPosition(); got != Reverse {
			t.Errorf("call %d: got %s, want R", i, got)
		}
	}
}

func TestDecoderNoDoubleAdvance(t *testing.T) {
	d, s := newTestDecoder(t)

	s.set(700, 100, false)
	first := d.CurrentPosition()
	second := d.CurrentPosition()
	if first != Gear6 || second != Gear6 {
		t.Errorf("repeated gear 6: got %s then %s, want 6 then 6", first, second)
	}

	s.set(700, 100, true)
	first = d.CurrentPosition()
	second = d.CurrentPosition()
	if first != Reverse || second != Reverse {
		t.Errorf("repeated reverse: got %s then %s, want R then R", first, second)
	}
}

func TestDecoderButtonOnlyReadInGear6(t *testing.T) {
	d, s := newTestDecoder(t)

	s.set(100, 800, true)
	if g := d.CurrentPosition(); g != Gear1 {
		t.Errorf("gear 1 with button: got %s, want 1", g)
	}
	if s.digitalReads != 0 {
		t.Errorf("button read %d times outside gear 6", s.digitalReads)
	}
}

func TestDecoderReverseWithoutDebounce(t *testing.T) {
	th := DefaultThresholds()
	th.ReverseDebounce = false
	s := newStubSampler()
	d := NewDecoder(testX, testY, testButton, th)
	if err := d.Begin(s); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// Button held through neutral: a raw read still reports reverse on return.
	s.set(700, 100, true)
	d.CurrentPosition()
	s.set(470, 500, true)
	d.CurrentPosition()
	s.set(700, 100, true)
	if got := d.CurrentPosition(); got != Reverse {
		t.Errorf("got %s, want R", got)
	}
}

func TestReadButtonDebounce(t *testing.T) {
	d, s := newTestDecoder(t)
	s.buttons = []bool{true, true, true, false, true}
	want := []bool{true, false, false, false, true}

	for i, w := range want {
		if got := d.ReadButton(true); got != w {
			t.Errorf("read %d: got %v, want %v", i, got, w)
		}
	}
}

func TestReadButtonRaw(t *testing.T) {
	d, s := newTestDecoder(t)
	s.buttons = []bool{true, true, false, true}
	want := []bool{true, true, false, true}

	for i, w := range want {
		if got := d.ReadButton(false); got != w {
			t.Errorf("read %d: got %v, want %v", i, got, w)
		}
	}
}

func TestReadButtonDisconnected(t *testing.T) {
	d, s := newTestDecoder(t)
	s.set(1000, 1000, true)
	d.SampleInputs()

	if d.ReadButton(false) {
		t.Error("expected no press while disconnected")
	}
	if s.digitalReads != 0 {
		t.Errorf("button read %d times while disconnected", s.digitalReads)
	}
}

func TestDecoderAnalogErrorFreezes(t *testing.T) {
	d, s := newTestDecoder(t)

	s.set(580, 800, false)
	if g := d.CurrentPosition(); g != Gear5 {
		t.Fatalf("setup: got %s, want 5", g)
	}

	s.analogErr = errStub
	if g := d.CurrentPosition(); g != Gear5 {
		t.Errorf("after analog error: got %s, want frozen 5", g)
	}
	if d.Connected() {
		t.Error("expected Connected=false after analog error")
	}
	if d.Stats().AnalogErrors != 1 {
		t.Errorf("AnalogErrors: got %d, want 1", d.Stats().AnalogErrors)
	}
}

func TestDecoderDigitalErrorIsNotPressed(t *testing.T) {
	d, s := newTestDecoder(t)
	s.set(700, 100, true)
	s.digitalErr = errStub

	if g := d.CurrentPosition(); g != Gear6 {
		t.Errorf("got %s, want 6", g)
	}
	if d.Stats().DigitalErrors != 1 {
		t.Errorf("DigitalErrors: got %d, want 1", d.Stats().DigitalErrors)
	}
}

func TestRefineReverse(t *testing.T) {
	tests := []struct {
		pressed  bool
		previous Gear
		want     Gear
	}{
		{true, Neutral, Reverse},
		{true, Gear6, Reverse},
		{true, Reverse, Reverse},
		{false, Reverse, Reverse},
		{false, Gear6, Gear6},
		{false, Neutral, Gear6},
		{false, Gear5, Gear6},
	}
	for _, tt := range tests {
		if got := refineReverse(tt.pressed, tt.previous); got != tt.want {
			t.Errorf("refineReverse(%v, %s): got %s, want %s", tt.pressed, tt.previous, got, tt.want)
		}
	}
}
