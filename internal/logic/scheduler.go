package logic

import "time"

// SchedulerConfig controls key press timing.
type SchedulerConfig struct {
	// Hold is the minimum time a key stays pressed before release.
	Hold time.Duration
	// Capacity is the press queue size.
	Capacity int
}

// DefaultSchedulerConfig returns a 45ms hold and a queue of 10.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Hold:     45 * time.Millisecond,
		Capacity: 10,
	}
}

// SchedulerStats counts what the scheduler has done since construction.
type SchedulerStats struct {
	Pressed       int
	Released      int
	Dropped       int // rejected by a full queue
	PressErrors   int
	ReleaseErrors int
}

// Scheduler presses queued keys one at a time, holding each for at least
// the configured duration. It never sleeps: Tick must be called from the
// polling loop at a cadence well below the hold duration.
//
// States: idle (held == false) and holding (held == true, since pressedAt).
// Not safe for concurrent use.
type Scheduler struct {
	kb    Keyboard
	hold  time.Duration
	queue *PressQueue

	begun     bool
	held      bool
	pressedAt time.Time
	stats     SchedulerStats
}

// NewScheduler creates a scheduler writing to kb.
func NewScheduler(kb Keyboard, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		kb:    kb,
		hold:  cfg.Hold,
		queue: NewPressQueue(cfg.Capacity),
	}
}

// Begin initializes the keyboard. Calling it again is a no-op.
func (s *Scheduler) Begin() error {
	if s.begun {
		return nil
	}
	if err := s.kb.Begin(); err != nil {
		return err
	}
	s.begun = true
	return nil
}

// Enqueue appends sym to the press queue. If the queue is full the symbol
// is dropped and Enqueue returns false.
func (s *Scheduler) Enqueue(sym KeySymbol) bool {
	if !s.queue.Push(sym) {
		s.stats.Dropped++
		return false
	}
	return true
}

// Tick advances the press/hold/release state machine to now and returns
// the key action performed, or nil when nothing changed.
func (s *Scheduler) Tick(now time.Time) *KeyEvent {
	if !s.begun {
		return nil
	}

	front, ok := s.queue.Peek()
	if !ok {
		return nil
	}

	if !s.held {
		if err := s.kb.Press(front); err != nil {
			// Drop the symbol so a failing output cannot wedge the queue.
			s.queue.Pop()
			s.stats.PressErrors++
			return &KeyEvent{Timestamp: now, Action: KeyDown, Key: front, Err: err}
		}
		s.held = true
		s.pressedAt = now
		s.stats.Pressed++
		return &KeyEvent{Timestamp: now, Action: KeyDown, Key: front}
	}

	if now.Sub(s.pressedAt) < s.hold {
		return nil
	}

	s.queue.Pop()
	s.held = false
	ev := &KeyEvent{Timestamp: now, Action: KeyUp, Key: front}
	if err := s.kb.ReleaseAll(); err != nil {
		s.stats.ReleaseErrors++
		ev.Err = err
		return ev
	}
	s.stats.Released++
	return ev
}

// Held returns the symbol currently pressed, if any.
func (s *Scheduler) Held() (KeySymbol, bool) {
	if !s.held {
		return 0, false
	}
	return s.queue.Peek()
}

// Pending returns the queued symbols, including a held one, front first.
func (s *Scheduler) Pending() []KeySymbol {
	return s.queue.Items()
}

// Stats returns a copy of the scheduler counters.
func (s *Scheduler) Stats() SchedulerStats {
	return s.stats
}
