package logic

// PressQueue is a fixed-capacity FIFO of key symbols.
// When full, Push rejects the new symbol (drop-newest) so the keys already
// queued are emitted in the order they were requested.
// Not safe for concurrent use.
type PressQueue struct {
	buf   []KeySymbol
	head  int // index of the front symbol
	count int
}

// NewPressQueue returns an empty queue holding at most capacity symbols.
// A capacity below 1 is raised to 1.
func NewPressQueue(capacity int) *PressQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &PressQueue{buf: make([]KeySymbol, capacity)}
}

// Push appends sym. It returns false, leaving the queue unchanged, when full.
func (q *PressQueue) Push(sym KeySymbol) bool {
	if q.count == len(q.buf) {
		return false
	}
	q.buf[(q.head+q.count)%len(q.buf)] = sym
	q.count++
	return true
}

// Peek returns the front symbol without removing it.
func (q *PressQueue) Peek() (KeySymbol, bool) {
	if q.count == 0 {
		return 0, false
	}
	return q.buf[q.head], true
}

// Pop removes and returns the front symbol.
func (q *PressQueue) Pop() (KeySymbol, bool) {
	sym, ok := q.Peek()
	if !ok {
		return 0, false
	}
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return sym, true
}

// Len returns the number of queued symbols.
func (q *PressQueue) Len() int {
	return q.count
}

// Cap returns the fixed capacity.
func (q *PressQueue) Cap() int {
	return len(q.buf)
}

// Items returns the queued symbols, front first.
func (q *PressQueue) Items() []KeySymbol {
	if q.count == 0 {
		return nil
	}
	out := make([]KeySymbol, q.count)
	for i := range out {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}
