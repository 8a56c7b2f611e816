package pad

import "sync/atomic"

// EventKind is the phase of one touch sample.
type EventKind int

const (
	NoEvent EventKind = iota
	Press
	Slide
	Release
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Slide:
		return "slide"
	case Release:
		return "release"
	}
	return "none"
}

// Event is one touch sample in pad resolution coordinates.
type Event struct {
	Finger int
	Kind   EventKind
	X, Y   int
}

// QueueCapacity is the number of touch samples buffered between the input
// thread and the transport.
const QueueCapacity = 100

// Queue is a bounded single producer, single consumer ring. Push never
// blocks; it reports false when the ring is full.
type Queue struct {
	buf  [QueueCapacity + 1]Event
	head atomic.Uint32 // next slot to read, owned by the consumer
	tail atomic.Uint32 // next slot to write, owned by the producer
}

func (q *Queue) Push(e Event) bool {
	t := q.tail.Load()
	n := (t + 1) % uint32(len(q.buf))
	if n == q.head.Load() {
		return false
	}
	q.buf[t] = e
	q.tail.Store(n)
	return true
}

func (q *Queue) Pop() (Event, bool) {
	h := q.head.Load()
	if h == q.tail.Load() {
		return Event{}, false
	}
	e := q.buf[h]
	q.head.Store((h + 1) % uint32(len(q.buf)))
	return e, true
}

// Len is approximate when called concurrently with Push or Pop.
func (q *Queue) Len() int {
	h, t := q.head.Load(), q.tail.Load()
	size := uint32(len(q.buf))
	return int((t + size - h) % size)
}
