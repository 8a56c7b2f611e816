package event

// Sink receives the messages produced by loops, envelopes, the arpeggiator
// and the pad. Builder is the real-time implementation; export code provides
// others.
type Sink interface {
	QueueNoteOn(note, velocity, channel int)
	QueueNoteOff(note, velocity, channel int)
	QueueController(controller, value, channel int)
}

// Builder writes events into the slot array of one audio block. Slot index
// is the sample offset inside the block. Events that do not fit are kept on
// an overflow chain and land in the leading slots of the next block.
type Builder struct {
	pool      *Pool
	buf       []*Event
	pos       int
	remaining Chain
	freeable  Chain
}

func NewBuilder(pool *Pool) *Builder {
	if pool == nil {
		pool = NewPool()
	}
	return &Builder{pool: pool, pos: 1}
}

func (b *Builder) Pool() *Pool { return b.pool }

// UseBuffer binds the builder to a new block. Events handed out with the
// previous block go back to the pool; pending overflow is drained first in,
// first out.
func (b *Builder) UseBuffer(buf []*Event) {
	for e := b.pool.PopFront(&b.freeable); e != nil; e = b.pool.PopFront(&b.freeable) {
		b.pool.Release(e)
	}
	b.buf = buf
	b.pos = 0
	for b.pos < len(b.buf) && !b.remaining.Empty() {
		e := b.pool.PopFront(&b.remaining)
		b.buf[b.pos] = e
		b.pos++
		b.pool.Append(&b.freeable, e)
	}
}

// Finish unbinds the current block. Anything queued before the next
// UseBuffer goes to the overflow chain.
func (b *Builder) Finish() {
	b.buf = nil
	b.pos = 1
}

func (b *Builder) SkipTo(pos int) { b.pos = pos }
func (b *Builder) Tell() int      { return b.pos }

// Pending is the number of events waiting for a free slot.
func (b *Builder) Pending() int { return b.remaining.Len() }

func (b *Builder) chain(e *Event) {
	if b.pos >= len(b.buf) {
		b.pool.Append(&b.remaining, e)
		return
	}
	b.buf[b.pos] = e
	b.pos++
	b.pool.Append(&b.freeable, e)
}

// shortLen is the size of every message a Sink can queue.
const shortLen = 3

// queue3 drops the message if the pool refuses it. Sink has no error path and
// the audio thread must not block.
func (b *Builder) queue3(status, d1, d2 int) {
	e, err := b.pool.Acquire(shortLen)
	if err != nil {
		return
	}
	e.set3(status, d1, d2)
	b.chain(e)
}

func (b *Builder) QueueNoteOn(note, velocity, channel int) {
	b.queue3(StatusNoteOn|(channel&0x0f), note, velocity)
}

func (b *Builder) QueueNoteOff(note, velocity, channel int) {
	b.queue3(StatusNoteOff|(channel&0x0f), note, velocity)
}

func (b *Builder) QueueController(controller, value, channel int) {
	b.queue3(StatusControlChange|(channel&0x0f), controller, value)
}

// QueueMIDIData parses concatenated three byte note-off, note-on and
// control-change messages. Parsing stops at any other status or at a
// truncated message.
func (b *Builder) QueueMIDIData(data []byte) {
	for off := 0; off+3 <= len(data); off += 3 {
		status := int(data[off])
		d1, d2 := int(data[off+1]), int(data[off+2])
		ch := status & 0x0f
		switch status & 0xf0 {
		case StatusNoteOff:
			b.QueueNoteOff(d1, d2, ch)
		case StatusNoteOn:
			b.QueueNoteOn(d1, d2, ch)
		case StatusControlChange:
			b.QueueController(d1, d2, ch)
		default:
			return
		}
	}
}
