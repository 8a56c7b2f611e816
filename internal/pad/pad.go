package pad

import (
	"sync/atomic"

	"github.com/cbegin/padseq-go/internal/arpeggio"
	"github.com/cbegin/padseq-go/internal/event"
	"github.com/cbegin/padseq-go/internal/scale"
	"github.com/cbegin/padseq-go/internal/tick"
)

// Resolution is the size of the normalised pad coordinate space.
const Resolution = 4096

// Region reports the transport loop region in lines.
type Region interface {
	LoopRegion() (enabled bool, start, length int)
}

type Option func(*Pad)

// WithScales sets the scale lookup. Without one every motion uses C major.
func WithScales(s scale.Service) Option {
	return func(p *Pad) { p.scales = s }
}

// WithRegion lets new sessions be folded back into the loop region.
func WithRegion(r Region) Option {
	return func(p *Pad) { p.region = r }
}

// Pad owns the recorded sessions, the live session, the arpeggiator fed by
// arpeggiator mode motions and the queue filled by the input thread.
//
// Enqueue and SetResolution may be called from the input thread. Every
// other method belongs to the transport.
type Pad struct {
	Configuration

	arp      *arpeggio.Arpeggiator
	queue    Queue
	sessions []*session
	current  *session
	record   bool
	quantize bool

	width  atomic.Int32
	height atomic.Int32

	scales scale.Service
	region Region
}

func New(opts ...Option) *Pad {
	p := &Pad{
		Configuration: DefaultConfiguration(),
		arp:           arpeggio.New(),
	}
	p.width.Store(Resolution)
	p.height.Store(Resolution)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pad) Arpeggiator() *arpeggio.Arpeggiator { return p.arp }

func (p *Pad) SetScales(s scale.Service) { p.scales = s }
func (p *Pad) SetRegion(r Region)        { p.region = r }

// SetResolution sets the size of the input surface in its own units.
func (p *Pad) SetResolution(width, height int) {
	if width > 0 {
		p.width.Store(int32(width))
	}
	if height > 0 {
		p.height.Store(int32(height))
	}
}

// Enqueue converts a raw touch sample to pad coordinates, y growing upwards,
// and queues it. It reports false when the sample was dropped because the
// queue is full.
func (p *Pad) Enqueue(finger int, kind EventKind, x, y int) bool {
	w, h := int(p.width.Load()), int(p.height.Load())
	e := Event{
		Finger: finger,
		Kind:   kind,
		X:      event.Clamp(Resolution*x/w, 0, Resolution-1),
		Y:      event.Clamp(Resolution*(h-y)/h, 0, Resolution-1),
	}
	return p.queue.Push(e)
}

// Pending is the number of queued touch samples.
func (p *Pad) Pending() int { return p.queue.Len() }

// SetArpPattern selects the arpeggiator pattern and remembers it in the
// configuration.
func (p *Pad) SetArpPattern(id int) {
	p.ArpPattern = id
	p.arp.SetPattern(id)
}

func (p *Pad) Recording() bool  { return p.record }
func (p *Pad) Quantizing() bool { return p.quantize }

func (p *Pad) SetQuantize(on bool) { p.quantize = on }

// SetRecord switches recording. A live session is dropped when recording
// starts and closed when it stops.
func (p *Pad) SetRecord(on bool) {
	if on == p.record {
		return
	}
	if p.current != nil {
		if !p.record {
			p.current.remove()
		} else {
			p.current.terminate()
		}
		p.current = nil
	}
	p.record = on
}

// Clear deletes every session. Sessions that are playing stop after their
// running motions release.
func (p *Pad) Clear() {
	for _, s := range p.sessions {
		s.remove()
	}
	p.current = nil
}

// Reset stops playback, forgets the live session and rewinds the others.
func (p *Pad) Reset() {
	p.arp.Reset()
	kept := p.sessions[:0]
	for _, s := range p.sessions {
		if s == p.current {
			continue
		}
		s.reset()
		kept = append(kept, s)
	}
	p.sessions = kept
	p.current = nil
}

// SessionCount includes the live session.
func (p *Pad) SessionCount() int { return len(p.sessions) }

func (p *Pad) processEvents(t int) {
	for {
		e, ok := p.queue.Pop()
		if !ok {
			return
		}
		if e.Finger < 0 || e.Finger >= MaxFingers {
			continue
		}
		if p.current == nil {
			start := t
			if p.quantize {
				start = tick.Quantize(start)
			}
			if p.region != nil {
				if on, ls, ll := p.region.LoopRegion(); on && start >= (ls+ll)<<tick.BitsPerLine {
					start -= ls << tick.BitsPerLine
				}
			}
			s := newSession(start, false)
			s.inPlay = true
			p.current = s
			p.sessions = append(p.sessions, s)
		}
		p.current.fingers[e.Finger].handle(p, e, p.current.pos)
	}
}

func (p *Pad) processMotions(mute bool, t int, sink event.Sink) {
	kept := p.sessions[:0]
	for _, s := range p.sessions {
		if s.startPlay(t) && s.process(p, p.record, mute, sink) {
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(p.sessions); i++ {
		p.sessions[i] = nil
	}
	p.sessions = kept
}

// Process runs one tick at absolute tick t: touch input, session playback,
// then the arpeggiator.
func (p *Pad) Process(mute bool, t int, sink event.Sink) {
	p.processEvents(t)
	p.processMotions(mute, t, sink)
	p.arp.ProcessPattern(mute, sink)
}
