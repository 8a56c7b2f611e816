// Package sequencer drives loops, controller envelopes and the pad from a
// shared transport clock, and turns them into per-block event slots for the
// instrument each sequencer plays.
package sequencer

import (
	"sort"
	"sync/atomic"

	"github.com/cbegin/padseq-go/internal/envelope"
	"github.com/cbegin/padseq-go/internal/event"
	"github.com/cbegin/padseq-go/internal/loop"
	"github.com/cbegin/padseq-go/internal/pad"
	"github.com/cbegin/padseq-go/internal/scale"
	"github.com/cbegin/padseq-go/internal/tick"
)

// inboxSize bounds the raw MIDI chunks waiting for the next block.
const inboxSize = 64

type Option func(*Sequencer)

// WithExecutor makes the sequencer's operations run through x. Sequencers
// of one engine share its executor.
func WithExecutor(x *Executor) Option {
	return func(s *Sequencer) { s.exec = x }
}

// WithRegion gives the pad and pad export access to the transport loop.
func WithRegion(r pad.Region) Option {
	return func(s *Sequencer) { s.region = r }
}

func WithScales(sc scale.Service) Option {
	return func(s *Sequencer) { s.scales = sc }
}

// Sequencer plays one instrument, its sibling. FillBuffers belongs to the
// transport; every other method may be called from any goroutine.
type Sequencer struct {
	name    string
	sibling string

	exec   *Executor
	region pad.Region
	scales scale.Service

	mute     atomic.Bool
	store    *loop.Store
	sequence *loop.Sequence
	pad      *pad.Pad
	current  *loop.Loop

	controllers Controllers
	envelopes   map[string]*envelope.Envelope
	envNames    []string

	builder *event.Builder
	inbox   chan []byte
}

// New creates a sequencer for the instrument named sibling. An envelope is
// created for every controller with a MIDI mapping.
func New(name, sibling string, controllers Controllers, opts ...Option) *Sequencer {
	s := &Sequencer{
		name:        name,
		sibling:     sibling,
		store:       loop.NewStore(),
		sequence:    loop.NewSequence(),
		controllers: controllers,
		envelopes:   map[string]*envelope.Envelope{},
		builder:     event.NewBuilder(nil),
		inbox:       make(chan []byte, inboxSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exec == nil {
		s.exec = NewExecutor()
	}
	if s.scales == nil {
		s.scales = scale.Default()
	}
	s.pad = pad.New(pad.WithScales(s.scales))
	if s.region != nil {
		s.pad.SetRegion(s.region)
	}
	s.createEnvelopes()
	return s
}

func (s *Sequencer) Name() string    { return s.name }
func (s *Sequencer) Sibling() string { return s.sibling }

// createEnvelopes adds the envelopes that do not exist yet.
func (s *Sequencer) createEnvelopes() {
	for _, name := range s.controllers.MIDINames() {
		if _, ok := s.envelopes[name]; ok {
			continue
		}
		ctl := s.controllers[name]
		e := envelope.New()
		e.Coarse, e.Fine = ctl.Coarse, ctl.Fine
		s.envelopes[name] = e
	}
	s.sortEnvelopes()
}

func (s *Sequencer) sortEnvelopes() {
	s.envNames = s.envNames[:0]
	for name := range s.envelopes {
		s.envNames = append(s.envNames, name)
	}
	sort.Strings(s.envNames)
}

// FillBuffers clears slots and fills them with the events of one block
// starting at cursor c. It does not move the clock; the engine advances it
// once every sequencer has been filled.
func (s *Sequencer) FillBuffers(slots []*event.Event, t Timing, c Cursor) {
	for i := range slots {
		slots[i] = nil
	}
	s.drainInbox()

	b := s.builder
	b.UseBuffer(slots)
	mute := s.mute.Load()
	limit := len(slots)

	for c.NextTickAt < limit {
		// events of an earlier tick may already occupy the slot
		at := c.NextTickAt
		if b.Tell() > at {
			at = b.Tell()
		}
		b.SkipTo(at)

		now := tick.At(c.Line, c.Tick)
		s.pad.Process(mute, now, b)

		if c.Tick == 0 {
			if id := s.sequence.At(c.Line); id != loop.NotSet {
				if l, err := s.store.Get(id); err == nil {
					s.current = l
					l.StartToPlay()
				}
			}
		}
		if s.current != nil {
			s.current.Process(mute, b)
		}
		for _, name := range s.envNames {
			s.envelopes[name].Process(now, b)
		}

		t.Step(&c)
	}
	b.Finish()
}

// drainInbox queues injected MIDI while the builder is between blocks, so
// it lands in the first slots of the coming block.
func (s *Sequencer) drainInbox() {
	for {
		select {
		case data := <-s.inbox:
			s.builder.QueueMIDIData(data)
		default:
			return
		}
	}
}
