package sequencer

import (
	"context"
	"fmt"

	"github.com/cbegin/padseq-go/internal/event"
)

// DefaultBlockSize is the number of frames rendered per sequencing block.
const DefaultBlockSize = 256

// Instrument consumes the events of one sequencer and renders stereo audio.
type Instrument interface {
	Apply(e *event.Event)
	RenderFrame() (float32, float32)
}

// Tap observes every event as it is applied. offset is the frame inside
// the current block.
type Tap func(sequencer string, offset int, e *event.Event)

type Options struct {
	BlockSize int
	OnEvent   Tap
}

type track struct {
	seq   *Sequencer
	inst  Instrument
	slots []*event.Event
}

// Engine owns the clock, the executor and the sequencers, and renders their
// instruments block by block. Process is the transport.
type Engine struct {
	clock     *Clock
	exec      *Executor
	blockSize int
	onEvent   Tap

	tracks []*track
	pos    int
}

func NewEngine(sampleRate int, opts Options) (*Engine, error) {
	clock, err := NewClock(sampleRate)
	if err != nil {
		return nil, err
	}
	bs := opts.BlockSize
	if bs <= 0 {
		bs = DefaultBlockSize
	}
	return &Engine{
		clock:     clock,
		exec:      NewExecutor(),
		blockSize: bs,
		onEvent:   opts.OnEvent,
	}, nil
}

func (e *Engine) Executor() *Executor { return e.exec }
func (e *Engine) BlockSize() int      { return e.blockSize }
func (e *Engine) SampleRate() int     { return e.clock.SampleRate() }

// Attach hands operations over to Process. Call it before Process starts
// running on its own goroutine, and Detach after it stopped.
func (e *Engine) Attach() { e.exec.Attach() }
func (e *Engine) Detach() { e.exec.Detach() }

// NewSequencer creates a sequencer bound to the engine's clock and
// executor. inst may be nil when the events are only observed through the
// tap.
func (e *Engine) NewSequencer(ctx context.Context, name, sibling string, controllers Controllers, inst Instrument) (*Sequencer, error) {
	s := New(name, sibling, controllers, WithExecutor(e.exec), WithRegion(e.clock))
	t := &track{seq: s, inst: inst, slots: make([]*event.Event, e.blockSize)}
	err := e.exec.Do(ctx, func() error {
		for _, o := range e.tracks {
			if o.seq.name == name {
				return fmt.Errorf("sequencer %q exists: %w", name, ErrOutOfSpec)
			}
		}
		e.tracks = append(e.tracks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RemoveSequencer detaches the named sequencer from the transport.
func (e *Engine) RemoveSequencer(ctx context.Context, name string) error {
	return e.exec.Do(ctx, func() error {
		for i, t := range e.tracks {
			if t.seq.name == name {
				e.tracks = append(e.tracks[:i], e.tracks[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("sequencer %q: %w", name, ErrOutOfSpec)
	})
}

func (e *Engine) Sequencers(ctx context.Context) ([]*Sequencer, error) {
	var out []*Sequencer
	err := e.exec.Do(ctx, func() error {
		for _, t := range e.tracks {
			out = append(out, t.seq)
		}
		return nil
	})
	return out, err
}

// Status is a snapshot of the clock.
type Status struct {
	Playing    bool
	BPM        int
	LPB        int
	Shuffle    int
	Loop       bool
	LoopStart  int
	LoopLength int
	Line       int
	Tick       int
}

func (e *Engine) Status(ctx context.Context) (Status, error) {
	var st Status
	err := e.exec.Do(ctx, func() error {
		c := e.clock
		st = Status{
			Playing:    c.Playing(),
			BPM:        c.BPM(),
			LPB:        c.LPB(),
			Shuffle:    c.Shuffle(),
			Line:       c.Cursor().Line,
			Tick:       c.Cursor().Tick,
			LoopStart:  c.loopStart,
			LoopLength: c.loopLength,
			Loop:       c.loop,
		}
		return nil
	})
	return st, err
}

func (e *Engine) clockDo(ctx context.Context, fn func(c *Clock) error) error {
	return e.exec.Do(ctx, func() error { return fn(e.clock) })
}

func (e *Engine) SetBPM(ctx context.Context, bpm int) error {
	return e.clockDo(ctx, func(c *Clock) error { return c.SetBPM(bpm) })
}

func (e *Engine) SetLPB(ctx context.Context, lpb int) error {
	return e.clockDo(ctx, func(c *Clock) error { return c.SetLPB(lpb) })
}

func (e *Engine) SetShuffle(ctx context.Context, factor int) error {
	return e.clockDo(ctx, func(c *Clock) error { return c.SetShuffle(factor) })
}

func (e *Engine) SetLoop(ctx context.Context, on bool) error {
	return e.clockDo(ctx, func(c *Clock) error { c.SetLoop(on); return nil })
}

func (e *Engine) SetLoopStart(ctx context.Context, line int) error {
	return e.clockDo(ctx, func(c *Clock) error { return c.SetLoopStart(line) })
}

func (e *Engine) SetLoopLength(ctx context.Context, lines int) error {
	return e.clockDo(ctx, func(c *Clock) error { return c.SetLoopLength(lines) })
}

func (e *Engine) Play(ctx context.Context) error {
	return e.clockDo(ctx, func(c *Clock) error { c.Play(); return nil })
}

func (e *Engine) Stop(ctx context.Context) error {
	return e.clockDo(ctx, func(c *Clock) error { c.Stop(); return nil })
}

// Rewind moves the clock back and resets every pad.
func (e *Engine) Rewind(ctx context.Context) error {
	return e.clockDo(ctx, func(c *Clock) error {
		c.Rewind()
		e.resetPads()
		return nil
	})
}

// JumpTo moves the clock to line and resets every pad.
func (e *Engine) JumpTo(ctx context.Context, line int) error {
	return e.clockDo(ctx, func(c *Clock) error {
		c.JumpTo(line)
		e.resetPads()
		return nil
	})
}

func (e *Engine) resetPads() {
	for _, t := range e.tracks {
		t.seq.pad.Reset()
	}
}

// fill runs the queued operations and, while playing, sequences the next
// block of every track.
func (e *Engine) fill() {
	e.exec.Drain()
	if !e.clock.Playing() {
		for _, t := range e.tracks {
			clear(t.slots)
		}
		return
	}
	timing := e.clock.Timing()
	cur := e.clock.Cursor()
	for _, t := range e.tracks {
		t.seq.FillBuffers(t.slots, timing, cur)
	}
	e.clock.Advance(e.blockSize)
}

// Process renders interleaved stereo frames into dst. Each frame applies the
// events in its slot before the instruments render it.
func (e *Engine) Process(dst []float32) {
	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		if e.pos == 0 {
			e.fill()
		}
		var l, r float32
		for _, t := range e.tracks {
			if ev := t.slots[e.pos]; ev != nil {
				if t.inst != nil {
					t.inst.Apply(ev)
				}
				if e.onEvent != nil {
					e.onEvent(t.seq.name, e.pos, ev)
				}
			}
			if t.inst != nil {
				tl, tr := t.inst.RenderFrame()
				l += tl
				r += tr
			}
		}
		dst[f*2] = l
		dst[f*2+1] = r
		e.pos++
		if e.pos == e.blockSize {
			e.pos = 0
		}
	}
}
