package sequencer

import (
	"fmt"

	"github.com/cbegin/padseq-go/internal/tick"
)

const (
	MinBPM     = 20
	MaxBPM     = 200
	DefaultBPM = 120

	MinLPB     = 2
	MaxLPB     = 24
	DefaultLPB = 4

	// ShuffleDivisor is the exclusive upper bound of the shuffle factor.
	ShuffleDivisor = 100

	MinLoopLength = 4

	defaultLoopLength = 16
)

// Cursor is the transport position at a block boundary: the line and tick
// handled next and the sample offset, inside the coming block, at which that
// happens.
type Cursor struct {
	Line       int
	Tick       int
	NextTickAt int
}

// Timing is the tempo and loop information a block is rendered with.
type Timing struct {
	SamplesPerTick int
	Shuffle        int // swing offset in samples

	Loop      bool
	LoopStart int
	LoopStop  int
}

// Step moves c one tick forward. Swing is decided by the line reached after
// the tick advance: even lines get a shorter tick, odd lines a longer one.
func (t Timing) Step(c *Cursor) {
	c.Tick = (c.Tick + 1) % tick.PerLine
	if c.Tick == 0 {
		c.Line++
		if t.Loop && c.Line >= t.LoopStop {
			c.Line = t.LoopStart
		}
	}
	if c.Line%2 == 0 {
		c.NextTickAt += t.SamplesPerTick - t.Shuffle
	} else {
		c.NextTickAt += t.SamplesPerTick + t.Shuffle
	}
}

// Clock is the tempo and position source shared by every sequencer of an
// engine. It belongs to the transport: use Engine methods to change it while
// audio runs.
type Clock struct {
	sampleRate int

	bpm     int
	lpb     int
	shuffle int

	loop       bool
	loopStart  int
	loopLength int

	playing bool
	cur     Cursor
}

func NewClock(sampleRate int) (*Clock, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d: %w", sampleRate, ErrOutOfSpec)
	}
	return &Clock{
		sampleRate: sampleRate,
		bpm:        DefaultBPM,
		lpb:        DefaultLPB,
		loopLength: defaultLoopLength,
	}, nil
}

func (c *Clock) SampleRate() int { return c.sampleRate }
func (c *Clock) BPM() int        { return c.bpm }
func (c *Clock) LPB() int        { return c.lpb }
func (c *Clock) Shuffle() int    { return c.shuffle }

func (c *Clock) SetBPM(bpm int) error {
	if bpm < MinBPM || bpm > MaxBPM {
		return fmt.Errorf("bpm %d: %w", bpm, ErrOutOfSpec)
	}
	c.bpm = bpm
	return nil
}

func (c *Clock) SetLPB(lpb int) error {
	if lpb < MinLPB || lpb > MaxLPB {
		return fmt.Errorf("lpb %d: %w", lpb, ErrOutOfSpec)
	}
	c.lpb = lpb
	return nil
}

func (c *Clock) SetShuffle(factor int) error {
	if factor < 0 || factor >= ShuffleDivisor {
		return fmt.Errorf("shuffle %d: %w", factor, ErrOutOfSpec)
	}
	c.shuffle = factor
	return nil
}

func (c *Clock) SetLoop(on bool) { c.loop = on }

func (c *Clock) SetLoopStart(line int) error {
	if line < 0 {
		return fmt.Errorf("loop start %d: %w", line, ErrOutOfSpec)
	}
	c.loopStart = line
	return nil
}

func (c *Clock) SetLoopLength(lines int) error {
	if lines < MinLoopLength {
		return fmt.Errorf("loop length %d: %w", lines, ErrOutOfSpec)
	}
	c.loopLength = lines
	return nil
}

// LoopRegion reports the loop state, start line and length in lines.
func (c *Clock) LoopRegion() (enabled bool, start, length int) {
	return c.loop, c.loopStart, c.loopLength
}

// SamplesPerTick is the unswung tick length, at least one sample.
func (c *Clock) SamplesPerTick() int {
	spt := c.sampleRate * 60 / (c.bpm * c.lpb * tick.PerLine)
	if spt < 1 {
		spt = 1
	}
	return spt
}

// ShuffleOffset is how far swing moves every other line's ticks.
func (c *Clock) ShuffleOffset() int {
	return ((c.SamplesPerTick() >> 3) * 3 * c.shuffle) / ShuffleDivisor
}

func (c *Clock) Timing() Timing {
	return Timing{
		SamplesPerTick: c.SamplesPerTick(),
		Shuffle:        c.ShuffleOffset(),
		Loop:           c.loop,
		LoopStart:      c.loopStart,
		LoopStop:       c.loopStart + c.loopLength,
	}
}

func (c *Clock) Cursor() Cursor { return c.cur }

func (c *Clock) Play()         { c.playing = true }
func (c *Clock) Stop()         { c.playing = false }
func (c *Clock) Playing() bool { return c.playing }

// Rewind moves to the loop start when looping, otherwise to line 0.
func (c *Clock) Rewind() {
	c.cur.Line = 0
	if c.loop {
		c.cur.Line = c.loopStart
	}
	c.cur.Tick = 0
}

// JumpTo moves to the start of line. While looping, lines outside the loop
// region jump to the loop start.
func (c *Clock) JumpTo(line int) {
	if c.loop && (line < c.loopStart || line > c.loopStart+c.loopLength) {
		line = c.loopStart
	}
	if line < 0 {
		line = 0
	}
	c.cur.Line = line
	c.cur.Tick = 0
}

// Advance moves the position past a block of samples, exactly as the
// sequencers did while filling it.
func (c *Clock) Advance(samples int) {
	t := c.Timing()
	for c.cur.NextTickAt < samples {
		t.Step(&c.cur)
	}
	c.cur.NextTickAt -= samples
}
