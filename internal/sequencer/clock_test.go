package sequencer

import (
	"errors"
	"testing"
)

func TestClockRejectsOutOfSpecValues(t *testing.T) {
	c, err := NewClock(44100)
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}
	tests := []struct {
		name string
		set  func() error
		ok   bool
	}{
		{"bpm low", func() error { return c.SetBPM(19) }, false},
		{"bpm min", func() error { return c.SetBPM(20) }, true},
		{"bpm max", func() error { return c.SetBPM(200) }, true},
		{"bpm high", func() error { return c.SetBPM(201) }, false},
		{"lpb low", func() error { return c.SetLPB(1) }, false},
		{"lpb max", func() error { return c.SetLPB(24) }, true},
		{"lpb high", func() error { return c.SetLPB(25) }, false},
		{"shuffle negative", func() error { return c.SetShuffle(-1) }, false},
		{"shuffle max", func() error { return c.SetShuffle(99) }, true},
		{"shuffle divisor", func() error { return c.SetShuffle(100) }, false},
		{"loop start negative", func() error { return c.SetLoopStart(-1) }, false},
		{"loop length short", func() error { return c.SetLoopLength(3) }, false},
		{"loop length min", func() error { return c.SetLoopLength(4) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrOutOfSpec) {
				t.Fatalf("expected ErrOutOfSpec, got %v", err)
			}
		})
	}
	if _, err := NewClock(0); !errors.Is(err, ErrOutOfSpec) {
		t.Fatalf("expected ErrOutOfSpec for zero sample rate, got %v", err)
	}
}

func TestClockSamplesPerTick(t *testing.T) {
	c, _ := NewClock(44100)
	if got := c.SamplesPerTick(); got != 344 {
		t.Fatalf("samples per tick = %d, want 344", got)
	}
	if err := c.SetShuffle(50); err != nil {
		t.Fatal(err)
	}
	// (344>>3)*3*50/100
	if got := c.ShuffleOffset(); got != 64 {
		t.Fatalf("shuffle offset = %d, want 64", got)
	}
}

func TestClockAdvanceOneLinePerBlock(t *testing.T) {
	// 7680 Hz at 120 bpm and 4 lpb gives 60 samples per tick, 960 per line
	c, _ := NewClock(7680)
	if c.SamplesPerTick() != 60 {
		t.Fatalf("samples per tick = %d", c.SamplesPerTick())
	}
	c.Advance(960)
	if cur := c.Cursor(); cur != (Cursor{Line: 1, Tick: 0, NextTickAt: 0}) {
		t.Fatalf("cursor after one line = %+v", cur)
	}
	c.Advance(100)
	if cur := c.Cursor(); cur.Line != 1 || cur.Tick != 2 || cur.NextTickAt != 20 {
		t.Fatalf("cursor after 100 samples = %+v", cur)
	}
}

func TestClockLoopWrapsToStart(t *testing.T) {
	c, _ := NewClock(7680)
	c.SetLoop(true)
	if err := c.SetLoopStart(2); err != nil {
		t.Fatal(err)
	}
	if err := c.SetLoopLength(4); err != nil {
		t.Fatal(err)
	}
	c.Rewind()
	if c.Cursor().Line != 2 {
		t.Fatalf("rewind while looping should go to the loop start, got %d", c.Cursor().Line)
	}
	for i := 0; i < 4; i++ {
		c.Advance(960)
	}
	if c.Cursor().Line != 2 {
		t.Fatalf("expected wrap to line 2, got %+v", c.Cursor())
	}
	c.JumpTo(40)
	if c.Cursor().Line != 2 {
		t.Fatalf("jump outside the loop should land on the loop start, got %d", c.Cursor().Line)
	}
	c.SetLoop(false)
	c.JumpTo(40)
	c.Rewind()
	if c.Cursor().Line != 0 {
		t.Fatalf("rewind without loop should go to line 0, got %d", c.Cursor().Line)
	}
}

func TestTimingSwing(t *testing.T) {
	tm := Timing{SamplesPerTick: 100, Shuffle: 30}
	c := Cursor{Line: 0, Tick: 14}
	tm.Step(&c)
	if c.Tick != 15 || c.NextTickAt != 70 {
		t.Fatalf("even line tick should be shortened: %+v", c)
	}
	tm.Step(&c)
	if c.Line != 1 || c.Tick != 0 || c.NextTickAt != 200 {
		t.Fatalf("odd line tick should be lengthened: %+v", c)
	}
}
