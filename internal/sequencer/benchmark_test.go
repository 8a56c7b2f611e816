package sequencer

import (
	"testing"

	"github.com/cbegin/padseq-go/internal/envelope"
	"github.com/cbegin/padseq-go/internal/event"
	"github.com/cbegin/padseq-go/internal/loop"
)

func BenchmarkFillBuffers(b *testing.B) {
	s := New("bench", "synth", GeneralMIDI)
	for i := 0; i < 64; i++ {
		s.InsertNote(bg, 0, loop.NoteEntry{Note: 48 + i%24, Velocity: 100, OnAt: i * 4, Length: 3})
	}
	for pos := 0; pos < 16; pos++ {
		s.SetLoopIDAt(bg, pos, 0)
	}
	env := envelope.New()
	env.Set(0, 0)
	env.Set(256, envelope.MaxValue)
	s.UpdateControllerEnvelope(bg, "volume", env)

	c, _ := NewClock(48000)
	slots := make([]*event.Event, 2048)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.FillBuffers(slots, c.Timing(), c.Cursor())
		c.Advance(len(slots))
	}
}

func BenchmarkEngineProcess(b *testing.B) {
	e, _ := NewEngine(48000, Options{})
	s, _ := e.NewSequencer(bg, "bench", "synth", nil, nil)
	for i := 0; i < 16; i++ {
		s.InsertNote(bg, 0, loop.NoteEntry{Note: 60 + i, Velocity: 100, OnAt: i * 16, Length: 8})
	}
	s.SetLoopIDAt(bg, 0, 0)
	e.Play(bg)
	buf := make([]float32, 2048*2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Process(buf)
	}
}
