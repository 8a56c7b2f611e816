package project

import (
	"github.com/cbegin/padseq-go/internal/envelope"
	"github.com/cbegin/padseq-go/internal/loop"
	"github.com/cbegin/padseq-go/internal/pad"
	"github.com/cbegin/padseq-go/internal/sequencer"
	"github.com/cbegin/padseq-go/internal/tick"
)

func note(ch, n, line, tk, length int) loop.NoteEntry {
	return loop.NoteEntry{Channel: ch, Velocity: 0x64, Note: n, OnAt: tick.At(line, tk), Length: length}
}

// Demo is a short two track project: a lead line with a swelling volume
// envelope and one recorded pad gesture, over a bass loop.
func Demo() *Project {
	p := New()
	p.BPM = 110
	p.Loop = LoopRegion{Enabled: true, Start: 0, Length: 16}

	lead := sequencer.State{
		Name:    "lead",
		Sibling: "lead-synth",
		Pad:     pad.DefaultConfiguration(),
	}
	var phrase, answer []loop.NoteEntry
	for i, n := range []int{60, 63, 67, 70, 67, 63, 62, 58} {
		phrase = append(phrase, note(0, n, i/2, (i%2)*8, 6))
	}
	for i, n := range []int{65, 63, 62, 60} {
		answer = append(answer, note(0, n, i, 0, 12))
	}
	lead.Loops = [][]loop.NoteEntry{phrase, answer}
	lead.Sequence = []sequencer.SequenceEntry{{Pos: 0, ID: 0}, {Pos: 4, ID: 1}, {Pos: 8, ID: 0}, {Pos: 12, ID: 1}}
	lead.Envelopes = []sequencer.EnvelopeState{{
		Name:    "volume",
		Enabled: true,
		Coarse:  7,
		Fine:    39,
		Points: []envelope.Point{
			{T: 0, Y: 0x1000},
			{T: tick.At(8, 0), Y: envelope.MaxValue},
			{T: tick.At(15, 0), Y: 0x2000},
		},
	}}
	gesture := pad.MotionRecord{Finger: 0, Config: lead.Pad}
	for i := 0; i < 8; i++ {
		gesture.Samples = append(gesture.Samples, pad.Sample{X: 200 + i*40, Y: 300, T: i * 4})
	}
	lead.Sessions = []pad.SessionRecord{{Start: tick.At(12, 0), Motions: []pad.MotionRecord{gesture}}}

	bass := sequencer.State{
		Name:    "bass",
		Sibling: "bass-synth",
		Pad:     pad.DefaultConfiguration(),
	}
	var groove []loop.NoteEntry
	for line, n := range []int{36, 36, 43, 41} {
		groove = append(groove, note(1, n, line, 0, 10))
	}
	bass.Loops = [][]loop.NoteEntry{groove}
	for pos := 0; pos < 16; pos += 4 {
		bass.Sequence = append(bass.Sequence, sequencer.SequenceEntry{Pos: pos, ID: 0})
	}

	p.Sequencers = []sequencer.State{lead, bass}
	return p
}
