package midiexport

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/padseq-go/internal/loop"
	"github.com/cbegin/padseq-go/internal/pad"
	"github.com/cbegin/padseq-go/internal/project"
	"github.com/cbegin/padseq-go/internal/sequencer"
)

type noteMsg struct {
	at   int
	on   bool
	key  uint8
	velo uint8
}

func notesOf(tr smf.Track) []noteMsg {
	var out []noteMsg
	at := 0
	for _, ev := range tr {
		at += int(ev.Delta)
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteOn(&ch, &key, &vel):
			out = append(out, noteMsg{at, true, key, vel})
		case ev.Message.GetNoteOff(&ch, &key, &vel):
			out = append(out, noteMsg{at, false, key, vel})
		}
	}
	return out
}

func trackName(tr smf.Track) string {
	var name string
	for _, ev := range tr {
		if ev.Message.GetMetaTrackName(&name) {
			return name
		}
	}
	return ""
}

func testProject(states ...sequencer.State) *project.Project {
	p := project.New()
	p.Sequencers = states
	return p
}

func TestInfoTrackAndResolution(t *testing.T) {
	p := testProject(sequencer.State{
		Name:     "lead",
		Loops:    [][]loop.NoteEntry{{{Velocity: 90, Note: 60, OnAt: 2, Length: 3}}},
		Sequence: []sequencer.SequenceEntry{{Pos: 1, ID: 0}},
	}, sequencer.State{Name: "silent", Loops: [][]loop.NoteEntry{nil}})
	p.BPM = 96
	p.LPB = 6

	var buf bytes.Buffer
	if err := Write(&buf, p, Options{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := smf.ReadFrom(&buf)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); !ok || uint16(mt) != 96 {
		t.Fatalf("time format = %v", s.TimeFormat)
	}
	if tc := s.TempoChanges(); len(tc) == 0 || tc[0].BPM != 96 {
		t.Fatalf("tempo = %+v", tc)
	}
	if len(s.Tracks) != 2 {
		t.Fatalf("tracks = %d, the silent sequencer should be dropped", len(s.Tracks))
	}
	var copyright string
	for _, ev := range s.Tracks[0] {
		ev.Message.GetMetaCopyright(&copyright)
	}
	if copyright != Copyright {
		t.Fatalf("copyright = %q", copyright)
	}
	if name := trackName(s.Tracks[1]); name != "lead" {
		t.Fatalf("track name = %q", name)
	}
	want := []noteMsg{{18, true, 60, 90}, {22, false, 60, 90}}
	if got := notesOf(s.Tracks[1]); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got  %v\nwant %v", got, want)
	}
}

func TestNextEntryCutsLoop(t *testing.T) {
	st := sequencer.State{
		Name: "bass",
		Loops: [][]loop.NoteEntry{{
			{Velocity: 100, Note: 60, OnAt: 0, Length: 3},
			{Velocity: 100, Note: 62, OnAt: 80, Length: 2},
		}},
		Sequence: []sequencer.SequenceEntry{{Pos: 4, ID: 0}, {Pos: 0, ID: 0}},
	}
	s, err := Build(testProject(st), Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []noteMsg{
		{0, true, 60, 100}, {4, false, 60, 100},
		{64, true, 60, 100}, {68, false, 60, 100},
		{144, true, 62, 100}, {147, false, 62, 100},
	}
	if got := notesOf(s.Tracks[1]); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got  %v\nwant %v", got, want)
	}
}

func TestReleaseBeforeRestrike(t *testing.T) {
	st := sequencer.State{
		Name: "lead",
		Loops: [][]loop.NoteEntry{{
			{Velocity: 100, Note: 64, OnAt: 0, Length: 3},
			{Velocity: 80, Note: 64, OnAt: 4, Length: 1},
		}},
		Sequence: []sequencer.SequenceEntry{{Pos: 0, ID: 0}},
	}
	s, err := Build(testProject(st), Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []noteMsg{{0, true, 64, 100}, {4, false, 64, 100}, {4, true, 64, 80}, {6, false, 64, 80}}
	if got := notesOf(s.Tracks[1]); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got  %v\nwant %v", got, want)
	}
}

type discard struct{}

func (discard) QueueNoteOn(int, int, int)     {}
func (discard) QueueNoteOff(int, int, int)    {}
func (discard) QueueController(int, int, int) {}

func recordedGesture() sequencer.State {
	p := pad.New()
	p.Mode = pad.ModeNormal
	p.SetRecord(true)
	touches := map[int]struct {
		kind pad.EventKind
		x    int
	}{
		0: {pad.Press, 2*512 + 10},
		4: {pad.Slide, 4*512 + 10},
		6: {pad.Release, 4*512 + 10},
	}
	for at := 0; at < 10; at++ {
		if tc, ok := touches[at]; ok {
			p.Enqueue(0, tc.kind, tc.x, 896)
		}
		p.Process(false, at, discard{})
	}
	p.SetRecord(false)
	return sequencer.State{Name: "pad", Pad: p.Configuration, Sessions: p.Sessions()}
}

func TestIncludePad(t *testing.T) {
	st := recordedGesture()
	if len(st.Sessions) != 1 {
		t.Fatalf("sessions = %d", len(st.Sessions))
	}

	s, err := Build(testProject(st), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Tracks) != 1 {
		t.Fatalf("pad track exported without IncludePad")
	}

	s, err = Build(testProject(st), Options{IncludePad: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Tracks) != 2 {
		t.Fatalf("tracks = %d", len(s.Tracks))
	}
	want := []noteMsg{{0, true, 52, 100}, {4, true, 55, 100}, {5, false, 52, 100}, {7, false, 55, 100}}
	if got := notesOf(s.Tracks[1]); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got  %v\nwant %v", got, want)
	}
}

func TestBuildRejectsBadTempo(t *testing.T) {
	p := project.New()
	p.LPB = 0
	if _, err := Build(p, Options{}); !errors.Is(err, sequencer.ErrOutOfSpec) {
		t.Fatalf("expected ErrOutOfSpec, got %v", err)
	}
	p.LPB, p.BPM = 4, 0
	if _, err := Build(p, Options{}); !errors.Is(err, sequencer.ErrOutOfSpec) {
		t.Fatalf("expected ErrOutOfSpec for bpm 0, got %v", err)
	}
}
