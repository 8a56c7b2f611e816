package loop

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type sent struct {
	tick      int
	kind      string
	note, val int
	channel   int
}

type recorder struct {
	tick   int
	events []sent
}

func (r *recorder) QueueNoteOn(note, vel, ch int) {
	r.events = append(r.events, sent{r.tick, "on", note, vel, ch})
}

func (r *recorder) QueueNoteOff(note, vel, ch int) {
	r.events = append(r.events, sent{r.tick, "off", note, vel, ch})
}

func (r *recorder) QueueController(ctrl, val, ch int) {
	r.events = append(r.events, sent{r.tick, "cc", ctrl, val, ch})
}

func play(l *Loop, ticks int, mute bool) *recorder {
	r := &recorder{}
	l.StartToPlay()
	for r.tick = 0; r.tick < ticks; r.tick++ {
		l.Process(mute, r)
	}
	return r
}

func TestSingleNotePlayback(t *testing.T) {
	l := New()
	l.Insert(NoteEntry{Channel: 0, Velocity: 100, Note: 60, OnAt: 0, Length: 4})
	r := play(l, 11, false)
	want := []sent{
		{0, "on", 60, 100, 0},
		{5, "off", 60, 0x80, 0},
	}
	if fmt.Sprint(r.events) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", r.events, want)
	}
	if l.Active() != 0 {
		t.Fatalf("active slots left: %d", l.Active())
	}
}

func TestEmptyLoopIsSilent(t *testing.T) {
	l := New()
	r := play(l, 64, false)
	if len(r.events) != 0 || l.Active() != 0 {
		t.Fatalf("empty loop emitted %v", r.events)
	}
}

func TestInsertKeepsTickOrder(t *testing.T) {
	l := New()
	ticks := []int{12, 3, 7, 3, 0, 12, 5}
	for i, on := range ticks {
		l.Insert(NoteEntry{Note: i, OnAt: on, Length: 1})
	}
	notes := l.Notes()
	for i := 1; i < len(notes); i++ {
		if notes[i].OnAt < notes[i-1].OnAt {
			t.Fatalf("order broken at %d: %v", i, notes)
		}
	}
	// equal ticks keep insertion order
	if notes[1].Note != 1 || notes[2].Note != 3 {
		t.Fatalf("ties reordered: %v", notes)
	}
}

func TestActiveSlotsBound(t *testing.T) {
	l := New()
	for i := 0; i < MaxActiveNotes+4; i++ {
		l.Insert(NoteEntry{Note: 40 + i, Velocity: 90, OnAt: 0, Length: 8})
	}
	l.Insert(NoteEntry{Note: 100, Velocity: 90, OnAt: 1, Length: 0})
	r := play(l, 2, false)
	ons := 0
	for _, e := range r.events {
		if e.kind == "on" {
			ons++
		}
	}
	if ons != MaxActiveNotes {
		t.Fatalf("expected %d note-ons, got %d", MaxActiveNotes, ons)
	}
	if l.Position() != 2 {
		t.Fatalf("position did not advance: %d", l.Position())
	}
}

func TestMutedLoopAdvances(t *testing.T) {
	l := New()
	l.Insert(NoteEntry{Note: 60, OnAt: 0, Length: 1})
	l.Insert(NoteEntry{Note: 62, OnAt: 2, Length: 1})
	r := play(l, 4, true)
	if len(r.events) != 0 {
		t.Fatalf("muted loop emitted %v", r.events)
	}
}

func TestDeleteAndUpdate(t *testing.T) {
	l := New()
	a := l.Insert(NoteEntry{Note: 60, OnAt: 0, Length: 1})
	b := l.Insert(NoteEntry{Note: 62, OnAt: 4, Length: 1})
	if err := l.Update(b, NoteEntry{Note: 200, Velocity: 300, Channel: 17, OnAt: 4, Length: 2}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := l.Get(b)
	if got.Note != 200&0x7f || got.Velocity != 300&0x7f || got.Channel != 1 {
		t.Fatalf("update not masked: %v", got)
	}
	if err := l.Delete(a); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := l.Delete(a); !errors.Is(err, ErrNoSuchNote) {
		t.Fatalf("second delete = %v", err)
	}
	c := l.Insert(NoteEntry{Note: 64, OnAt: 1})
	if err := l.Update(a, NoteEntry{}); !errors.Is(err, ErrNoSuchNote) {
		t.Fatalf("stale id reused slot of %v: %v", c, err)
	}
}

func TestUpdateKeepsTickOrder(t *testing.T) {
	l := New()
	a := l.Insert(NoteEntry{Note: 60, Velocity: 100, OnAt: 0, Length: 1})
	l.Insert(NoteEntry{Note: 62, Velocity: 100, OnAt: 8, Length: 1})
	if err := l.Update(a, NoteEntry{Note: 60, Velocity: 100, OnAt: 12, Length: 1}); err != nil {
		t.Fatalf("update: %v", err)
	}
	notes := l.Notes()
	if len(notes) != 2 || notes[0].OnAt != 8 || notes[1].OnAt != 12 {
		t.Fatalf("notes = %v, want on=8 then on=12", notes)
	}
	if ids := l.NoteIDs(); ids[1] != a {
		t.Fatalf("moved note lost its id: %v", ids)
	}
	var ons [][2]int
	for _, s := range play(l, 16, false).events {
		if s.kind == "on" {
			ons = append(ons, [2]int{s.tick, s.note})
		}
	}
	if !reflect.DeepEqual(ons, [][2]int{{8, 62}, {12, 60}}) {
		t.Fatalf("ons = %v", ons)
	}
}

func TestUpdateMidPass(t *testing.T) {
	l := New()
	a := l.Insert(NoteEntry{Note: 60, Velocity: 100, OnAt: 2, Length: 1})
	l.Insert(NoteEntry{Note: 62, Velocity: 100, OnAt: 8, Length: 1})
	r := &recorder{}
	l.StartToPlay()
	for ; r.tick < 4; r.tick++ {
		l.Process(false, r)
	}
	// already played at 2; pulled forward again to 6 it sounds once more
	if err := l.Update(a, NoteEntry{Note: 60, Velocity: 100, OnAt: 6, Length: 1}); err != nil {
		t.Fatalf("update: %v", err)
	}
	for ; r.tick < 12; r.tick++ {
		l.Process(false, r)
	}
	var ons [][2]int
	for _, s := range r.events {
		if s.kind == "on" {
			ons = append(ons, [2]int{s.tick, s.note})
		}
	}
	if !reflect.DeepEqual(ons, [][2]int{{2, 60}, {6, 60}, {8, 62}}) {
		t.Fatalf("ons = %v", ons)
	}
}

func TestClearAndCopy(t *testing.T) {
	src := New()
	src.Insert(NoteEntry{Note: 60, OnAt: 0, Length: 1})
	src.Insert(NoteEntry{Note: 64, OnAt: 8, Length: 1})
	dst := New()
	id := dst.Insert(NoteEntry{Note: 1})
	dst.CopyFrom(src)
	if dst.Len() != 2 || dst.Notes()[1].Note != 64 {
		t.Fatalf("copy = %v", dst.Notes())
	}
	if _, err := dst.Get(id); !errors.Is(err, ErrNoSuchNote) {
		t.Fatalf("old id survived copy")
	}
	old := dst.Clear()
	if dst.Len() != 0 || old.Len() != 2 {
		t.Fatalf("clear: now %d, detached %d", dst.Len(), old.Len())
	}
}

func TestClearWhileSoundingStillReleases(t *testing.T) {
	l := New()
	l.Insert(NoteEntry{Note: 60, Velocity: 1, OnAt: 0, Length: 0})
	r := &recorder{}
	l.StartToPlay()
	l.Process(false, r)
	l.Clear()
	r.tick = 1
	l.Process(false, r)
	if len(r.events) != 2 || r.events[1].kind != "off" {
		t.Fatalf("events = %v", r.events)
	}
}
