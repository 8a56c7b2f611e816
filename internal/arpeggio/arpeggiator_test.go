package arpeggio

import "testing"

type note struct {
	tick int
	on   bool
	key  int
	vel  int
}

type recorder struct {
	tick  int
	notes []note
}

func (r *recorder) QueueNoteOn(n, v, _ int)      { r.notes = append(r.notes, note{r.tick, true, n, v}) }
func (r *recorder) QueueNoteOff(n, v, _ int)     { r.notes = append(r.notes, note{r.tick, false, n, v}) }
func (r *recorder) QueueController(int, int, int) {}

func run(a *Arpeggiator, ticks int) *recorder {
	r := &recorder{}
	for r.tick = 0; r.tick < ticks; r.tick++ {
		a.ProcessPattern(false, r)
	}
	return r
}

func TestLowestKeyFirst(t *testing.T) {
	a := New()
	a.EnableKey(64, 100)
	a.EnableKey(60, 100)
	a.EnableKey(67, 100)
	r := run(a, 1)
	if len(r.notes) != 1 || !r.notes[0].on || r.notes[0].key != 60 {
		t.Fatalf("first step = %v", r.notes)
	}
}

func TestPatternTiming(t *testing.T) {
	a := New()
	a.EnableKey(60, 90)
	a.EnableKey(64, 80)
	r := run(a, 33)
	want := []note{
		{0, true, 60, 90},
		{8, false, 60, 90},
		{16, true, 64, 80},
		{24, false, 64, 80},
		{32, true, 60, 90},
	}
	if len(r.notes) != len(want) {
		t.Fatalf("notes = %v", r.notes)
	}
	for i := range want {
		if r.notes[i] != want[i] {
			t.Fatalf("note %d = %v, want %v", i, r.notes[i], want[i])
		}
	}
}

func TestOctaveStepsAndClamp(t *testing.T) {
	a := New()
	a.SetPattern(3)
	a.EnableKey(5, 100)
	r := run(a, 48)
	var ons []int
	for _, n := range r.notes {
		if n.on {
			ons = append(ons, n.key)
		}
	}
	if len(ons) != 3 || ons[0] != 5 || ons[1] != 17 || ons[2] != 0 {
		t.Fatalf("ons = %v", ons)
	}
}

func TestFingerRefcount(t *testing.T) {
	a := New()
	for i := 0; i < MaxFingers; i++ {
		if got := a.EnableKey(60+i, 100); got != 60+i {
			t.Fatalf("enable %d = %d", 60+i, got)
		}
	}
	if a.EnableKey(80, 100) != -1 {
		t.Fatalf("sixth key accepted")
	}
	if a.EnableKey(62, 50) != 62 {
		t.Fatalf("held key rejected")
	}
	a.DisableKey(62)
	if len(a.Keys()) != MaxFingers {
		t.Fatalf("key dropped while still referenced: %v", a.Keys())
	}
	a.DisableKey(62)
	keys := a.Keys()
	if len(keys) != MaxFingers-1 || keys[1] != 61 || keys[2] != 63 {
		t.Fatalf("keys = %v", keys)
	}
}

func TestMuteReleasesAndStaysSilent(t *testing.T) {
	a := New()
	a.SetPattern(1)
	a.EnableKey(60, 100)
	r := &recorder{}
	a.ProcessPattern(false, r)
	for r.tick = 1; r.tick < 20; r.tick++ {
		a.ProcessPattern(true, r)
	}
	for _, n := range r.notes[1:] {
		if n.on {
			t.Fatalf("note-on while muted: %v", r.notes)
		}
	}
}

func TestNamesAndLookup(t *testing.T) {
	if BuiltInCount() != 7 {
		t.Fatalf("built-in count %d", BuiltInCount())
	}
	if Lookup("built-in #5") != 5 || Lookup("nope") != -1 {
		t.Fatalf("lookup broken")
	}
	if BuiltIn(5).Len() != 4 {
		t.Fatalf("pattern 5 has %d steps", BuiltIn(5).Len())
	}
	if len(Names()) != 7 {
		t.Fatalf("names %v", Names())
	}
}
