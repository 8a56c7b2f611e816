package project

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/cbegin/padseq-go/internal/loop"
	"github.com/cbegin/padseq-go/internal/pad"
	"github.com/cbegin/padseq-go/internal/sequencer"
)

var bg = context.Background()

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := Demo()
	var buf bytes.Buffer
	if err := Encode(&buf, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := buf.String()
	for _, frag := range []string{`<project uid="`, `<loopregion enabled="true"`, `<siblingmachine name="lead-synth">`, `<entry pos="4" id="1">`, `<envelope id="volume" enabled="true" coarse="7" fine="39">`} {
		if !strings.Contains(out, frag) {
			t.Fatalf("missing %q in\n%s", frag, out)
		}
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch\ngot  %+v\nwant %+v", got, want)
	}
}

const legacyDoc = `<?xml version="1.0"?>
<project bpm="90">
  <sequencer name="old" level="4">
    <siblingmachine name="synth"/>
    <loop id="2">
      <note channel="1" note="60" on="2" on_tick="3" length="1"/>
      <note channel="1" note="61" velocity="40" on_tick="5" length="-1"/>
      <note channel="1" note="62" velocity="40" on_tick="9" length="4"/>
    </loop>
    <sequence>
      <entry pos="0" id="2"/>
      <entry pos="4" id="7"/>
    </sequence>
    <pad>
      <c m="0" c="1" s="3" o="5" arp="0"/>
      <m f="1">
        <d x="10" y="20" t="40"/>
        <d x="11" y="20" t="44"/>
        <d x="12" y="20" t="38"/>
      </m>
    </pad>
    <envelope id="cutoff" enabled="true">
      <p t="16" y="100"/>
    </envelope>
  </sequencer>
</project>
`

func TestDecodeLegacyDocument(t *testing.T) {
	p, err := Decode(strings.NewReader(legacyDoc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.UID == uuid.Nil {
		t.Fatalf("expected a fresh uid")
	}
	if p.BPM != 90 || p.LPB != DefaultLPB || p.Loop.Length != DefaultLoopLength {
		t.Fatalf("transport defaults not applied: %+v", p)
	}
	st, ok := p.Sequencer("old")
	if !ok {
		t.Fatalf("sequencer missing")
	}
	if len(st.Loops) != 3 || len(st.Loops[0]) != 0 {
		t.Fatalf("loops = %+v", st.Loops)
	}
	want := []loop.NoteEntry{
		{Channel: 1, Velocity: 127, Note: 60, OnAt: 2<<4 | 3, Length: 16},
		{Channel: 1, Velocity: 40, Note: 62, OnAt: 9, Length: 4},
	}
	if !reflect.DeepEqual(st.Loops[2], want) {
		t.Fatalf("notes = %+v", st.Loops[2])
	}
	if !reflect.DeepEqual(st.Sequence, []sequencer.SequenceEntry{{Pos: 0, ID: 2}}) {
		t.Fatalf("sequence = %+v", st.Sequence)
	}
	if st.Pad.Chord != pad.ChordTriad || st.Pad.Scale != 3 || st.Pad.Octave != 5 || st.Pad.Coarse != -1 || st.Pad.Fine != -1 {
		t.Fatalf("pad config = %+v", st.Pad)
	}
	if len(st.Sessions) != 1 {
		t.Fatalf("sessions = %+v", st.Sessions)
	}
	s := st.Sessions[0]
	if s.Start != 40 || len(s.Motions) != 1 || s.Motions[0].Finger != 1 {
		t.Fatalf("session = %+v", s)
	}
	if got := s.Motions[0].Samples; !reflect.DeepEqual(got, []pad.Sample{{X: 10, Y: 20, T: 0}, {X: 11, Y: 20, T: 4}}) {
		t.Fatalf("samples = %+v", got)
	}
	if len(st.Envelopes) != 1 || st.Envelopes[0].Coarse != -1 || st.Envelopes[0].Fine != -1 {
		t.Fatalf("envelopes = %+v", st.Envelopes)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(strings.NewReader("<project><sequencer>")); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "songs", "demo.xml")
	want := Demo()
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.UID != want.UID || len(got.Sequencers) != 2 {
		t.Fatalf("got %+v", got)
	}
	if _, err := Load(filepath.Join(dir, "missing.xml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestApplyCapture(t *testing.T) {
	eng, err := sequencer.NewEngine(48000, sequencer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	demo := Demo()
	var bound []string
	bind := func(st sequencer.State) (sequencer.Controllers, sequencer.Instrument) {
		bound = append(bound, st.Sibling)
		return sequencer.GeneralMIDI, nil
	}
	if err := demo.Apply(bg, eng, bind); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !reflect.DeepEqual(bound, []string{"lead-synth", "bass-synth"}) {
		t.Fatalf("bound = %v", bound)
	}
	// a second apply restores in place
	if err := demo.Apply(bg, eng, bind); err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if len(bound) != 2 {
		t.Fatalf("sequencers were recreated: %v", bound)
	}

	got := New()
	if err := got.Capture(bg, eng); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if got.BPM != 110 || !got.Loop.Enabled || got.Loop.Length != 16 {
		t.Fatalf("transport = %+v", got)
	}
	if len(got.Sequencers) != 2 {
		t.Fatalf("sequencers = %d", len(got.Sequencers))
	}
	for i, st := range got.Sequencers {
		w := demo.Sequencers[i]
		if st.Name != w.Name || st.Sibling != w.Sibling {
			t.Fatalf("identity %s/%s", st.Name, st.Sibling)
		}
		if !reflect.DeepEqual(st.Loops, w.Loops) {
			t.Fatalf("%s loops\ngot  %+v\nwant %+v", st.Name, st.Loops, w.Loops)
		}
		if !reflect.DeepEqual(st.Sequence, w.Sequence) {
			t.Fatalf("%s sequence = %+v", st.Name, st.Sequence)
		}
		if len(st.Sessions) != len(w.Sessions) {
			t.Fatalf("%s sessions = %d", st.Name, len(st.Sessions))
		}
	}

	lead, _ := got.Sequencer("lead")
	var volume *sequencer.EnvelopeState
	for i := range lead.Envelopes {
		if lead.Envelopes[i].Name == "volume" {
			volume = &lead.Envelopes[i]
		}
	}
	if volume == nil || !volume.Enabled || len(volume.Points) != 3 {
		t.Fatalf("volume envelope = %+v", volume)
	}
}

func TestApplyRejectsBadTransport(t *testing.T) {
	eng, err := sequencer.NewEngine(48000, sequencer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	p := New()
	p.BPM = 1000
	err = p.Apply(bg, eng, func(sequencer.State) (sequencer.Controllers, sequencer.Instrument) { return nil, nil })
	if err == nil {
		t.Fatalf("expected an out of spec error")
	}
}
