package project

import (
	"encoding/xml"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cbegin/padseq-go/internal/debug"
	"github.com/cbegin/padseq-go/internal/envelope"
	"github.com/cbegin/padseq-go/internal/event"
	"github.com/cbegin/padseq-go/internal/loop"
	"github.com/cbegin/padseq-go/internal/pad"
	"github.com/cbegin/padseq-go/internal/sequencer"
	"github.com/cbegin/padseq-go/internal/tick"
)

// Level is the document revision written by Encode. Level 5 moved pad
// motions into sessions with relative sample times, level 6 stored note
// positions in ticks.
const Level = 6

const levelSessions = 5

type xmlProject struct {
	XMLName    xml.Name       `xml:"project"`
	UID        string         `xml:"uid,attr"`
	BPM        int            `xml:"bpm,attr"`
	LPB        int            `xml:"lpb,attr"`
	Shuffle    int            `xml:"shuffle,attr"`
	Loop       xmlLoopRegion  `xml:"loopregion"`
	Sequencers []xmlSequencer `xml:"sequencer"`
}

type xmlLoopRegion struct {
	Enabled bool `xml:"enabled,attr"`
	Start   int  `xml:"start,attr"`
	Length  int  `xml:"length,attr"`
}

type xmlSequencer struct {
	Name      string        `xml:"name,attr"`
	Level     *int          `xml:"level,attr,omitempty"`
	Sibling   xmlSibling    `xml:"siblingmachine"`
	Loops     []xmlLoop     `xml:"loop"`
	Sequence  []xmlEntry    `xml:"sequence>entry"`
	Pad       xmlPad        `xml:"pad"`
	Envelopes []xmlEnvelope `xml:"envelope"`
}

type xmlSibling struct {
	Name string `xml:"name,attr"`
}

type xmlLoop struct {
	ID    int       `xml:"id,attr"`
	Notes []xmlNote `xml:"note"`
}

// Missing attributes decode as nil so the historical defaults can apply.
type xmlNote struct {
	Channel  int  `xml:"channel,attr"`
	Program  int  `xml:"program,attr"`
	Velocity *int `xml:"velocity,attr"`
	Note     int  `xml:"note,attr"`
	On       *int `xml:"on,attr,omitempty"`
	OnTick   int  `xml:"on_tick,attr"`
	Length   *int `xml:"length,attr"`
}

type xmlEntry struct {
	Pos int `xml:"pos,attr"`
	ID  int `xml:"id,attr"`
}

type xmlConfig struct {
	Mode   int  `xml:"m,attr"`
	Chord  int  `xml:"c,attr"`
	Scale  int  `xml:"s,attr"`
	Octave int  `xml:"o,attr"`
	Arp    int  `xml:"arp,attr"`
	Coarse *int `xml:"cc,attr"`
	Fine   *int `xml:"cf,attr"`
}

type xmlPad struct {
	Config   *xmlConfig   `xml:"c"`
	Sessions []xmlSession `xml:"s"`
	// Motions directly under the pad are the pre-session layout.
	Motions []xmlMotion `xml:"m"`
}

type xmlSession struct {
	Start   int         `xml:"start,attr"`
	Motions []xmlMotion `xml:"m"`
}

type xmlMotion struct {
	Finger  int         `xml:"f,attr"`
	Start   int         `xml:"start,attr"`
	Config  *xmlConfig  `xml:"c"`
	Samples []xmlSample `xml:"d"`
}

type xmlSample struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
	T int `xml:"t,attr"`
}

type xmlEnvelope struct {
	ID      string     `xml:"id,attr"`
	Enabled bool       `xml:"enabled,attr"`
	Coarse  *int       `xml:"coarse,attr"`
	Fine    *int       `xml:"fine,attr"`
	Points  []xmlPoint `xml:"p"`
}

type xmlPoint struct {
	T int `xml:"t,attr"`
	Y int `xml:"y,attr"`
}

func intp(v int) *int { return &v }

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Encode writes p as an indented XML document.
func Encode(w io.Writer, p *Project) error {
	doc := xmlProject{
		UID:     p.UID.String(),
		BPM:     p.BPM,
		LPB:     p.LPB,
		Shuffle: p.Shuffle,
		Loop:    xmlLoopRegion(p.Loop),
	}
	for _, st := range p.Sequencers {
		doc.Sequencers = append(doc.Sequencers, encodeSequencer(st))
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.WithStack(err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encode project")
	}
	_, err := io.WriteString(w, "\n")
	return errors.WithStack(err)
}

func encodeConfig(c pad.Configuration) *xmlConfig {
	return &xmlConfig{
		Mode:   int(c.Mode),
		Chord:  int(c.Chord),
		Scale:  c.Scale,
		Octave: c.Octave,
		Arp:    c.ArpPattern,
		Coarse: intp(c.Coarse),
		Fine:   intp(c.Fine),
	}
}

func encodeSequencer(st sequencer.State) xmlSequencer {
	xs := xmlSequencer{
		Name:    st.Name,
		Level:   intp(Level),
		Sibling: xmlSibling{Name: st.Sibling},
		Pad:     xmlPad{Config: encodeConfig(st.Pad)},
	}
	for id, notes := range st.Loops {
		xl := xmlLoop{ID: id}
		for _, n := range notes {
			xl.Notes = append(xl.Notes, xmlNote{
				Channel:  n.Channel,
				Program:  n.Program,
				Velocity: intp(n.Velocity),
				Note:     n.Note,
				OnTick:   n.OnAt,
				Length:   intp(n.Length),
			})
		}
		xs.Loops = append(xs.Loops, xl)
	}
	for _, e := range st.Sequence {
		xs.Sequence = append(xs.Sequence, xmlEntry(e))
	}
	for _, s := range st.Sessions {
		xss := xmlSession{Start: s.Start}
		for _, m := range s.Motions {
			xm := xmlMotion{Finger: m.Finger, Start: m.Start, Config: encodeConfig(m.Config)}
			for _, smp := range m.Samples {
				xm.Samples = append(xm.Samples, xmlSample(smp))
			}
			xss.Motions = append(xss.Motions, xm)
		}
		xs.Pad.Sessions = append(xs.Pad.Sessions, xss)
	}
	for _, e := range st.Envelopes {
		xe := xmlEnvelope{ID: e.Name, Enabled: e.Enabled, Coarse: intp(e.Coarse), Fine: intp(e.Fine)}
		for _, p := range e.Points {
			xe.Points = append(xe.Points, xmlPoint(p))
		}
		xs.Envelopes = append(xs.Envelopes, xe)
	}
	return xs
}

// Decode reads a document of any level. A missing or malformed uid gets a
// fresh one.
func Decode(r io.Reader) (*Project, error) {
	doc := xmlProject{
		BPM:  DefaultBPM,
		LPB:  DefaultLPB,
		Loop: xmlLoopRegion{Length: DefaultLoopLength},
	}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode project")
	}
	p := New()
	if uid, err := uuid.Parse(doc.UID); err == nil {
		p.UID = uid
	} else {
		debug.Log("project", "replacing uid %q", doc.UID)
	}
	p.BPM, p.LPB, p.Shuffle = doc.BPM, doc.LPB, doc.Shuffle
	p.Loop = LoopRegion(doc.Loop)
	for _, xs := range doc.Sequencers {
		p.Sequencers = append(p.Sequencers, decodeSequencer(xs))
	}
	return p, nil
}

func decodeConfig(x *xmlConfig, def pad.Configuration) pad.Configuration {
	if x == nil {
		return def
	}
	return pad.Configuration{
		Mode:       pad.Mode(x.Mode),
		Chord:      pad.ChordMode(x.Chord),
		Scale:      x.Scale,
		Octave:     x.Octave,
		ArpPattern: x.Arp,
		Coarse:     intOr(x.Coarse, sequencer.NoController),
		Fine:       intOr(x.Fine, sequencer.NoController),
	}
}

func decodeSequencer(xs xmlSequencer) sequencer.State {
	level := intOr(xs.Level, Level)
	st := sequencer.State{Name: xs.Name, Sibling: xs.Sibling.Name}

	for _, xl := range xs.Loops {
		if xl.ID < 0 || xl.ID >= loop.MaxLoops {
			debug.Log("project", "%s: dropping loop %d", xs.Name, xl.ID)
			continue
		}
		for len(st.Loops) <= xl.ID {
			st.Loops = append(st.Loops, nil)
		}
		st.Loops[xl.ID] = append(st.Loops[xl.ID], decodeNotes(xl.Notes)...)
	}
	for _, e := range xs.Sequence {
		if e.Pos < 0 || e.ID < 0 || e.ID >= len(st.Loops) {
			debug.Log("project", "%s: dropping sequence entry %d -> %d", xs.Name, e.Pos, e.ID)
			continue
		}
		st.Sequence = append(st.Sequence, sequencer.SequenceEntry(e))
	}

	st.Pad = decodeConfig(xs.Pad.Config, pad.DefaultConfiguration())
	if level < levelSessions {
		st.Sessions = decodeLegacyMotions(xs.Pad.Motions, st.Pad)
	} else {
		for _, xss := range xs.Pad.Sessions {
			rec := pad.SessionRecord{Start: xss.Start}
			for _, xm := range xss.Motions {
				mr := pad.MotionRecord{Finger: xm.Finger, Start: xm.Start, Config: decodeConfig(xm.Config, st.Pad)}
				for _, d := range xm.Samples {
					mr.Samples = append(mr.Samples, pad.Sample(d))
				}
				rec.Motions = append(rec.Motions, mr)
			}
			st.Sessions = append(st.Sessions, rec)
		}
	}

	for _, xe := range xs.Envelopes {
		es := sequencer.EnvelopeState{
			Name:    xe.ID,
			Enabled: xe.Enabled,
			Coarse:  intOr(xe.Coarse, sequencer.NoController),
			Fine:    intOr(xe.Fine, sequencer.NoController),
		}
		for _, p := range xe.Points {
			if p.T < 0 {
				continue
			}
			es.Points = append(es.Points, envelope.Point{T: p.T, Y: event.Clamp(p.Y, 0, envelope.MaxValue)})
		}
		st.Envelopes = append(st.Envelopes, es)
	}
	return st
}

// decodeNotes accepts both note layouts. Notes carrying an "on" line keep
// their length in lines. Notes without a usable length are skipped.
func decodeNotes(xn []xmlNote) []loop.NoteEntry {
	var out []loop.NoteEntry
	for _, x := range xn {
		n := loop.NoteEntry{
			Channel:  x.Channel,
			Program:  x.Program,
			Velocity: intOr(x.Velocity, 127),
			Note:     x.Note,
			OnAt:     x.OnTick,
			Length:   intOr(x.Length, -1),
		}
		if x.On != nil && *x.On != -1 {
			n.OnAt = tick.At(*x.On, x.OnTick)
			n.Length = tick.At(n.Length, 0)
		}
		if n.Length < 0 || n.OnAt < 0 {
			continue
		}
		out = append(out, n.Masked())
	}
	return out
}

// decodeLegacyMotions turns motions with absolute sample times into one
// session each, starting at the motion's first sample.
func decodeLegacyMotions(xms []xmlMotion, def pad.Configuration) []pad.SessionRecord {
	var out []pad.SessionRecord
	for _, xm := range xms {
		if len(xm.Samples) == 0 {
			continue
		}
		first := xm.Samples[0].T
		mr := pad.MotionRecord{Finger: xm.Finger, Config: decodeConfig(xm.Config, def)}
		for _, d := range xm.Samples {
			rel := d.T - first
			if rel < 0 {
				continue
			}
			mr.Samples = append(mr.Samples, pad.Sample{X: d.X, Y: d.Y, T: rel})
		}
		out = append(out, pad.SessionRecord{Start: first, Motions: []pad.MotionRecord{mr}})
	}
	return out
}
