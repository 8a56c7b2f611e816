// Package midiexport writes a project's sequences as a format 1 standard
// MIDI file, one track per sequencer.
package midiexport

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/padseq-go/internal/debug"
	"github.com/cbegin/padseq-go/internal/loop"
	"github.com/cbegin/padseq-go/internal/pad"
	"github.com/cbegin/padseq-go/internal/project"
	"github.com/cbegin/padseq-go/internal/scale"
	"github.com/cbegin/padseq-go/internal/sequencer"
	"github.com/cbegin/padseq-go/internal/tick"
)

const (
	Copyright = "Copyrighted Material"
	Cue       = "Created by padseq"
)

type Options struct {
	// IncludePad renders each sequencer's recorded pad sessions into its
	// track.
	IncludePad bool
	// Scales maps pad positions to notes. Defaults to scale.Default().
	Scales scale.Service
}

// timedNote is a note at an absolute tick.
type timedNote struct {
	on   int
	note loop.NoteEntry
}

// Build converts p. Sequencers that produce no notes get no track.
func Build(p *project.Project, opts Options) (*smf.SMF, error) {
	if opts.Scales == nil {
		opts.Scales = scale.Default()
	}
	if p.LPB <= 0 || p.BPM <= 0 {
		return nil, errors.Wrapf(sequencer.ErrOutOfSpec, "bpm %d lpb %d", p.BPM, p.LPB)
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(tick.PerLine * p.LPB)

	var info smf.Track
	info.Add(0, smf.MetaCopyright(Copyright))
	info.Add(0, smf.MetaCuepoint(Cue))
	info.Add(0, smf.MetaTempo(float64(p.BPM)))
	info.Add(0, smf.MetaTimeSig(4, 4, 24, 8))
	info.Close(0)
	if err := s.Add(info); err != nil {
		return nil, errors.Wrap(err, "add info track")
	}

	for _, st := range p.Sequencers {
		notes := sequenceNotes(st)
		if opts.IncludePad && len(st.Sessions) > 0 {
			notes = append(notes, padNotes(st, opts.Scales)...)
		}
		if len(notes) == 0 {
			debug.Log("midiexport", "%s: no notes, track dropped", st.Name)
			continue
		}
		if err := s.Add(buildTrack(st.Name, notes)); err != nil {
			return nil, errors.Wrapf(err, "add track %s", st.Name)
		}
	}
	return s, nil
}

func Write(w io.Writer, p *project.Project, opts Options) error {
	s, err := Build(p, opts)
	if err != nil {
		return err
	}
	_, err = s.WriteTo(w)
	return errors.Wrap(err, "write midi")
}

func WriteFile(path string, p *project.Project, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := Write(f, p, opts); err != nil {
		f.Close()
		return err
	}
	return errors.WithStack(f.Close())
}

// sequenceNotes places every loop at the line its sequence entry names. A
// loop plays until the next entry takes over, so notes starting at or after
// that point are not heard.
func sequenceNotes(st sequencer.State) []timedNote {
	entries := append([]sequencer.SequenceEntry(nil), st.Sequence...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Pos < entries[j].Pos })

	var out []timedNote
	for i, e := range entries {
		if e.ID < 0 || e.ID >= len(st.Loops) {
			continue
		}
		start := tick.At(e.Pos, 0)
		end := -1
		if i+1 < len(entries) {
			end = tick.At(entries[i+1].Pos, 0)
		}
		for _, n := range st.Loops[e.ID] {
			on := start + n.OnAt
			if end >= 0 && on >= end {
				continue
			}
			out = append(out, timedNote{on: on, note: n})
		}
	}
	return out
}

// padNotes replays the recorded sessions offline.
func padNotes(st sequencer.State, scales scale.Service) []timedNote {
	p := pad.New(pad.WithScales(scales))
	p.Configuration = st.Pad
	p.SetArpPattern(st.Pad.ArpPattern)
	p.LoadSessions(st.Sessions)

	l := loop.New()
	p.ExportToLoop(0, -1, l)

	var out []timedNote
	for _, n := range l.Notes() {
		out = append(out, timedNote{on: n.OnAt, note: n})
	}
	return out
}

// buildTrack emits the notes in time order. A note is released length+1
// ticks after it started, as during playback. Pending releases are keyed
// by tick and go out before any note starting on the same tick.
func buildTrack(name string, notes []timedNote) smf.Track {
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].on < notes[j].on })

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(name))

	offs := map[int][]loop.NoteEntry{}
	last := 0
	emit := func(at int, msg midi.Message) {
		tr.Add(uint32(at-last), msg)
		last = at
	}
	flushUntil := func(limit int) {
		for len(offs) > 0 {
			next := -1
			for at := range offs {
				if next < 0 || at < next {
					next = at
				}
			}
			if next > limit {
				return
			}
			for _, n := range offs[next] {
				emit(next, midi.NoteOffVelocity(uint8(n.Channel), uint8(n.Note), uint8(n.Velocity)))
			}
			delete(offs, next)
		}
	}

	for _, tn := range notes {
		flushUntil(tn.on)
		n := tn.note.Masked()
		emit(tn.on, midi.NoteOn(uint8(n.Channel), uint8(n.Note), uint8(n.Velocity)))
		off := tn.on + n.Length + 1
		offs[off] = append(offs[off], n)
	}
	flushUntil(int(^uint(0) >> 1))
	tr.Close(0)
	return tr
}
