package sequencer

import (
	"context"

	"github.com/cbegin/padseq-go/internal/envelope"
	"github.com/cbegin/padseq-go/internal/loop"
	"github.com/cbegin/padseq-go/internal/pad"
)

// SequenceEntry places loop ID at line Pos.
type SequenceEntry struct {
	Pos int
	ID  int
}

// EnvelopeState is the stored form of a controller envelope.
type EnvelopeState struct {
	Name    string
	Enabled bool
	Coarse  int
	Fine    int
	Points  []envelope.Point
}

// State is everything a document keeps about one sequencer.
type State struct {
	Name    string
	Sibling string

	// Loops is indexed by loop id.
	Loops     [][]loop.NoteEntry
	Sequence  []SequenceEntry
	Pad       pad.Configuration
	Sessions  []pad.SessionRecord
	Envelopes []EnvelopeState
}

// Snapshot copies the sequencer's editable content.
func (s *Sequencer) Snapshot(ctx context.Context) (State, error) {
	st := State{Name: s.name, Sibling: s.sibling}
	err := s.do(ctx, func() error {
		for id := 0; id < s.store.Len(); id++ {
			l, err := s.store.Get(id)
			if err != nil {
				return err
			}
			st.Loops = append(st.Loops, l.Notes())
		}
		for _, pos := range s.sequence.Used() {
			st.Sequence = append(st.Sequence, SequenceEntry{Pos: pos, ID: s.sequence.At(pos)})
		}
		st.Pad = s.pad.Configuration
		st.Sessions = s.pad.Sessions()
		for _, name := range s.envNames {
			e := s.envelopes[name]
			st.Envelopes = append(st.Envelopes, EnvelopeState{
				Name:    name,
				Enabled: e.Enabled,
				Coarse:  e.Coarse,
				Fine:    e.Fine,
				Points:  e.Points(),
			})
		}
		return nil
	})
	return st, err
}

// Restore replaces loops, sequence, pad content and envelopes with st. The
// store is sized for the highest loop id. Envelopes for controllers the
// sibling still offers keep their current MIDI mapping.
func (s *Sequencer) Restore(ctx context.Context, st State) error {
	store := loop.NewStoreSize(len(st.Loops))
	for id, notes := range st.Loops {
		l := loop.New()
		l.ReplaceNotes(notes)
		if err := store.Put(id, l); err != nil {
			return err
		}
	}
	if store.Len() == 0 {
		if _, err := store.Add(nil); err != nil {
			return err
		}
	}
	seq := loop.NewSequence()
	for _, e := range st.Sequence {
		if err := seq.Set(store, e.Pos, e.ID); err != nil {
			return err
		}
	}
	envs := make(map[string]*envelope.Envelope, len(st.Envelopes))
	for _, es := range st.Envelopes {
		e := envelope.New()
		e.Enabled, e.Coarse, e.Fine = es.Enabled, es.Coarse, es.Fine
		for _, p := range es.Points {
			e.Set(p.T, p.Y)
		}
		envs[es.Name] = e
	}

	return s.do(ctx, func() error {
		s.store = store
		s.sequence = seq
		s.current = nil

		s.pad.Clear()
		s.pad.Reset()
		s.pad.Configuration = st.Pad
		s.pad.SetArpPattern(st.Pad.ArpPattern)
		s.pad.LoadSessions(st.Sessions)

		for name, e := range envs {
			if ctl, ok := s.controllers[name]; ok && ctl.HasMIDI() {
				e.Coarse, e.Fine = ctl.Coarse, ctl.Fine
			}
			s.envelopes[name] = e
		}
		s.createEnvelopes()
		return nil
	})
}
