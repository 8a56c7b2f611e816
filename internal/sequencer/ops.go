package sequencer

import (
	"context"
	"fmt"

	"github.com/cbegin/padseq-go/internal/arpeggio"
	"github.com/cbegin/padseq-go/internal/envelope"
	"github.com/cbegin/padseq-go/internal/loop"
	"github.com/cbegin/padseq-go/internal/pad"
	"github.com/cbegin/padseq-go/internal/tick"
)

// Note is a loop entry together with the id used to edit it.
type Note struct {
	ID loop.NoteID
	loop.NoteEntry
}

func (s *Sequencer) do(ctx context.Context, fn func() error) error {
	return s.exec.Do(ctx, fn)
}

func (s *Sequencer) GetLoopIDAt(ctx context.Context, pos int) (int, error) {
	id := loop.NotSet
	err := s.do(ctx, func() error {
		id = s.sequence.At(pos)
		return nil
	})
	return id, err
}

// GetLoopIDsAt resolves several positions in one transport round trip.
func (s *Sequencer) GetLoopIDsAt(ctx context.Context, positions []int) ([]int, error) {
	var ids []int
	err := s.do(ctx, func() error {
		ids = s.sequence.AtEach(positions)
		return nil
	})
	return ids, err
}

// SetLoopIDAt places loop id at line pos. loop.NotSet clears the position.
func (s *Sequencer) SetLoopIDAt(ctx context.Context, pos, id int) error {
	return s.do(ctx, func() error {
		return s.sequence.Set(s.store, pos, id)
	})
}

func (s *Sequencer) LoopCount(ctx context.Context) (int, error) {
	n := 0
	err := s.do(ctx, func() error {
		n = s.store.Len()
		return nil
	})
	return n, err
}

// AddLoop appends an empty loop and returns its id. It fails with
// loop.ErrNoFreeLoops once loop.MaxLoops exist.
func (s *Sequencer) AddLoop(ctx context.Context) (int, error) {
	l := loop.New()
	id := loop.NotSet
	err := s.do(ctx, func() error {
		var err error
		id, err = s.store.Add(l)
		return err
	})
	return id, err
}

// DeleteLoop removes loop id. Sequence positions that used it are cleared
// and higher ids shift down by one.
func (s *Sequencer) DeleteLoop(ctx context.Context, id int) error {
	return s.do(ctx, func() error {
		if err := s.store.Delete(id); err != nil {
			return err
		}
		s.sequence.Forget(id)
		return nil
	})
}

func (s *Sequencer) Notes(ctx context.Context, loopID int) ([]Note, error) {
	var notes []Note
	err := s.do(ctx, func() error {
		l, err := s.store.Get(loopID)
		if err != nil {
			return err
		}
		ids := l.NoteIDs()
		entries := l.Notes()
		notes = make([]Note, len(entries))
		for i := range entries {
			notes[i] = Note{ID: ids[i], NoteEntry: entries[i]}
		}
		return nil
	})
	return notes, err
}

func (s *Sequencer) InsertNote(ctx context.Context, loopID int, e loop.NoteEntry) (loop.NoteID, error) {
	var id loop.NoteID
	err := s.do(ctx, func() error {
		l, err := s.store.Get(loopID)
		if err != nil {
			return err
		}
		id = l.Insert(e.Masked())
		return nil
	})
	return id, err
}

func (s *Sequencer) DeleteNote(ctx context.Context, loopID int, id loop.NoteID) error {
	return s.do(ctx, func() error {
		l, err := s.store.Get(loopID)
		if err != nil {
			return err
		}
		return l.Delete(id)
	})
}

func (s *Sequencer) UpdateNote(ctx context.Context, loopID int, id loop.NoteID, e loop.NoteEntry) error {
	return s.do(ctx, func() error {
		l, err := s.store.Get(loopID)
		if err != nil {
			return err
		}
		return l.Update(id, e)
	})
}

func (s *Sequencer) ClearLoop(ctx context.Context, loopID int) error {
	empty := loop.NewTimeline()
	return s.do(ctx, func() error {
		l, err := s.store.Get(loopID)
		if err != nil {
			return err
		}
		l.Swap(empty)
		return nil
	})
}

// ReplaceNotes swaps in a complete note list for loopID.
func (s *Sequencer) ReplaceNotes(ctx context.Context, loopID int, entries []loop.NoteEntry) error {
	t := loop.NewTimeline(entries...)
	return s.do(ctx, func() error {
		l, err := s.store.Get(loopID)
		if err != nil {
			return err
		}
		l.Swap(t)
		return nil
	})
}

// CopyLoop replaces the notes of dst with copies of the notes of src.
func (s *Sequencer) CopyLoop(ctx context.Context, dst, src int) error {
	return s.do(ctx, func() error {
		from, err := s.store.Get(src)
		if err != nil {
			return err
		}
		to, err := s.store.Get(dst)
		if err != nil {
			return err
		}
		if from != to {
			to.CopyFrom(from)
		}
		return nil
	})
}

// ControllerEnvelope returns a copy of the envelope for controller name.
func (s *Sequencer) ControllerEnvelope(ctx context.Context, name string) (*envelope.Envelope, error) {
	var out *envelope.Envelope
	err := s.do(ctx, func() error {
		e, ok := s.envelopes[name]
		if !ok {
			return fmt.Errorf("envelope %q: %w", name, ErrNoSuchController)
		}
		out = e.Clone()
		return nil
	})
	return out, err
}

// UpdateControllerEnvelope replaces the points and enabled flag of the
// envelope for controller name with those of e.
func (s *Sequencer) UpdateControllerEnvelope(ctx context.Context, name string, e *envelope.Envelope) error {
	next := e.Clone()
	return s.do(ctx, func() error {
		cur, ok := s.envelopes[name]
		if !ok {
			return fmt.Errorf("envelope %q: %w", name, ErrNoSuchController)
		}
		cur.SetTo(next)
		return nil
	})
}

// AvailableControllers lists the controllers that can carry an envelope or
// the pad's y axis.
func (s *Sequencer) AvailableControllers() []string {
	return s.controllers.MIDINames()
}

// AssignPadToController lets the pad's y axis drive controller name instead
// of velocity. Unknown names, or the empty name, unassign it.
func (s *Sequencer) AssignPadToController(ctx context.Context, name string) error {
	ctl := s.controllers.Lookup(name)
	return s.do(ctx, func() error {
		s.pad.Coarse, s.pad.Fine = ctl.Coarse, ctl.Fine
		return nil
	})
}

// SetPadArpeggioPattern selects a pattern by name and switches the pad to
// arpeggiator mode. Any other name switches to normal mode.
func (s *Sequencer) SetPadArpeggioPattern(ctx context.Context, name string) error {
	id := arpeggio.Lookup(name)
	return s.do(ctx, func() error {
		if id == -1 {
			s.pad.Mode = pad.ModeNormal
			s.pad.ArpPattern = -1
			return nil
		}
		s.pad.Mode = pad.ModeArpeggiator
		s.pad.SetArpPattern(id)
		return nil
	})
}

func (s *Sequencer) PadArpeggioPatterns() []string {
	return arpeggio.Names()
}

func (s *Sequencer) SetPadChordMode(ctx context.Context, mode pad.ChordMode) error {
	return s.do(ctx, func() error {
		s.pad.Chord = mode
		return nil
	})
}

func (s *Sequencer) SetPadOctave(ctx context.Context, octave int) error {
	if octave < 0 || octave > 9 {
		return fmt.Errorf("octave %d: %w", octave, ErrOutOfSpec)
	}
	return s.do(ctx, func() error {
		s.pad.Octave = octave
		return nil
	})
}

func (s *Sequencer) SetPadScale(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("scale %d: %w", index, ErrOutOfSpec)
	}
	return s.do(ctx, func() error {
		s.pad.Scale = index
		return nil
	})
}

func (s *Sequencer) SetPadRecord(ctx context.Context, on bool) error {
	return s.do(ctx, func() error {
		s.pad.SetRecord(on)
		return nil
	})
}

func (s *Sequencer) SetPadQuantize(ctx context.Context, on bool) error {
	return s.do(ctx, func() error {
		s.pad.SetQuantize(on)
		return nil
	})
}

func (s *Sequencer) ClearPad(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.pad.Clear()
		return nil
	})
}

// PadConfiguration returns the pad's current configuration.
func (s *Sequencer) PadConfiguration(ctx context.Context) (pad.Configuration, error) {
	var cfg pad.Configuration
	err := s.do(ctx, func() error {
		cfg = s.pad.Configuration
		return nil
	})
	return cfg, err
}

// ExportPadToLoop renders the recorded pad sessions into a loop and returns
// its id. loop.NotSet exports into a new loop. The loop is cleared first.
// While the transport loops only sessions inside the loop region are
// exported; otherwise every session is.
func (s *Sequencer) ExportPadToLoop(ctx context.Context, loopID int) (int, error) {
	if loopID == loop.NotSet {
		id, err := s.AddLoop(ctx)
		if err != nil {
			return loop.NotSet, err
		}
		loopID = id
	}
	err := s.do(ctx, func() error {
		l, err := s.store.Get(loopID)
		if err != nil {
			return err
		}
		l.Clear()
		start, stop := 0, -1
		if s.region != nil {
			if on, ls, ll := s.region.LoopRegion(); on {
				start = ls * tick.PerLine
				stop = (ls + ll) * tick.PerLine
			}
		}
		s.pad.ExportToLoop(start, stop, l)
		return nil
	})
	return loopID, err
}

// Reset stops pad playback and forgets the live gesture.
func (s *Sequencer) Reset(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.pad.Reset()
		return nil
	})
}

func (s *Sequencer) SetMute(on bool) { s.mute.Store(on) }
func (s *Sequencer) Mute() bool      { return s.mute.Load() }

// EnqueueMIDIData injects raw note and controller messages. The data is
// copied. It reports false when the inbox is full and the data was dropped.
func (s *Sequencer) EnqueueMIDIData(data []byte) bool {
	buf := append([]byte(nil), data...)
	select {
	case s.inbox <- buf:
		return true
	default:
		return false
	}
}

// EnqueuePadEvent queues a touch sample in input surface coordinates. Only
// one goroutine may enqueue pad events. It reports false when the sample
// was dropped.
func (s *Sequencer) EnqueuePadEvent(finger int, kind pad.EventKind, x, y int) bool {
	return s.pad.Enqueue(finger, kind, x, y)
}

// SetPadResolution sets the size of the input surface.
func (s *Sequencer) SetPadResolution(width, height int) {
	s.pad.SetResolution(width, height)
}
