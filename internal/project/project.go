// Package project stores the sequencers of an engine, together with the
// clock settings, as an XML document.
package project

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cbegin/padseq-go/internal/debug"
	"github.com/cbegin/padseq-go/internal/sequencer"
)

const (
	DefaultBPM        = sequencer.DefaultBPM
	DefaultLPB        = sequencer.DefaultLPB
	DefaultLoopLength = 16
)

type LoopRegion struct {
	Enabled bool
	Start   int
	Length  int
}

// Project is one document: its identity, the transport settings and one
// State per sequencer, in engine order.
type Project struct {
	UID        uuid.UUID
	BPM        int
	LPB        int
	Shuffle    int
	Loop       LoopRegion
	Sequencers []sequencer.State
}

func New() *Project {
	return &Project{
		UID:  uuid.New(),
		BPM:  DefaultBPM,
		LPB:  DefaultLPB,
		Loop: LoopRegion{Length: DefaultLoopLength},
	}
}

// Sequencer returns the stored state named name.
func (p *Project) Sequencer(name string) (sequencer.State, bool) {
	for _, st := range p.Sequencers {
		if st.Name == name {
			return st, true
		}
	}
	return sequencer.State{}, false
}

func Load(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open project %s", path)
	}
	defer f.Close()
	p, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	debug.Log("project", "loaded %s uid=%s sequencers=%d", path, p.UID, len(p.Sequencers))
	return p, nil
}

// Save writes the document next to path first and renames it into place.
func Save(path string, p *Project) error {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create project directory")
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "save %s", path)
	}
	debug.Log("project", "saved %s uid=%s", path, p.UID)
	return nil
}

// Capture refreshes p from the engine. The UID is kept.
func (p *Project) Capture(ctx context.Context, eng *sequencer.Engine) error {
	status, err := eng.Status(ctx)
	if err != nil {
		return err
	}
	p.BPM, p.LPB, p.Shuffle = status.BPM, status.LPB, status.Shuffle
	p.Loop = LoopRegion{Enabled: status.Loop, Start: status.LoopStart, Length: status.LoopLength}

	seqs, err := eng.Sequencers(ctx)
	if err != nil {
		return err
	}
	p.Sequencers = p.Sequencers[:0]
	for _, s := range seqs {
		st, err := s.Snapshot(ctx)
		if err != nil {
			return errors.Wrapf(err, "snapshot %s", s.Name())
		}
		p.Sequencers = append(p.Sequencers, st)
	}
	return nil
}

// Binding supplies the controller table and the instrument of the sibling
// a stored sequencer drives. A nil instrument leaves the sequencer silent.
type Binding func(st sequencer.State) (sequencer.Controllers, sequencer.Instrument)

// Apply sets the engine's clock from p and creates one sequencer per stored
// state. Sequencers already present under the same name are restored in
// place.
func (p *Project) Apply(ctx context.Context, eng *sequencer.Engine, bind Binding) error {
	steps := []func() error{
		func() error { return eng.SetBPM(ctx, p.BPM) },
		func() error { return eng.SetLPB(ctx, p.LPB) },
		func() error { return eng.SetShuffle(ctx, p.Shuffle) },
		func() error { return eng.SetLoopStart(ctx, p.Loop.Start) },
		func() error { return eng.SetLoopLength(ctx, p.Loop.Length) },
		func() error { return eng.SetLoop(ctx, p.Loop.Enabled) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return errors.Wrap(err, "apply transport settings")
		}
	}

	existing, err := eng.Sequencers(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]*sequencer.Sequencer, len(existing))
	for _, s := range existing {
		byName[s.Name()] = s
	}

	for _, st := range p.Sequencers {
		s, ok := byName[st.Name]
		if !ok {
			ctls, inst := bind(st)
			s, err = eng.NewSequencer(ctx, st.Name, st.Sibling, ctls, inst)
			if err != nil {
				return errors.Wrapf(err, "create %s", st.Name)
			}
		}
		if err := s.Restore(ctx, st); err != nil {
			return errors.Wrapf(err, "restore %s", st.Name)
		}
		debug.Log("project", "applied %s (%d loops, %d sessions)", st.Name, len(st.Loops), len(st.Sessions))
	}
	return nil
}
