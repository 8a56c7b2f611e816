// Package loop stores the note timelines that the sequencer plays and the
// sequence that places them on the song grid.
package loop

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfSpec   = errors.New("loop: parameter out of spec")
	ErrNoFreeLoops = errors.New("loop: no free loops available")
	ErrNoSuchLoop  = errors.New("loop: no such loop")
	ErrNoSuchNote  = errors.New("loop: no such note")
)

// NoteEntry is one scheduled note. OnAt and Length are in ticks relative to
// the start of the loop.
type NoteEntry struct {
	Channel  int
	Program  int
	Velocity int
	Note     int
	OnAt     int
	Length   int
}

// NewNoteEntry returns an entry with the defaults used by editors: full
// velocity and an unset position.
func NewNoteEntry() NoteEntry {
	return NoteEntry{Velocity: 0x7f, OnAt: -1, Length: -1}
}

// Masked limits every MIDI field to its wire range.
func (n NoteEntry) Masked() NoteEntry {
	n.Channel &= 0x0f
	n.Program &= 0x7f
	n.Velocity &= 0x7f
	n.Note &= 0x7f
	return n
}

func (n NoteEntry) String() string {
	return fmt.Sprintf("note=%d vel=%d ch=%d on=%d len=%d", n.Note, n.Velocity, n.Channel, n.OnAt, n.Length)
}

// NoteID identifies an entry inside a Loop. An ID becomes stale once its
// entry is deleted or the loop is cleared.
type NoteID uint64

func makeID(serial uint32, index int32) NoteID {
	return NoteID(uint64(serial)<<32 | uint64(uint32(index)))
}

func (id NoteID) serial() uint32 { return uint32(id >> 32) }
func (id NoteID) index() int32  { return int32(uint32(id)) }
