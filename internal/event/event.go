// Package event holds the MIDI-like events emitted by the sequencing core,
// the pooled allocator they live in, and the builder that writes them into
// per-block output slots.
package event

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// Status nibbles for the messages the core produces.
const (
	StatusNoteOff       = 0x80
	StatusNoteOn        = 0x90
	StatusControlChange = 0xB0
)

// MaxLength is the largest message an Event can carry.
const MaxLength = 4

// ErrOutOfSpec is returned for requests outside the allowed parameter range.
var ErrOutOfSpec = errors.New("parameter out of spec")

// Event is one message drawn from a Pool. Events placed into a block are
// valid until the builder is bound to the next block.
type Event struct {
	Data   [MaxLength]byte
	Length int

	handle int32 // 1-based index in the owning pool
	next   int32 // next handle in the chain, 0 = end
}

func (e *Event) Status() byte  { return e.Data[0] & 0xF0 }
func (e *Event) Channel() int  { return int(e.Data[0] & 0x0F) }
func (e *Event) Data1() int    { return int(e.Data[1]) }
func (e *Event) Data2() int    { return int(e.Data[2]) }
func (e *Event) IsNoteOn() bool {
	return e.Length == 3 && e.Status() == StatusNoteOn
}
func (e *Event) IsNoteOff() bool {
	return e.Length == 3 && e.Status() == StatusNoteOff
}
func (e *Event) IsController() bool {
	return e.Length == 3 && e.Status() == StatusControlChange
}

// Message copies the event into a gomidi message. Data bytes are masked to
// seven bits so the result is always a valid wire message.
func (e *Event) Message() midi.Message {
	ch := uint8(e.Channel())
	switch {
	case e.IsNoteOn():
		return midi.NoteOn(ch, e.Data[1]&0x7f, e.Data[2]&0x7f)
	case e.IsNoteOff():
		return midi.NoteOffVelocity(ch, e.Data[1]&0x7f, e.Data[2]&0x7f)
	case e.IsController():
		return midi.ControlChange(ch, e.Data[1]&0x7f, e.Data[2]&0x7f)
	}
	msg := make(midi.Message, e.Length)
	copy(msg, e.Data[:e.Length])
	return msg
}

func (e *Event) String() string {
	switch {
	case e.IsNoteOn():
		return fmt.Sprintf("note-on ch=%d note=%d vel=%d", e.Channel(), e.Data1(), e.Data2())
	case e.IsNoteOff():
		return fmt.Sprintf("note-off ch=%d note=%d vel=%d", e.Channel(), e.Data1(), e.Data2())
	case e.IsController():
		return fmt.Sprintf("cc ch=%d ctrl=%d val=%d", e.Channel(), e.Data1(), e.Data2())
	}
	return fmt.Sprintf("raw % x", e.Data[:e.Length])
}

func (e *Event) set3(status, d1, d2 int) {
	e.Data[0] = byte(status)
	e.Data[1] = byte(d1)
	e.Data[2] = byte(d2)
	e.Data[3] = 0
}
