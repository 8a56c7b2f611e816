package loop

import "github.com/cbegin/padseq-go/internal/event"

// MaxActiveNotes bounds how many notes of one loop can sound at once. Note-ons
// beyond it are dropped; the loop position still advances.
const MaxActiveNotes = 16

type activeNote struct {
	note, channel int
	ticks2off     int
	used          bool
}

// Loop plays a Timeline one tick per Process call.
type Loop struct {
	notes    *Timeline
	cursor   int32
	position int
	active   [MaxActiveNotes]activeNote
}

func New() *Loop {
	return &Loop{notes: NewTimeline()}
}

// Len is the number of stored notes.
func (l *Loop) Len() int { return l.notes.Len() }

// Position is the tick that the next Process call handles.
func (l *Loop) Position() int { return l.position }

func (l *Loop) Insert(e NoteEntry) NoteID {
	return l.notes.insert(e)
}

func (l *Loop) Delete(id NoteID) error {
	h, ok := l.notes.lookup(id)
	if !ok {
		return ErrNoSuchNote
	}
	if l.cursor == h {
		l.cursor = l.notes.nodes[h].next
	}
	l.notes.remove(h)
	return nil
}

// Update overwrites an entry. When OnAt changes the entry moves to its new
// place in tick order under the same ID. A note moved ahead of the position
// still plays on the current pass.
func (l *Loop) Update(id NoteID, e NoteEntry) error {
	h, ok := l.notes.lookup(id)
	if !ok {
		return ErrNoSuchNote
	}
	n := &l.notes.nodes[h]
	prev := n.entry.OnAt
	n.entry = e.Masked()
	if n.entry.OnAt == prev {
		return nil
	}
	if l.cursor == h {
		l.cursor = n.next
	}
	l.notes.move(h)
	if at := l.notes.nodes[h].entry.OnAt; at >= l.position && l.cursor != 0 && l.notes.nodes[l.cursor].entry.OnAt > at {
		l.cursor = h
	}
	return nil
}

func (l *Loop) Get(id NoteID) (NoteEntry, error) {
	h, ok := l.notes.lookup(id)
	if !ok {
		return NoteEntry{}, ErrNoSuchNote
	}
	return l.notes.nodes[h].entry, nil
}

func (l *Loop) Notes() []NoteEntry { return l.notes.Entries() }
func (l *Loop) NoteIDs() []NoteID  { return l.notes.IDs() }

// Swap installs t as the note list and returns the previous one. Sounding
// notes still receive their note-off.
func (l *Loop) Swap(t *Timeline) *Timeline {
	if t == nil {
		t = NewTimeline()
	}
	old := l.notes
	l.notes = t
	l.cursor = 0
	return old
}

// Clear detaches all notes.
func (l *Loop) Clear() *Timeline { return l.Swap(NewTimeline()) }

// ReplaceNotes is Swap with a timeline built from entries.
func (l *Loop) ReplaceNotes(entries []NoteEntry) *Timeline {
	return l.Swap(NewTimeline(entries...))
}

// CopyFrom replaces all notes with clones of src's notes.
func (l *Loop) CopyFrom(src *Loop) *Timeline {
	return l.ReplaceNotes(src.Notes())
}

// StartToPlay rewinds the loop to its first note.
func (l *Loop) StartToPlay() {
	l.position = 0
	l.cursor = l.notes.head
}

// Active reports how many notes are waiting for their note-off.
func (l *Loop) Active() int {
	n := 0
	for _, a := range l.active {
		if a.used {
			n++
		}
	}
	return n
}

func (l *Loop) activate(e NoteEntry) bool {
	for i := range l.active {
		if !l.active[i].used {
			l.active[i] = activeNote{note: e.Note, channel: e.Channel, ticks2off: e.Length + 1, used: true}
			return true
		}
	}
	return false
}

// Process emits the note-ons due at the current position, then counts down
// sounding notes and emits their note-offs.
func (l *Loop) Process(mute bool, sink event.Sink) {
	for l.cursor != 0 {
		n := &l.notes.nodes[l.cursor]
		if n.entry.OnAt > l.position {
			break
		}
		// entries behind the position (negative or edited) are passed over
		if n.entry.OnAt == l.position && !mute && l.activate(n.entry) {
			sink.QueueNoteOn(n.entry.Note, n.entry.Velocity, n.entry.Channel)
		}
		l.cursor = n.next
	}
	for i := range l.active {
		a := &l.active[i]
		if !a.used {
			continue
		}
		if a.ticks2off > 0 {
			a.ticks2off--
			continue
		}
		a.used = false
		sink.QueueNoteOff(a.note, 0x80, a.channel)
	}
	l.position++
}
