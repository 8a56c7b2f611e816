package loop

import "sync/atomic"

// serials are handed out process wide so IDs from one timeline never match
// entries of another.
var serials atomic.Uint32

type node struct {
	entry  NoteEntry
	prev   int32
	next   int32
	serial uint32 // 0 when the slot is free
}

// Timeline is a tick-ordered, doubly linked note list stored in an arena.
// Handles are 1-based; 0 means none. A Timeline can be built off the
// transport and swapped into a Loop in one step.
type Timeline struct {
	nodes []node
	free  []int32
	head  int32
	tail  int32
	count int
}

func NewTimeline(entries ...NoteEntry) *Timeline {
	t := &Timeline{nodes: make([]node, 1, len(entries)+1)}
	for _, e := range entries {
		t.insert(e)
	}
	return t
}

func (t *Timeline) Len() int { return t.count }

func (t *Timeline) alloc(e NoteEntry) int32 {
	var h int32
	if n := len(t.free); n > 0 {
		h = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.nodes = append(t.nodes, node{})
		h = int32(len(t.nodes) - 1)
	}
	t.nodes[h] = node{entry: e.Masked(), serial: serials.Add(1)}
	return h
}

// insert places e before the first entry with a strictly greater OnAt.
func (t *Timeline) insert(e NoteEntry) NoteID {
	h := t.alloc(e)
	t.link(h)
	t.count++
	return makeID(t.nodes[h].serial, h)
}

// link threads the detached node h in after every entry with OnAt <= its own.
func (t *Timeline) link(h int32) {
	n := &t.nodes[h]
	at := t.head
	for at != 0 && t.nodes[at].entry.OnAt <= n.entry.OnAt {
		at = t.nodes[at].next
	}
	if at == 0 {
		n.prev = t.tail
		n.next = 0
		if t.tail != 0 {
			t.nodes[t.tail].next = h
		} else {
			t.head = h
		}
		t.tail = h
		return
	}
	n.next = at
	n.prev = t.nodes[at].prev
	if n.prev != 0 {
		t.nodes[n.prev].next = h
	} else {
		t.head = h
	}
	t.nodes[at].prev = h
}

func (t *Timeline) unlink(h int32) {
	n := &t.nodes[h]
	if n.prev != 0 {
		t.nodes[n.prev].next = n.next
	} else {
		t.head = n.next
	}
	if n.next != 0 {
		t.nodes[n.next].prev = n.prev
	} else {
		t.tail = n.prev
	}
	n.prev, n.next = 0, 0
}

// move re-threads h at the position its current OnAt calls for. The handle
// and serial are unchanged, so outstanding IDs stay valid.
func (t *Timeline) move(h int32) {
	t.unlink(h)
	t.link(h)
}

func (t *Timeline) lookup(id NoteID) (int32, bool) {
	h := id.index()
	if h <= 0 || int(h) >= len(t.nodes) {
		return 0, false
	}
	if s := t.nodes[h].serial; s == 0 || s != id.serial() {
		return 0, false
	}
	return h, true
}

func (t *Timeline) remove(h int32) {
	t.unlink(h)
	t.nodes[h] = node{}
	t.free = append(t.free, h)
	t.count--
}

// Entries returns the notes in playing order.
func (t *Timeline) Entries() []NoteEntry {
	out := make([]NoteEntry, 0, t.count)
	for h := t.head; h != 0; h = t.nodes[h].next {
		out = append(out, t.nodes[h].entry)
	}
	return out
}

// IDs returns the entry handles in playing order.
func (t *Timeline) IDs() []NoteID {
	out := make([]NoteID, 0, t.count)
	for h := t.head; h != 0; h = t.nodes[h].next {
		out = append(out, makeID(t.nodes[h].serial, h))
	}
	return out
}
