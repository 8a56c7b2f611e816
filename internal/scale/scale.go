// Package scale maps a scale index and a scale-relative column to semitones.
package scale

import (
	"strings"
	"sync"
)

// Keys holds the seven semitone offsets of one scale, ascending from the
// root. Offsets may exceed 11 when the scale starts above C.
type Keys [7]int

// Service resolves scale indices. Implementations must be safe for
// concurrent readers.
type Service interface {
	Keys(index int) (Keys, bool)
}

// Major is C major, used when no service is configured or the index is
// unknown.
var Major = Keys{0, 2, 4, 5, 7, 9, 11}

type entry struct {
	name   string
	offset int
	base   [7]int
}

var library = []entry{
	{"C- ", 0, [7]int{0, 2, 4, 5, 7, 9, 11}},
	{"C-m", 0, [7]int{0, 2, 3, 5, 7, 8, 10}},
	{"C#m", 0, [7]int{1, 3, 4, 6, 8, 9, 11}},
	{"D- ", 1, [7]int{1, 2, 4, 6, 7, 9, 11}},
	{"D-m", 1, [7]int{0, 2, 4, 5, 7, 9, 10}},
	{"Db ", 1, [7]int{0, 1, 3, 5, 6, 8, 10}},
	{"D#m", 1, [7]int{1, 3, 5, 6, 8, 10, 11}},
	{"E- ", 2, [7]int{1, 3, 4, 6, 8, 9, 11}},
	{"E-m", 2, [7]int{0, 2, 4, 6, 7, 9, 11}},
	{"Eb ", 2, [7]int{0, 2, 3, 5, 7, 8, 10}},
	{"F- ", 3, [7]int{0, 2, 4, 5, 7, 9, 10}},
	{"F-m", 3, [7]int{0, 1, 3, 5, 7, 8, 10}},
	{"F# ", 3, [7]int{1, 3, 5, 6, 8, 10, 11}},
	{"F#m", 3, [7]int{1, 2, 4, 6, 8, 9, 11}},
	{"G- ", 4, [7]int{0, 2, 4, 6, 7, 9, 11}},
	{"G-m", 4, [7]int{0, 2, 3, 5, 7, 9, 10}},
	{"G#m", 4, [7]int{1, 3, 4, 6, 8, 10, 11}},
	{"A- ", 5, [7]int{1, 2, 4, 6, 8, 9, 11}},
	{"A-m", 5, [7]int{0, 2, 4, 5, 7, 9, 11}},
	{"Ab ", 5, [7]int{0, 1, 3, 5, 7, 8, 10}},
	{"B- ", 6, [7]int{1, 3, 4, 6, 8, 10, 11}},
	{"B-m", 6, [7]int{1, 2, 4, 6, 7, 9, 11}},
	{"Bb ", 6, [7]int{0, 2, 3, 5, 7, 9, 10}},
	{"Bbm", 6, [7]int{0, 1, 3, 5, 6, 8, 10}},
}

// Extend repeats k one and two octaves up, giving the 21 entries the chord
// builder indexes into.
func Extend(k Keys) [21]int {
	var out [21]int
	for i, v := range k {
		out[i] = v
		out[i+7] = v + 12
		out[i+14] = v + 24
	}
	return out
}

// rooted rotates a library entry so that it starts on its root.
func (e entry) rooted() Keys {
	ext := Extend(e.base)
	var k Keys
	for i := range k {
		k[i] = ext[i+e.offset]
	}
	return k
}

// Table is the built-in scale library followed by one user editable scale.
type Table struct {
	mu     sync.RWMutex
	names  []string
	keys   []Keys
	custom int
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the process-wide table, built on first use.
func Default() *Table {
	defaultOnce.Do(func() { defaultTable = NewTable() })
	return defaultTable
}

func NewTable() *Table {
	t := &Table{}
	for _, e := range library {
		t.names = append(t.names, strings.TrimSpace(e.name))
		t.keys = append(t.keys, e.rooted())
	}
	t.custom = len(t.keys)
	t.names = append(t.names, "CS1")
	t.keys = append(t.keys, Major)
	return t
}

func (t *Table) Len() int { return len(t.keys) }

func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Index finds a scale by name. Unknown names return -1.
func (t *Table) Index(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

func (t *Table) Keys(index int) (Keys, bool) {
	if index < 0 || index >= len(t.keys) {
		return Major, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.keys[index], true
}

// SetCustomKey changes one entry of the custom scale.
func (t *Table) SetCustomKey(offset, semitone int) bool {
	if offset < 0 || offset >= len(Keys{}) {
		return false
	}
	t.mu.Lock()
	t.keys[t.custom][offset] = semitone
	t.mu.Unlock()
	return true
}

// Lookup is the fallback-aware accessor used by the pad: a nil service or an
// unknown index yields Major.
func Lookup(s Service, index int) Keys {
	if s == nil {
		return Major
	}
	if k, ok := s.Keys(index); ok {
		return k
	}
	return Major
}
