package loop

import "fmt"

const (
	MaxLoops         = 100
	initialStoreSize = 16
	initialSequence  = 16

	// NotSet marks a sequence position without a loop.
	NotSet = -1
)

// Store owns the loops of one sequencer. IDs are dense: deleting a loop
// shifts every higher ID down by one.
type Store struct {
	loops []*Loop
}

// NewStore returns a store holding one empty loop with ID 0.
func NewStore() *Store {
	s := &Store{loops: make([]*Loop, 0, initialStoreSize)}
	s.loops = append(s.loops, New())
	return s
}

// NewStoreSize returns an empty store with room for n loops.
func NewStoreSize(n int) *Store {
	if n < initialStoreSize {
		n = initialStoreSize
	}
	return &Store{loops: make([]*Loop, 0, n)}
}

func (s *Store) Len() int { return len(s.loops) }

// Cap is the current store size. It starts at 16 and doubles on demand.
func (s *Store) Cap() int { return cap(s.loops) }

func (s *Store) Get(id int) (*Loop, error) {
	if id < 0 || id >= len(s.loops) {
		return nil, fmt.Errorf("loop %d: %w", id, ErrNoSuchLoop)
	}
	return s.loops[id], nil
}

// Add appends l (or a new loop when nil) and returns its ID.
func (s *Store) Add(l *Loop) (int, error) {
	if len(s.loops) >= MaxLoops {
		return NotSet, ErrNoFreeLoops
	}
	if l == nil {
		l = New()
	}
	if len(s.loops) == cap(s.loops) {
		grown := make([]*Loop, len(s.loops), 2*cap(s.loops))
		copy(grown, s.loops)
		s.loops = grown
	}
	s.loops = append(s.loops, l)
	return len(s.loops) - 1, nil
}

// Put stores l under a fixed id, growing the store as needed. It is used
// when loading documents whose ids may be sparse.
func (s *Store) Put(id int, l *Loop) error {
	if id < 0 || id >= MaxLoops {
		return fmt.Errorf("loop %d: %w", id, ErrOutOfSpec)
	}
	for len(s.loops) <= id {
		if _, err := s.Add(nil); err != nil {
			return err
		}
	}
	s.loops[id] = l
	return nil
}

// Delete removes a loop and shifts the ones above it down.
func (s *Store) Delete(id int) error {
	if id < 0 || id >= len(s.loops) {
		return fmt.Errorf("loop %d: %w", id, ErrNoSuchLoop)
	}
	copy(s.loops[id:], s.loops[id+1:])
	s.loops[len(s.loops)-1] = nil
	s.loops = s.loops[:len(s.loops)-1]
	return nil
}

// Sequence maps line positions to loop IDs.
type Sequence struct {
	ids []int
}

func NewSequence() *Sequence {
	q := &Sequence{}
	q.grow(initialSequence)
	return q
}

func (q *Sequence) grow(n int) {
	for len(q.ids) < n {
		q.ids = append(q.ids, NotSet)
	}
}

func (q *Sequence) Len() int { return len(q.ids) }

// At returns the loop at pos, or NotSet outside the sequence.
func (q *Sequence) At(pos int) int {
	if pos < 0 || pos >= len(q.ids) {
		return NotSet
	}
	return q.ids[pos]
}

// AtEach resolves several positions at once.
func (q *Sequence) AtEach(positions []int) []int {
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = q.At(p)
	}
	return out
}

// Set assigns id (or NotSet) to pos. The id must exist in s. Positions past
// the end grow the sequence to pos+16.
func (q *Sequence) Set(s *Store, pos, id int) error {
	if pos < 0 {
		return fmt.Errorf("sequence position %d: %w", pos, ErrOutOfSpec)
	}
	if id != NotSet && (id < 0 || id >= s.Len()) {
		return fmt.Errorf("sequence loop id %d: %w", id, ErrOutOfSpec)
	}
	if pos >= len(q.ids) {
		q.grow(pos + initialSequence)
	}
	q.ids[pos] = id
	return nil
}

// Forget updates the sequence after loop id was deleted from the store.
func (q *Sequence) Forget(id int) {
	for i, v := range q.ids {
		switch {
		case v == id:
			q.ids[i] = NotSet
		case v > id:
			q.ids[i] = v - 1
		}
	}
}

// Used returns the positions that hold a loop, in order.
func (q *Sequence) Used() []int {
	var out []int
	for i, v := range q.ids {
		if v != NotSet {
			out = append(out, i)
		}
	}
	return out
}
