package loop

import (
	"errors"
	"testing"
)

func TestNewStoreHasLoopZero(t *testing.T) {
	s := NewStore()
	if s.Len() != 1 || s.Cap() != initialStoreSize {
		t.Fatalf("len=%d cap=%d", s.Len(), s.Cap())
	}
	if _, err := s.Get(0); err != nil {
		t.Fatalf("loop 0: %v", err)
	}
	if _, err := s.Get(1); !errors.Is(err, ErrNoSuchLoop) {
		t.Fatalf("loop 1: %v", err)
	}
}

func TestStoreGrowsAndLimits(t *testing.T) {
	s := NewStore()
	for s.Len() < MaxLoops {
		if _, err := s.Add(nil); err != nil {
			t.Fatalf("add at %d: %v", s.Len(), err)
		}
	}
	if s.Cap() < MaxLoops {
		t.Fatalf("cap %d", s.Cap())
	}
	if _, err := s.Add(nil); !errors.Is(err, ErrNoFreeLoops) {
		t.Fatalf("expected ErrNoFreeLoops, got %v", err)
	}
}

func TestSequenceSet(t *testing.T) {
	s := NewStore()
	q := NewSequence()
	tests := []struct {
		name    string
		pos, id int
		wantErr bool
	}{
		{"first", 0, 0, false},
		{"unset", 1, NotSet, false},
		{"negative position", -1, 0, true},
		{"unknown loop", 2, 5, true},
		{"grows", 40, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := q.Set(s, tc.pos, tc.id)
			if tc.wantErr {
				if !errors.Is(err, ErrOutOfSpec) {
					t.Fatalf("expected ErrOutOfSpec, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("set: %v", err)
			}
			if q.At(tc.pos) != tc.id {
				t.Fatalf("At(%d) = %d", tc.pos, q.At(tc.pos))
			}
		})
	}
	if q.Len() != 56 {
		t.Fatalf("sequence length %d, want 56", q.Len())
	}
	if q.At(1000) != NotSet || q.At(-3) != NotSet {
		t.Fatalf("out of range lookups must be NotSet")
	}
}

func TestDeleteLoopFixesSequence(t *testing.T) {
	s := NewStore()
	s.Add(nil)
	s.Add(nil)
	q := NewSequence()
	q.Set(s, 0, 0)
	q.Set(s, 1, 1)
	q.Set(s, 2, 2)
	if err := s.Delete(1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	q.Forget(1)
	got := q.AtEach([]int{0, 1, 2})
	if got[0] != 0 || got[1] != NotSet || got[2] != 1 {
		t.Fatalf("sequence after delete = %v", got)
	}
	if s.Len() != 2 {
		t.Fatalf("store len %d", s.Len())
	}
}

func TestPutSparse(t *testing.T) {
	s := NewStoreSize(20)
	l := New()
	if err := s.Put(5, l); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ := s.Get(5)
	if got != l || s.Len() != 6 {
		t.Fatalf("put did not land, len %d", s.Len())
	}
}
