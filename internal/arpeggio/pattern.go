// Package arpeggio cycles held keys through timed note patterns.
package arpeggio

import (
	"fmt"

	"github.com/cbegin/padseq-go/internal/tick"
)

const (
	MaxPatternLength = 16
	MaxFingers       = 5
)

// Step is one pattern entry. OnLength and OffLength are in ticks; Octave
// transposes the picked key. A sliding step leaves its note sounding until
// the next step starts.
type Step struct {
	OnLength  int
	OffLength int
	Octave    int
	Slide     bool
}

// Pattern is a read-only step sequence.
type Pattern struct {
	Name  string
	Steps []Step
}

func (p *Pattern) Len() int { return len(p.Steps) }

func (p *Pattern) append(s Step) {
	if len(p.Steps) < MaxPatternLength {
		p.Steps = append(p.Steps, s)
	}
}

const (
	half    = tick.PerLine >> 1
	quarter = tick.PerLine >> 2
	eighth  = tick.PerLine >> 3
)

// builtIn is immutable once initialised.
var builtIn = func() []*Pattern {
	defs := [][]Step{
		{{OnLength: tick.PerLine - half, OffLength: half}},
		{{OnLength: half - quarter, OffLength: quarter}},
		{
			{OnLength: tick.PerLine - half, OffLength: half},
			{OnLength: tick.PerLine - half, OffLength: half, Octave: 1},
		},
		{
			{OnLength: tick.PerLine - half, OffLength: half},
			{OnLength: tick.PerLine - half, OffLength: half, Octave: 1},
			{OnLength: tick.PerLine - half, OffLength: half, Octave: -1},
		},
		{
			{OnLength: tick.PerLine - half, OffLength: half},
			{OnLength: tick.PerLine - half + 1, OffLength: half - 1},
		},
		{
			{OnLength: tick.PerLine - half, OffLength: half},
			{OnLength: tick.PerLine - half + 1, OffLength: half - 1, Octave: 1},
			{OnLength: tick.PerLine - half, OffLength: half},
			{OnLength: tick.PerLine - half + 1, OffLength: half - 1, Octave: 1},
		},
		{{OnLength: quarter - eighth, OffLength: eighth}},
	}
	out := make([]*Pattern, len(defs))
	for i, steps := range defs {
		p := &Pattern{Name: fmt.Sprintf("built-in #%d", i)}
		for _, s := range steps {
			p.append(s)
		}
		out[i] = p
	}
	return out
}()

// BuiltIn returns pattern id, or nil when it does not exist.
func BuiltIn(id int) *Pattern {
	if id < 0 || id >= len(builtIn) {
		return nil
	}
	return builtIn[id]
}

// BuiltInCount is the number of built-in patterns.
func BuiltInCount() int { return len(builtIn) }

// Names lists the built-in pattern names in id order.
func Names() []string {
	out := make([]string, len(builtIn))
	for i, p := range builtIn {
		out[i] = p.Name
	}
	return out
}

// Lookup resolves a pattern name to its id, or -1.
func Lookup(name string) int {
	for i, p := range builtIn {
		if p.Name == name {
			return i
		}
	}
	return -1
}
