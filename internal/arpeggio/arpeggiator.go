package arpeggio

import "github.com/cbegin/padseq-go/internal/event"

type phase int

const (
	phaseEmit phase = iota
	phaseHoldOn
	phaseRelease
	phaseHoldOff
)

type finger struct {
	key, velocity, count int
}

// Arpeggiator holds up to MaxFingers reference counted keys, sorted by key,
// and plays them through a Pattern one tick at a time.
type Arpeggiator struct {
	fingers   [MaxFingers]finger
	nFingers  int
	current   int
	pattern   *Pattern
	index     int
	phase     phase
	ticksLeft int
	note      int
	velocity  int
}

func New() *Arpeggiator {
	return &Arpeggiator{pattern: builtIn[0], note: -1}
}

// SetPattern selects a built-in pattern. Unknown ids are ignored.
func (a *Arpeggiator) SetPattern(id int) {
	if p := BuiltIn(id); p != nil {
		a.pattern = p
	}
}

func (a *Arpeggiator) Pattern() *Pattern { return a.pattern }

// Reset silences the state machine without forgetting held keys. The
// sounding note, if any, is not released.
func (a *Arpeggiator) Reset() {
	a.phase = phaseEmit
	a.ticksLeft = 0
	a.current = 0
	a.index = 0
	a.note = -1
}

// Sounding reports whether a note-on is waiting for its note-off.
func (a *Arpeggiator) Sounding() bool { return a.note != -1 }

// Keys returns the held keys in ascending order.
func (a *Arpeggiator) Keys() []int {
	out := make([]int, a.nFingers)
	for i := range out {
		out[i] = a.fingers[i].key
	}
	return out
}

func (a *Arpeggiator) sortKeys() {
	for k := 0; k < a.nFingers-1; k++ {
		for l := k + 1; l < a.nFingers; l++ {
			if a.fingers[l].key < a.fingers[k].key {
				a.fingers[l], a.fingers[k] = a.fingers[k], a.fingers[l]
			}
		}
	}
}

// EnableKey holds key. A key already held gains a reference and takes the new
// velocity. It returns key, or -1 when all fingers are taken.
func (a *Arpeggiator) EnableKey(key, velocity int) int {
	for i := 0; i < a.nFingers; i++ {
		if a.fingers[i].key == key {
			a.fingers[i].count++
			a.fingers[i].velocity = velocity
			return key
		}
	}
	if a.nFingers == MaxFingers {
		return -1
	}
	a.fingers[a.nFingers] = finger{key: key, velocity: velocity, count: 1}
	a.nFingers++
	a.sortKeys()
	return key
}

// DisableKey drops one reference to key.
func (a *Arpeggiator) DisableKey(key int) {
	for i := 0; i < a.nFingers; i++ {
		if a.fingers[i].key != key {
			continue
		}
		a.fingers[i].count--
		if a.fingers[i].count == 0 {
			a.nFingers--
			copy(a.fingers[i:a.nFingers], a.fingers[i+1:a.nFingers+1])
			a.fingers[a.nFingers] = finger{}
		}
		break
	}
	a.sortKeys()
	if a.nFingers == 0 {
		a.current = 0
	}
}

// ProcessPattern advances the state machine by one tick.
func (a *Arpeggiator) ProcessPattern(mute bool, sink event.Sink) {
	p := a.pattern
	if p == nil || len(p.Steps) == 0 {
		return
	}
	if a.index >= len(p.Steps) {
		a.index = 0
		a.phase = phaseEmit
	}
	step := p.Steps[a.index]
	old := a.note

	switch a.phase {
	case phaseEmit:
		if !mute && a.nFingers > 0 {
			f := a.fingers[a.current%a.nFingers]
			a.current++
			a.note = event.Clamp(f.key+step.Octave*12, 0, 127)
			a.velocity = f.velocity
			sink.QueueNoteOn(a.note, a.velocity, 0)
		} else {
			a.note = -1
		}
		// the previous note is released after the new one starts, so a
		// sliding step overlaps into this one
		if old != -1 {
			sink.QueueNoteOff(old, a.velocity, 0)
		}
		a.phase = phaseHoldOn
		a.ticksLeft = step.OnLength - 1
	case phaseHoldOn:
		a.ticksLeft--
		if a.ticksLeft <= 0 {
			a.phase = phaseRelease
		}
	case phaseRelease:
		if a.note != -1 && !step.Slide {
			sink.QueueNoteOff(a.note, a.velocity, 0)
			a.note = -1
		}
		a.phase = phaseHoldOff
		a.ticksLeft = step.OffLength - 1
	case phaseHoldOff:
		a.ticksLeft--
		if a.ticksLeft <= 0 {
			a.phase = phaseEmit
			a.index++
		}
	}
}
