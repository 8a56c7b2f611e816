package pad

import (
	"github.com/cbegin/padseq-go/internal/arpeggio"
	"github.com/cbegin/padseq-go/internal/event"
	"github.com/cbegin/padseq-go/internal/scale"
	"github.com/cbegin/padseq-go/internal/tick"
)

// MaxChord is the number of voices tracked per motion.
const MaxChord = 6

// columnShift maps a pad resolution x coordinate to one of eight columns.
const columnShift = 9

// Motion is one finger gesture: samples of (x, y, ticks since start).
type Motion struct {
	cfg   Configuration
	start int
	x     []int
	y     []int
	t     []int

	index      int
	crnt       int
	lastX      int
	lastChord  [MaxChord]int
	terminated bool
	deleted    bool

	lastScale int
	keys      [21]int
}

func newMotion(cfg Configuration, start int) *Motion {
	m := &Motion{
		cfg:       cfg.snapshot(),
		start:     start,
		index:     -1,
		crnt:      -1,
		lastX:     -1,
		lastScale: -1,
	}
	for i := range m.lastChord {
		m.lastChord[i] = -1
	}
	return m
}

// Start is the session position the motion begins at.
func (m *Motion) Start() int                   { return m.start }
func (m *Motion) Configuration() Configuration { return m.cfg }
func (m *Motion) Len() int                     { return len(m.t) }
func (m *Motion) Terminated() bool             { return m.terminated }
func (m *Motion) playing() bool                { return m.index != -1 }

func (m *Motion) addPosition(x, y int) {
	if m.terminated {
		return
	}
	// crnt has not been advanced for this tick yet
	m.x = append(m.x, x)
	m.y = append(m.y, y)
	m.t = append(m.t, m.crnt+1)
}

// terminate closes the gesture. A gesture always lasts at least one tick.
func (m *Motion) terminate() {
	m.terminated = true
	last := len(m.t) - 1
	if last > 0 && m.t[0] == m.t[last] {
		m.t[last]++
	}
}

// close terminates a live gesture with a copy of its last sample, so the
// notes it holds are released on the next tick.
func (m *Motion) close() {
	if n := len(m.x); n > 0 && !m.terminated {
		m.addPosition(m.x[n-1], m.y[n-1])
	}
	m.terminate()
}

func (m *Motion) quantize() {
	m.start = tick.Quantize(m.start)
}

func (m *Motion) startMotion(pos int) bool {
	if m.index != -1 || pos != m.start {
		return false
	}
	m.index = 0
	m.crnt = -1
	m.lastX = -1
	return true
}

func (m *Motion) reset() {
	m.index = -1
	m.crnt = -1
	m.lastX = -1
}

func (m *Motion) loadScale(s scale.Service) {
	if m.cfg.Scale == m.lastScale {
		return
	}
	m.lastScale = m.cfg.Scale
	m.keys = scale.Extend(scale.Lookup(s, m.cfg.Scale))
}

func (m *Motion) chord(col int) [MaxChord]int {
	c := [MaxChord]int{-1, -1, -1, -1, -1, -1}
	base := m.cfg.Octave * 12
	c[0] = base + m.keys[col]
	c[1] = base + m.keys[col+2]
	c[2] = base + m.keys[col+4]
	return c
}

// process plays every sample due at the current tick. It reports true once a
// terminated motion has played all its samples; the motion is then idle.
func (m *Motion) process(sink event.Sink, arp *arpeggio.Arpeggiator, scales scale.Service) bool {
	if m.terminated && m.index >= len(m.x) {
		m.index = -1
		return true
	}
	m.crnt++
	m.loadScale(scales)

	max := len(m.x)
	for m.index < max && m.t[m.index] <= m.crnt {
		col := event.Clamp(m.x[m.index]>>columnShift, 0, 7)
		note := m.cfg.Octave*12 + m.keys[col]
		final := m.terminated && m.index == max-1

		chord := [MaxChord]int{-1, -1, -1, -1, -1, -1}
		if !m.deleted && m.cfg.Chord != ChordOff && !final {
			chord = m.chord(col)
		}

		yc := m.y[m.index] >> 5
		yf := (m.y[m.index] & 0x1f) << 2
		velocity := yc
		if m.cfg.Coarse != -1 {
			velocity = 0x7f
			sink.QueueController(m.cfg.Coarse, yc, 0)
			if m.cfg.Fine != -1 {
				sink.QueueController(m.cfg.Fine, yf, 0)
			}
		}

		switch {
		case m.cfg.Mode == ModeNormal && m.cfg.Chord != ChordOff:
			for k := range chord {
				if m.lastChord[k] == chord[k] {
					continue
				}
				if m.lastChord[k] != -1 {
					sink.QueueNoteOff(m.lastChord[k], 0x7f, 0)
				}
				if chord[k] != -1 {
					sink.QueueNoteOn(chord[k], velocity, 0)
				}
			}
		case m.cfg.Mode == ModeNormal:
			if !m.deleted && m.lastX != note {
				if !final {
					sink.QueueNoteOn(note, velocity, 0)
				}
				if m.lastX != -1 {
					sink.QueueNoteOff(m.lastX, 0x7f, 0)
				}
			} else if (m.deleted || final) && m.lastX != -1 {
				sink.QueueNoteOff(m.lastX, 0x7f, 0)
			}
		case m.cfg.Chord != ChordOff:
			for k := range chord {
				if m.lastChord[k] != -1 {
					arp.DisableKey(m.lastChord[k])
				}
				if chord[k] != -1 {
					chord[k] = arp.EnableKey(chord[k], velocity)
				}
			}
		default:
			if !m.deleted {
				if m.lastX != -1 {
					arp.DisableKey(m.lastX)
				}
				if !final {
					note = arp.EnableKey(note, velocity)
				}
			} else if m.lastX != -1 {
				arp.DisableKey(m.lastX)
			}
		}

		m.lastChord = chord
		m.lastX = note
		m.index++
	}
	return false
}

// Samples returns the recorded positions.
func (m *Motion) Samples() []Sample {
	out := make([]Sample, len(m.t))
	for i := range out {
		out[i] = Sample{X: m.x[i], Y: m.y[i], T: m.t[i]}
	}
	return out
}
