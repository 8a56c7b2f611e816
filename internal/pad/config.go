// Package pad records touch gestures as timed motions and replays them as
// notes, chords or arpeggiator keys.
package pad

// Mode selects how a motion turns positions into notes.
type Mode int

const (
	ModeNormal Mode = iota
	ModeArpeggiator
)

func (m Mode) String() string {
	if m == ModeArpeggiator {
		return "arpeggiator"
	}
	return "normal"
}

type ChordMode int

const (
	ChordOff ChordMode = iota
	ChordTriad
)

func (c ChordMode) String() string {
	if c == ChordTriad {
		return "triad"
	}
	return "off"
}

// Configuration is the note mapping of the pad. Every motion keeps its own
// copy taken when the gesture started.
type Configuration struct {
	Mode       Mode
	Chord      ChordMode
	Scale      int
	Octave     int
	ArpPattern int
	Coarse     int // controller driven by y, -1 for velocity
	Fine       int
}

func DefaultConfiguration() Configuration {
	return Configuration{Mode: ModeArpeggiator, Octave: 4, Coarse: -1, Fine: -1}
}

// snapshot is the part of the configuration a motion keeps. The arpeggio
// pattern belongs to the pad's arpeggiator, not to the motion.
func (c Configuration) snapshot() Configuration {
	c.ArpPattern = 0
	return c
}
