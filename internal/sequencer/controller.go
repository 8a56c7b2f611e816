package sequencer

import (
	"errors"
	"sort"
)

var (
	ErrOutOfSpec        = errors.New("sequencer: parameter out of spec")
	ErrNoSuchController = errors.New("sequencer: no such controller")
)

// NoController marks a missing coarse or fine MIDI mapping.
const NoController = -1

// Controller is the MIDI mapping of one parameter of the instrument a
// sequencer drives.
type Controller struct {
	Coarse int
	Fine   int
}

// HasMIDI reports whether the parameter can be reached over MIDI.
func (c Controller) HasMIDI() bool { return c.Coarse != NoController }

// Controllers maps stable parameter names to their MIDI mapping. The table
// is supplied once, when the sequencer is created.
type Controllers map[string]Controller

// MIDINames returns the names of the controllers with a MIDI mapping, sorted.
func (c Controllers) MIDINames() []string {
	var names []string
	for name, ctl := range c {
		if ctl.HasMIDI() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Lookup returns the mapping of name, or NoController twice when name is
// unknown.
func (c Controllers) Lookup(name string) Controller {
	if ctl, ok := c[name]; ok {
		return ctl
	}
	return Controller{Coarse: NoController, Fine: NoController}
}

// GeneralMIDI is a small table of common General MIDI controllers.
var GeneralMIDI = Controllers{
	"modulation": {Coarse: 1, Fine: 33},
	"volume":     {Coarse: 7, Fine: 39},
	"pan":        {Coarse: 10, Fine: 42},
	"expression": {Coarse: 11, Fine: 43},
	"cutoff":     {Coarse: 74, Fine: NoController},
	"resonance":  {Coarse: 71, Fine: NoController},
}
