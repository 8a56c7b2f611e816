package pad

import "github.com/cbegin/padseq-go/internal/event"

// finger owns the motions recorded for one touch point of a session.
// recorded is ordered by start; next indexes the first motion that has not
// been started in the current pass, len(recorded) when none is left.
type finger struct {
	recorded []*Motion
	next     int
	playing  []*Motion
	current  *Motion
	deleted  bool
}

// record inserts m after every motion with the same or an earlier start.
func (f *finger) record(m *Motion) {
	i := len(f.recorded)
	for k, r := range f.recorded {
		if m.start < r.start {
			i = k
			break
		}
	}
	f.recorded = append(f.recorded, nil)
	copy(f.recorded[i+1:], f.recorded[i:])
	f.recorded[i] = m
	if i <= f.next {
		f.next++
	}
}

func (f *finger) startFromTheTop() {
	f.next = 0
	f.playing = f.playing[:0]
}

// handle routes a touch sample. pos is the session position of the tick
// before the one being processed.
func (f *finger) handle(p *Pad, e Event, pos int) {
	if f.deleted {
		return
	}
	pos++
	switch e.Kind {
	case Press:
		if f.current != nil {
			// a press without release
			f.current.close()
		}
		m := newMotion(p.Configuration, pos)
		m.addPosition(e.X, e.Y)
		if !m.startMotion(pos) {
			f.current = nil
			return
		}
		f.current = m
		f.playing = append(f.playing, m)
	case Slide:
		if f.current != nil {
			f.current.addPosition(e.X, e.Y)
		}
	case Release:
		if f.current != nil {
			f.current.addPosition(e.X, e.Y)
			f.current.terminate()
		}
	}
}

// process starts the motions due at pos and plays the running ones. It
// reports true when nothing is playing or waiting.
func (f *finger) process(p *Pad, sink event.Sink, record, mute bool, pos int) bool {
	if !f.deleted && !mute && f.next < len(f.recorded) {
		for f.next < len(f.recorded) && f.recorded[f.next].startMotion(pos) {
			f.playing = append(f.playing, f.recorded[f.next])
			f.next++
		}
	} else if mute {
		f.next = len(f.recorded)
	}

	kept := f.playing[:0]
	for _, m := range f.playing {
		if !m.process(sink, p.arp, p.scales) {
			kept = append(kept, m)
			continue
		}
		if m == f.current {
			if record {
				f.record(m)
				if p.quantize {
					m.quantize()
				}
			}
			f.current = nil
		}
	}
	for i := len(kept); i < len(f.playing); i++ {
		f.playing[i] = nil
	}
	f.playing = kept
	return len(f.playing) == 0 && f.next >= len(f.recorded)
}

func (f *finger) reset() {
	for _, m := range f.playing {
		m.reset()
	}
	f.playing = f.playing[:0]
	f.next = 0
}

// remove drops every recorded motion. Motions still playing are flagged so
// they release their notes on their next sample.
func (f *finger) remove() {
	for _, m := range f.recorded {
		if m.playing() {
			m.deleted = true
		}
	}
	f.recorded = nil
	f.next = 0
	f.deleted = true

	// the live gesture gets one closing sample so its notes are released
	if c := f.current; c != nil {
		c.deleted = true
		c.close()
		f.current = nil
	}
}

func (f *finger) terminate() {
	if f.current != nil {
		f.current.close()
	}
}
