package pad

import (
	"math"

	"github.com/cbegin/padseq-go/internal/arpeggio"
	"github.com/cbegin/padseq-go/internal/loop"
	"github.com/cbegin/padseq-go/internal/tick"
)

// arpTailTicks bounds how long an unbounded export waits for the
// arpeggiator to release after the last session ended.
const arpTailTicks = arpeggio.MaxPatternLength * tick.PerLine

// exportSink turns note-on/note-off pairs into loop notes. Controllers are
// not exported.
type exportSink struct {
	loop   *loop.Loop
	active map[int]loop.NoteEntry
	at     int // ticks since the export start
}

func (x *exportSink) QueueNoteOn(note, velocity, channel int) {
	if _, ok := x.active[note]; ok {
		return
	}
	x.active[note] = loop.NoteEntry{Channel: channel, Velocity: velocity, Note: note, OnAt: x.at}
}

func (x *exportSink) QueueNoteOff(note, _, _ int) {
	n, ok := x.active[note]
	if !ok {
		return
	}
	n.Length = x.at - n.OnAt
	x.loop.Insert(n)
	delete(x.active, note)
}

func (x *exportSink) QueueController(int, int, int) {}

// ExportToLoop renders the sessions starting in [start, stop) into l, with
// note positions relative to start. A stop before start exports everything
// from start on. The pad is rewound before and after.
func (p *Pad) ExportToLoop(start, stop int, l *loop.Loop) {
	bounded := stop >= start
	if !bounded {
		stop = math.MaxInt32
	}
	sink := &exportSink{loop: l, active: map[int]loop.NoteEntry{}}

	p.Reset()
	defer p.Reset()

	var remaining, active []*session
	for _, s := range p.sessions {
		if s != p.current && s.start >= start && s.start < stop {
			remaining = append(remaining, s)
		}
	}

	// an unbounded export ends once every session has played and the
	// arpeggiator released its last note, bounded by one full pattern
	tail := 0
	for cur := start; ; cur++ {
		if bounded && cur >= stop && len(active) == 0 {
			break
		}
		if !bounded && len(remaining) == 0 && len(active) == 0 {
			if !p.arp.Sounding() || tail > arpTailTicks {
				break
			}
			tail++
		}

		kept := remaining[:0]
		for _, s := range remaining {
			if s.startPlay(cur) {
				active = append(active, s)
			} else {
				kept = append(kept, s)
			}
		}
		remaining = kept

		still := active[:0]
		for _, s := range active {
			if s.process(p, false, false, sink) {
				continue
			}
			if s.startPlay(-1) {
				still = append(still, s)
			}
		}
		active = still

		p.arp.ProcessPattern(false, sink)
		sink.at++
	}
}
