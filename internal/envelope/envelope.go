// Package envelope plays piecewise-linear controller automation.
package envelope

import (
	"sort"

	"github.com/cbegin/padseq-go/internal/event"
	"github.com/cbegin/padseq-go/internal/tick"
)

// MaxValue is the largest 14 bit controller value.
const MaxValue = 0x3fff

// Point is one control point: a value Y at absolute tick T.
type Point struct {
	T int
	Y int
}

// Envelope is an ordered set of control points, unique per tick, driving a
// coarse and an optional fine controller. A coarse controller of -1 means
// the envelope is not mapped and stays silent.
type Envelope struct {
	Enabled bool
	Coarse  int
	Fine    int

	points []Point
	next   int
}

func New() *Envelope {
	return &Envelope{Enabled: true, Coarse: -1, Fine: -1}
}

// Clone copies points, flags and controller mapping.
func (e *Envelope) Clone() *Envelope {
	c := &Envelope{Enabled: e.Enabled, Coarse: e.Coarse, Fine: e.Fine}
	c.points = append([]Point(nil), e.points...)
	return c
}

// SetTo copies the points and the enabled flag of o. The controller mapping
// stays as it is.
func (e *Envelope) SetTo(o *Envelope) {
	e.points = append(e.points[:0], o.points...)
	e.Enabled = o.Enabled
	e.refresh(0)
}

func (e *Envelope) Points() []Point {
	return append([]Point(nil), e.points...)
}

func (e *Envelope) Len() int { return len(e.points) }

func (e *Envelope) lowerBound(t int) int {
	return sort.Search(len(e.points), func(i int) bool { return e.points[i].T >= t })
}

func (e *Envelope) refresh(t int) {
	e.next = e.lowerBound(t)
}

// Set stores y at absolute tick t, overwriting an existing point.
func (e *Envelope) Set(t, y int) {
	y = event.Clamp(y, 0, MaxValue)
	i := e.lowerBound(t)
	if i < len(e.points) && e.points[i].T == t {
		e.points[i].Y = y
	} else {
		e.points = append(e.points, Point{})
		copy(e.points[i+1:], e.points[i:])
		e.points[i] = Point{T: t, Y: y}
	}
	e.refresh(0)
}

func (e *Envelope) SetControlPoint(line, tk, y int) {
	e.Set(tick.At(line, tk), y)
}

func (e *Envelope) eraseRange(t1, t2 int) {
	i := e.lowerBound(t1)
	j := i
	for j < len(e.points) && e.points[j].T <= t2 {
		j++
	}
	e.points = append(e.points[:i], e.points[j:]...)
}

// SetControlPointLine replaces everything between two points with a straight
// line between them.
func (e *Envelope) SetControlPointLine(line1, tick1, y1, line2, tick2, y2 int) {
	t1, t2 := tick.At(line1, tick1), tick.At(line2, tick2)
	e.eraseRange(t1, t2)
	e.Set(t1, y1)
	e.Set(t2, y2)
}

func (e *Envelope) DeleteControlPointRange(line1, tick1, line2, tick2 int) {
	e.eraseRange(tick.At(line1, tick1), tick.At(line2, tick2))
	e.refresh(0)
}

func (e *Envelope) DeleteControlPoint(line, tk int) {
	t := tick.At(line, tk)
	i := e.lowerBound(t)
	if i < len(e.points) && e.points[i].T == t {
		e.points = append(e.points[:i], e.points[i+1:]...)
	}
	e.refresh(0)
}

// Process emits the value for tick t. Nothing is emitted before the first
// point or after the last one.
func (e *Envelope) Process(t int, sink event.Sink) {
	if !e.Enabled || len(e.points) == 0 {
		return
	}
	if e.next >= len(e.points) || (e.next > 0 && e.points[e.next-1].T > t) {
		e.refresh(t)
		if e.next >= len(e.points) {
			return
		}
	}
	for e.next < len(e.points) && e.points[e.next].T < t {
		e.next++
	}
	if e.next >= len(e.points) {
		return
	}
	nx := e.points[e.next]
	if nx.T > t && e.next == 0 {
		return
	}

	var y int
	if nx.T == t {
		y = nx.Y
		e.next++
	} else {
		pv := e.points[e.next-1]
		y = pv.Y + ((nx.Y-pv.Y)*(t-pv.T))/(nx.T-pv.T)
	}
	if e.Coarse == -1 {
		return
	}
	sink.QueueController(e.Coarse, (y>>7)&0x7f, 0)
	if e.Fine != -1 {
		sink.QueueController(e.Fine, y&0x7f, 0)
	}
}
