package effects

// Delay is a stereo echo with feedback and cross feedback between the
// channels. Its time is set in sequencer lines so echoes stay on the grid.
type Delay struct {
	l, r     ring
	feedback float32
	cross    float32
	wet      float32
}

// LineSamples is the length of one line at the given tempo.
func LineSamples(sampleRate, bpm, lpb int) int {
	if bpm <= 0 || lpb <= 0 {
		return sampleRate / 4
	}
	return sampleRate * 60 / (bpm * lpb)
}

// NewDelay returns a delay of the given number of frames. feedback is
// capped at 0.95.
func NewDelay(frames int, feedback, cross, wet float32) *Delay {
	return &Delay{
		l:        newRing(frames),
		r:        newRing(frames),
		feedback: clamp(feedback, 0, 0.95),
		cross:    clamp(cross, 0, 1),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	el, er := d.l.tap(), d.r.tap()
	straight, crossed := d.feedback*(1-d.cross), d.feedback*d.cross
	d.l.push(l + el*straight + er*crossed)
	d.r.push(r + er*straight + el*crossed)
	return l + (el-l)*d.wet, r + (er-r)*d.wet
}

func (d *Delay) Reset() {
	d.l.reset()
	d.r.reset()
}
