package effects

// comb and allpass length ratios against the room size
var (
	combRatios    = [4]int{1000, 1117, 1271, 1437}
	allpassRatios = [2]int{347, 213}
)

// Reverb is a small Schroeder reverb: four parallel combs into two allpass
// stages, fed with the mono sum.
type Reverb struct {
	combs    [4]ring
	allpass  [2]ring
	feedback float32
	wet      float32
}

// NewReverb sizes the combs from room (0..1, up to 50ms) and sets their
// decay from feedback.
func NewReverb(sampleRate int, room, feedback, wet float32) *Reverb {
	base := max(int(float32(sampleRate)*clamp(room, 0, 1)*0.05), 10)
	rv := &Reverb{feedback: clamp(feedback, 0, 0.95), wet: clamp(wet, 0, 1)}
	for i, ratio := range combRatios {
		rv.combs[i] = newRing(base * ratio / 1000)
	}
	for i, ratio := range allpassRatios {
		rv.allpass[i] = newRing(base * ratio / 1000)
	}
	return rv
}

func (rv *Reverb) Process(l, r float32) (float32, float32) {
	in := (l + r) * 0.5
	var out float32
	for i := range rv.combs {
		c := &rv.combs[i]
		y := c.tap()
		c.push(in + y*rv.feedback)
		out += y
	}
	out *= 0.25
	for i := range rv.allpass {
		a := &rv.allpass[i]
		y := a.tap()
		a.push(out + y*0.5)
		out = y - out
	}
	return l + (out-l)*rv.wet, r + (out-r)*rv.wet
}

func (rv *Reverb) Reset() {
	for i := range rv.combs {
		rv.combs[i].reset()
	}
	for i := range rv.allpass {
		rv.allpass[i].reset()
	}
}
