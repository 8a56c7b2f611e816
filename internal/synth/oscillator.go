package synth

type shape int

const (
	shapeSaw shape = iota
	shapeSquare
	shapeTriangle
)

// oscillator is the engine-wide low frequency oscillator behind vibrato.
// sample returns values in [-1, 1].
type oscillator struct {
	rateHz float64
	shape  shape
	phase  float64
}

func (o *oscillator) set(rateHz float64, s shape) {
	o.rateHz = rateHz
	if s < shapeSaw || s > shapeTriangle {
		s = shapeTriangle
	}
	o.shape = s
}

func (o *oscillator) sample(sampleRate float64) float64 {
	if o.rateHz == 0 || sampleRate == 0 {
		return 0
	}
	var v float64
	switch o.shape {
	case shapeSaw:
		v = 1 - 2*o.phase
	case shapeSquare:
		v = -1
		if o.phase < 0.5 {
			v = 1
		}
	default:
		if o.phase < 0.5 {
			v = 4*o.phase - 1
		} else {
			v = 3 - 4*o.phase
		}
	}
	o.phase += o.rateHz / sampleRate
	for o.phase >= 1 {
		o.phase--
	}
	return v
}
