package effects

import (
	"math"
	"sync/atomic"
)

// Bands is the number of EQ bands.
const Bands = 5

// crossover frequencies between neighbouring bands, in Hz
var crossovers = [Bands - 1]float64{200, 800, 2500, 8000}

// EQ is a five band master equaliser. The bands are peeled off the signal
// by cascaded one pole lowpass filters, so with every gain at 1 the output
// equals the input. Gains may be changed from any goroutine.
type EQ struct {
	gains [Bands]atomic.Uint32 // float32 bits
	alpha [Bands - 1]float32
	lp    [2][Bands - 1]float32
}

func NewEQ(sampleRate int) *EQ {
	eq := &EQ{}
	dt := 1 / float64(sampleRate)
	for i, f := range crossovers {
		rc := 1 / (2 * math.Pi * f)
		eq.alpha[i] = float32(dt / (rc + dt))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1))
	}
	return eq
}

// SetGain sets a linear band gain. Out of range bands are ignored.
func (eq *EQ) SetGain(band int, gain float32) {
	if band >= 0 && band < Bands {
		eq.gains[band].Store(math.Float32bits(max(gain, 0)))
	}
}

func (eq *EQ) Gain(band int) float32 {
	if band < 0 || band >= Bands {
		return 1
	}
	return math.Float32frombits(eq.gains[band].Load())
}

func (eq *EQ) channel(ch int, v float32) float32 {
	var out float32
	rest := v
	for i := range eq.alpha {
		lp := &eq.lp[ch][i]
		*lp += eq.alpha[i] * (rest - *lp)
		out += *lp * eq.Gain(i)
		rest -= *lp
	}
	return out + rest*eq.Gain(Bands-1)
}

func (eq *EQ) Process(l, r float32) (float32, float32) {
	return eq.channel(0, l), eq.channel(1, r)
}

func (eq *EQ) Reset() { eq.lp = [2][Bands - 1]float32{} }
