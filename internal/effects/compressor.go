package effects

import "math"

// Compressor reduces the level above a threshold by ratio, following each
// channel with its own envelope.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32
	release   float32
	makeup    float32
	env       [2]float32
}

func dbToGain(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// coefficient of a one pole follower reaching 63% after ms
func follow(sampleRate int, ms float32) float32 {
	return float32(1 - math.Exp(-1/(float64(ms)*float64(sampleRate)/1000)))
}

func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	return &Compressor{
		threshold: dbToGain(thresholdDB),
		ratio:     max(ratio, 1),
		attack:    follow(sampleRate, max(attackMs, 0.01)),
		release:   follow(sampleRate, max(releaseMs, 0.01)),
		makeup:    dbToGain(makeupDB),
	}
}

// NewLimiter is a fast, hard compressor that keeps the bus below -1 dBFS.
func NewLimiter(sampleRate int) *Compressor {
	return NewCompressor(sampleRate, -1, 20, 0.5, 80, 0)
}

func (c *Compressor) gain(ch int, v float32) float32 {
	level := float32(math.Abs(float64(v)))
	k := c.release
	if level > c.env[ch] {
		k = c.attack
	}
	c.env[ch] += k * (level - c.env[ch])
	if c.env[ch] <= c.threshold {
		return c.makeup
	}
	over := float64(c.env[ch] / c.threshold)
	return c.makeup * float32(math.Pow(over, float64(1/c.ratio-1)))
}

func (c *Compressor) Process(l, r float32) (float32, float32) {
	return l * c.gain(0, l), r * c.gain(1, r)
}

func (c *Compressor) Reset() { c.env = [2]float32{} }
