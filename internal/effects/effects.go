// Package effects is the master bus applied to the mixed output of all
// instruments.
package effects

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies its effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Add(e Effector) { c.effects = append(c.effects, e) }
func (c *Chain) Len() int       { return len(c.effects) }

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

// ProcessBlock runs the chain over interleaved stereo frames in place.
func (c *Chain) ProcessBlock(dst []float32) {
	if len(c.effects) == 0 {
		return
	}
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = c.Process(dst[i], dst[i+1])
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

// ring is a fixed length delay line.
type ring struct {
	buf []float32
	pos int
}

func newRing(n int) ring {
	if n < 1 {
		n = 1
	}
	return ring{buf: make([]float32, n)}
}

// tap returns the oldest sample, which is the one about to be overwritten.
func (r *ring) tap() float32 { return r.buf[r.pos] }

func (r *ring) push(v float32) {
	r.buf[r.pos] = v
	r.pos++
	if r.pos == len(r.buf) {
		r.pos = 0
	}
}

func (r *ring) reset() {
	clear(r.buf)
	r.pos = 0
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
