package synth

import (
	"sync"

	"github.com/cbegin/padseq-go/internal/event"
)

// Voice is anything the mixer can route events to.
type Voice interface {
	Apply(e *event.Event)
	RenderFrame() (float32, float32)
}

// Mixer routes events to engines by MIDI channel and sums their output.
// Channels without an engine of their own go to the default engine.
type Mixer struct {
	mu       sync.Mutex
	engines  [16]Voice
	fallback Voice
	all      []Voice
}

func NewMixer(fallback Voice) *Mixer {
	m := &Mixer{fallback: fallback}
	if fallback != nil {
		m.all = append(m.all, fallback)
	}
	return m
}

// Route sends channel ch to v.
func (m *Mixer) Route(ch int, v Voice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engines[ch&0x0f] = v
	for _, o := range m.all {
		if o == v {
			return
		}
	}
	m.all = append(m.all, v)
}

func (m *Mixer) voice(ch int) Voice {
	if v := m.engines[ch&0x0f]; v != nil {
		return v
	}
	return m.fallback
}

func (m *Mixer) Apply(e *event.Event) {
	m.mu.Lock()
	v := m.voice(e.Channel())
	m.mu.Unlock()
	if v != nil {
		v.Apply(e)
	}
}

func (m *Mixer) RenderFrame() (float32, float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var l, r float32
	for _, v := range m.all {
		vl, vr := v.RenderFrame()
		l += vl
		r += vr
	}
	return l, r
}
