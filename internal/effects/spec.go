package effects

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Spec describes one effect of the master bus, as written in the config
// file. Missing params take their defaults.
type Spec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// Tempo is what tempo synced effects need to know about the transport.
type Tempo struct {
	BPM int
	LPB int
}

var ErrUnknownEffect = errors.New("effects: unknown effect")

type builder func(sampleRate int, tempo Tempo, p params) Effector

type params map[string]float64

func (p params) get(name string, def float64) float32 {
	if v, ok := p[name]; ok {
		return float32(v)
	}
	return float32(def)
}

var builders = map[string]builder{
	"delay": func(sr int, t Tempo, p params) Effector {
		frames := int(float32(LineSamples(sr, t.BPM, t.LPB)) * p.get("lines", 3))
		return NewDelay(frames, p.get("feedback", 0.4), p.get("cross", 0.2), p.get("wet", 0.25))
	},
	"reverb": func(sr int, _ Tempo, p params) Effector {
		return NewReverb(sr, p.get("room", 0.5), p.get("feedback", 0.7), p.get("wet", 0.2))
	},
	"compressor": func(sr int, _ Tempo, p params) Effector {
		return NewCompressor(sr, p.get("threshold", -20), p.get("ratio", 4), p.get("attack", 5), p.get("release", 100), p.get("makeup", 6))
	},
	"limiter": func(sr int, _ Tempo, _ params) Effector {
		return NewLimiter(sr)
	},
	"eq": func(sr int, _ Tempo, p params) Effector {
		eq := NewEQ(sr)
		for band, name := range []string{"low", "lowmid", "mid", "highmid", "high"} {
			eq.SetGain(band, p.get(name, 1))
		}
		return eq
	},
}

// Types lists the effect names Build accepts.
func Types() []string {
	var names []string
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the chain described by specs, in order.
func Build(specs []Spec, sampleRate int, tempo Tempo) (*Chain, error) {
	chain := NewChain()
	for i, s := range specs {
		b, ok := builders[strings.ToLower(strings.TrimSpace(s.Type))]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownEffect, "effect %d %q", i, s.Type)
		}
		chain.Add(b(sampleRate, tempo, params(s.Params)))
	}
	return chain, nil
}
