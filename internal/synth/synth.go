// Package synth is a small event-driven chiptune voice engine used to hear
// what the sequencers play.
package synth

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/padseq-go/internal/event"
)

const twoPi = math.Pi * 2

// Controllers understood by Apply.
const (
	CCModulation = 1
	CCVolume     = 7
)

type Params struct {
	Voices      int
	MasterGain  float64
	AttackSec   float64
	DecaySec    float64
	SustainLvl  float64
	ReleaseSec  float64
	StepLevels  int
	PulseDuty   float64
	VelocityAmp float64
	LPFCutoff   float64 // Hz, 0 disables the filter
	VibratoHz   float64
	VibratoMax  float64 // semitones at modulation 127
}

func DefaultParams() Params {
	return Params{
		Voices:      16,
		MasterGain:  0.25,
		AttackSec:   0.004,
		DecaySec:    0.12,
		SustainLvl:  0.6,
		ReleaseSec:  0.18,
		StepLevels:  16,
		PulseDuty:   0.25,
		VelocityAmp: 0.85,
		LPFCutoff:   10000,
		VibratoHz:   5.5,
		VibratoMax:  0.75,
	}
}

// DrumParams suits the noise voice on channel 10: short and without
// sustain.
func DrumParams() Params {
	p := DefaultParams()
	p.Voices = 8
	p.AttackSec = 0.001
	p.DecaySec = 0.09
	p.SustainLvl = 0
	p.ReleaseSec = 0.05
	p.LPFCutoff = 0
	return p
}

type wave int

const (
	wavePulse wave = iota
	waveSquare
	waveTriangle
	waveNoise
)

// waveForChannel gives every MIDI channel a fixed timbre: channel 9 is
// percussion noise, the rest cycle through the tonal waves.
func waveForChannel(ch int) wave {
	if ch == 9 {
		return waveNoise
	}
	return wave(ch % 3)
}

type stage int

const (
	stageAttack stage = iota
	stageDecay
	stageSustain
	stageRelease
	stageOff
)

type voice struct {
	active   bool
	channel  int
	note     int
	age      int
	wave     wave
	freq     float64
	phase    float64
	velocity float64
	env      float64
	stage    stage
	lfsr     uint16
}

// Engine renders polyphonic voices from note and controller events. Apply
// and RenderFrame belong to the audio goroutine; SetMasterGain may be called
// from anywhere.
type Engine struct {
	sampleRate float64
	params     Params
	voices     []voice
	masterGain atomic.Uint64

	volume  [16]float64
	vibrato oscillator
	depth   [16]float64

	dcInL, dcOutL float64
	dcInR, dcOutR float64
	lpL, lpR      float64
	lpAlpha       float64
}

func New(sampleRate int, params Params) *Engine {
	if params.Voices <= 0 {
		params.Voices = 16
	}
	if params.StepLevels <= 1 {
		params.StepLevels = 16
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Voices),
	}
	e.masterGain.Store(math.Float64bits(params.MasterGain))
	for i := range e.volume {
		e.volume[i] = 1
	}
	for i := range e.voices {
		e.voices[i].lfsr = uint16(0xACE1 + i*97)
	}
	e.vibrato.set(params.VibratoHz, shapeTriangle)
	if params.LPFCutoff > 0 && params.LPFCutoff < float64(sampleRate)/2 {
		rc := 1.0 / (twoPi * params.LPFCutoff)
		dt := 1.0 / float64(sampleRate)
		e.lpAlpha = dt / (rc + dt)
	}
	return e
}

// Apply handles one sequencer event. A note-on with velocity 0 is a
// note-off. Unknown messages are ignored.
func (e *Engine) Apply(ev *event.Event) {
	ch := ev.Channel()
	switch {
	case ev.IsNoteOn() && ev.Data2() > 0:
		e.noteOn(ch, ev.Data1()&0x7f, ev.Data2()&0x7f)
	case ev.IsNoteOn(), ev.IsNoteOff():
		e.noteOff(ch, ev.Data1()&0x7f)
	case ev.IsController():
		e.controller(ch, ev.Data1(), ev.Data2()&0x7f)
	}
}

func (e *Engine) noteOn(ch, note, velocity int) {
	v := &e.voices[e.steal()]
	*v = voice{
		active:   true,
		channel:  ch,
		note:     note,
		wave:     waveForChannel(ch),
		freq:     midiToFreq(note),
		velocity: float64(velocity) / 127,
		stage:    stageAttack,
		lfsr:     v.lfsr,
	}
	if v.lfsr == 0 {
		v.lfsr = 0xACE1
	}
}

func (e *Engine) noteOff(ch, note int) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.channel == ch && v.note == note && v.stage != stageRelease {
			v.stage = stageRelease
		}
	}
}

func (e *Engine) controller(ch, num, value int) {
	switch num {
	case CCVolume:
		e.volume[ch] = float64(value) / 127
	case CCModulation:
		e.depth[ch] = float64(value) / 127 * e.params.VibratoMax
	}
}

// AllNotesOff releases every sounding voice.
func (e *Engine) AllNotesOff() {
	for i := range e.voices {
		if e.voices[i].active {
			e.voices[i].stage = stageRelease
		}
	}
}

func (e *Engine) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	e.masterGain.Store(math.Float64bits(gain))
}

func (e *Engine) gain() float64 {
	return math.Float64frombits(e.masterGain.Load())
}

func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

func (e *Engine) RenderFrame() (float32, float32) {
	mod := e.vibrato.sample(e.sampleRate)
	g := e.gain()

	var sum float64
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		v.age++
		env := e.advance(v)
		if !v.active {
			continue
		}
		freq := v.freq
		if d := e.depth[v.channel]; d != 0 {
			freq *= math.Pow(2, mod*d/12)
		}
		level := quantize(env*(0.15+v.velocity*e.params.VelocityAmp), e.params.StepLevels)
		sum += e.render(v, freq) * level * e.volume[v.channel] * g
	}
	l := e.dcBlock(sum, &e.dcInL, &e.dcOutL)
	r := e.dcBlock(sum, &e.dcInR, &e.dcOutR)
	if e.lpAlpha > 0 {
		e.lpL += e.lpAlpha * (l - e.lpL)
		e.lpR += e.lpAlpha * (r - e.lpR)
		l, r = e.lpL, e.lpR
	}
	return float32(clamp(l, -1, 1)), float32(clamp(r, -1, 1))
}

func (e *Engine) dcBlock(x float64, in, out *float64) float64 {
	const pole = 0.995
	y := x - *in + pole**out
	*in = x
	*out = y
	return y
}

// polyBLEP smooths a discontinuity at phase t for phase increment dt.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (e *Engine) pulse(phase, dt, duty float64) float64 {
	out := -1.0
	if phase < duty {
		out = 1
	}
	out += polyBLEP(phase, dt)
	out -= polyBLEP(math.Mod(phase-duty+1, 1), dt)
	return out
}

func (e *Engine) render(v *voice, freq float64) float64 {
	dt := freq / e.sampleRate
	v.phase += dt
	if v.phase >= 1 {
		v.phase -= 1
	}
	switch v.wave {
	case wavePulse:
		return e.pulse(v.phase, dt, e.params.PulseDuty)
	case waveSquare:
		return e.pulse(v.phase, dt, 0.5)
	case waveTriangle:
		return 2*math.Abs(2*v.phase-1) - 1
	case waveNoise:
		if v.phase < dt {
			bit := (v.lfsr ^ (v.lfsr >> 1)) & 1
			v.lfsr = (v.lfsr >> 1) | (bit << 15)
		}
		if v.lfsr&1 == 1 {
			return 1
		}
		return -1
	}
	return 0
}

// steal picks a free voice, else the oldest releasing one, else the oldest.
func (e *Engine) steal() int {
	for i := range e.voices {
		if !e.voices[i].active {
			return i
		}
	}
	release, releaseAge := -1, -1
	oldest, oldestAge := 0, -1
	for i := range e.voices {
		v := &e.voices[i]
		if v.stage == stageRelease && v.age > releaseAge {
			release, releaseAge = i, v.age
		}
		if v.age > oldestAge {
			oldest, oldestAge = i, v.age
		}
	}
	if release >= 0 {
		return release
	}
	return oldest
}

func (e *Engine) advance(v *voice) float64 {
	p := e.params
	switch v.stage {
	case stageAttack:
		v.env += rate(1, p.AttackSec, e.sampleRate)
		if v.env >= 1 {
			v.env = 1
			v.stage = stageDecay
		}
	case stageDecay:
		v.env -= rate(1-p.SustainLvl, p.DecaySec, e.sampleRate)
		if v.env <= p.SustainLvl {
			v.env = p.SustainLvl
			v.stage = stageSustain
		}
	case stageRelease:
		v.env -= rate(math.Max(p.SustainLvl, 0.05), p.ReleaseSec, e.sampleRate)
		if v.env <= 0.0001 {
			v.env = 0
			v.stage = stageOff
			v.active = false
		}
	case stageOff:
		v.active = false
		v.env = 0
	}
	return v.env
}

// rate is the per-sample step covering span in sec seconds.
func rate(span, sec, sampleRate float64) float64 {
	step := span / (sec * sampleRate)
	if step <= 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return 1
	}
	return step
}

func midiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

func quantize(v float64, steps int) float64 {
	n := math.Round(v*float64(steps-1)) / float64(steps-1)
	return clamp(n, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
