package padseq

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	intaudio "github.com/cbegin/padseq-go/internal/audio"
	"github.com/cbegin/padseq-go/internal/debug"
	"github.com/cbegin/padseq-go/internal/effects"
	"github.com/cbegin/padseq-go/internal/event"
	"github.com/cbegin/padseq-go/internal/midiout"
	"github.com/cbegin/padseq-go/internal/project"
	intseq "github.com/cbegin/padseq-go/internal/sequencer"
	"github.com/cbegin/padseq-go/internal/synth"
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	blockSize int
	buffer    time.Duration
	midiOut   *midiout.Out
	sampleTap func([]float32)
	effects   []effects.Spec
	logPath   string
	logging   bool
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{blockSize: intseq.DefaultBlockSize}
}

// WithBlockSize sets the number of frames sequenced at a time.
func WithBlockSize(frames int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.blockSize = frames
	}
}

// WithBufferTime sets the audio device buffer. Zero keeps the driver default.
func WithBufferTime(d time.Duration) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.buffer = d
	}
}

// WithMIDIOut forwards every sequenced event to out as well. The player
// closes out when it is closed.
func WithMIDIOut(out *midiout.Out) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.midiOut = out
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// WithEffects sets the master bus, rebuilt with the project tempo on Load.
func WithEffects(specs []effects.Spec) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.effects = specs
	}
}

// WithLogging enables the debug log at path (empty for the default path).
func WithLogging(path string) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.logging = true
		cfg.logPath = path
	}
}

// rig is the engine with one synth per sequencer and the master bus. It is
// the SampleSource handed to the audio device.
type rig struct {
	engine *intseq.Engine
	rate   int

	mu     sync.Mutex // guards voices and chain
	voices []voice
	chain  *effects.Chain
	eq     *effects.EQ
	specs  []effects.Spec

	tap    func([]float32)
	events atomic.Int64
	gain   atomic.Uint64
}

func newRig(sampleRate int, cfg playerConfig) (*rig, error) {
	r := &rig{
		rate:   sampleRate,
		chain:  effects.NewChain(),
		eq:     effects.NewEQ(sampleRate),
		specs:  cfg.effects,
		tap:    cfg.sampleTap,
	}
	out := cfg.midiOut
	engine, err := intseq.NewEngine(sampleRate, intseq.Options{
		BlockSize: cfg.blockSize,
		OnEvent: func(seq string, offset int, e *event.Event) {
			r.events.Add(1)
			if out != nil {
				out.Tap(seq, offset, e)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return r, nil
}

type voice struct {
	engine *synth.Engine
	gain   float64
}

func (r *rig) newVoice(params synth.Params) *synth.Engine {
	e := synth.New(r.rate, params)
	r.mu.Lock()
	r.voices = append(r.voices, voice{engine: e, gain: params.MasterGain})
	r.applyGain()
	r.mu.Unlock()
	return e
}

// bind gives every new sequencer its own synth, with channel 10 routed to
// a drum voice.
func (r *rig) bind(intseq.State) (intseq.Controllers, intseq.Instrument) {
	mix := synth.NewMixer(r.newVoice(synth.DefaultParams()))
	mix.Route(9, r.newVoice(synth.DrumParams()))
	return intseq.GeneralMIDI, mix
}

// load must not hold mu while applying: an attached engine runs the
// operations from Process.
func (r *rig) load(ctx context.Context, p *project.Project) error {
	if err := p.Apply(ctx, r.engine, r.bind); err != nil {
		return err
	}
	chain, err := effects.Build(r.specs, r.rate, effects.Tempo{BPM: p.BPM, LPB: p.LPB})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.chain = chain
	r.mu.Unlock()
	return nil
}

// applyGain expects mu held.
func (r *rig) applyGain() {
	g := math.Float64frombits(r.gain.Load())
	for _, v := range r.voices {
		v.engine.SetMasterGain(v.gain * g)
	}
}

// Process renders, runs the bus and hands the result to the tap.
func (r *rig) Process(dst []float32) {
	r.engine.Process(dst)
	r.mu.Lock()
	chain := r.chain
	r.mu.Unlock()
	chain.ProcessBlock(dst)
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = r.eq.Process(dst[i], dst[i+1])
	}
	if r.tap != nil {
		r.tap(dst)
	}
}

// Player plays a project on the audio device and optionally a MIDI port.
// Every method may be called from any goroutine.
type Player struct {
	mu      sync.Mutex
	rig     *rig
	project *project.Project
	audio   *intaudio.Player
	buffer  time.Duration
	out     *midiout.Out
	volume  float64
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logging {
		if err := debug.Enable(cfg.logPath); err != nil {
			return nil, err
		}
	}
	r, err := newRig(sampleRate, cfg)
	if err != nil {
		return nil, err
	}
	r.gain.Store(math.Float64bits(1))
	return &Player{
		rig:     r,
		project: project.New(),
		buffer:  cfg.buffer,
		out:     cfg.midiOut,
		volume:  1,
	}, nil
}

// Engine exposes the sequencers and transport for editing.
func (p *Player) Engine() *intseq.Engine { return p.rig.engine }

// Load applies proj to the engine. Sequencers already playing under the
// same name are restored in place; new ones get a synth.
func (p *Player) Load(ctx context.Context, proj *project.Project) error {
	if err := p.rig.load(ctx, proj); err != nil {
		return err
	}
	p.mu.Lock()
	p.project = proj
	p.mu.Unlock()
	debug.Log("player", "loaded %s with %d sequencers", proj.UID, len(proj.Sequencers))
	return nil
}

// Project captures the current state into the loaded project.
func (p *Player) Project(ctx context.Context) (*project.Project, error) {
	p.mu.Lock()
	proj := p.project
	p.mu.Unlock()
	if err := proj.Capture(ctx, p.rig.engine); err != nil {
		return nil, err
	}
	return proj, nil
}

// Play opens the audio device on first use and starts the transport.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	if p.audio == nil {
		backend, err := intaudio.NewPlayer(p.rig.rate, p.rig, p.buffer)
		if err != nil {
			p.mu.Unlock()
			return err
		}
		p.rig.engine.Attach()
		p.audio = backend
	}
	p.audio.Play()
	p.mu.Unlock()
	return p.rig.engine.Play(ctx)
}

// Stop halts the transport. The device keeps running so releases finish.
func (p *Player) Stop(ctx context.Context) error {
	return p.rig.engine.Stop(ctx)
}

func (p *Player) Rewind(ctx context.Context) error {
	return p.rig.engine.Rewind(ctx)
}

// Close releases the device and the MIDI port.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.audio != nil {
		err = p.audio.Close()
		p.audio = nil
		p.rig.engine.Detach()
	}
	if p.out != nil {
		p.out.Close()
		p.out = nil
	}
	debug.Log("player", "closed")
	return err
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
	p.rig.gain.Store(math.Float64bits(volume))
	p.rig.mu.Lock()
	p.rig.applyGain()
	p.rig.mu.Unlock()
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
func (p *Player) SetEQBand(band int, gain float32) { p.rig.eq.SetGain(band, gain) }

func (p *Player) EQBand(band int) float32 { return p.rig.eq.Gain(band) }

// EventCount is the number of events sequenced since the player started.
func (p *Player) EventCount() int64 { return p.rig.events.Load() }

// PlaybackPosition returns the current output position of the audio driver,
// i.e. what the listener actually hears right now. Returns 0 if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return int64(a.Position().Seconds() * float64(p.rig.rate))
}
