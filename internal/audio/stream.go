// Package audio streams rendered frames to the ebiten audio device.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource fills interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can end. Once Finished reports
// true, the stream returns io.EOF after the current read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// Bounded stops a source after a fixed number of frames. Frames past the
// limit inside the last read are silent.
type Bounded struct {
	src  SampleSource
	left int
}

func NewBounded(src SampleSource, frames int) *Bounded {
	return &Bounded{src: src, left: frames}
}

func (b *Bounded) Process(dst []float32) {
	b.src.Process(dst)
	frames := len(dst) / 2
	if frames > b.left {
		clear(dst[b.left*2:])
		frames = b.left
	}
	b.left -= frames
}

func (b *Bounded) Finished() bool { return b.left <= 0 }

// StreamReader turns a SampleSource into the little endian float32 byte
// stream ebiten players read.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, s := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }

type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	contextOnce sync.Once
	context     *ebitaudio.Context
	contextRate int
)

// sharedContext returns the process wide audio context. ebiten allows only
// one, so every player must use the same sample rate.
func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio context already running at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

// NewPlayer opens the audio device for source. The buffer size trades
// latency against dropouts; zero keeps ebiten's default.
func NewPlayer(sampleRate int, source SampleSource, buffer time.Duration) (*Player, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	if buffer > 0 {
		pl.SetBufferSize(buffer)
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()           { p.player.Play() }
func (p *Player) Pause()          { p.player.Pause() }
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position is what the listener hears, behind what was rendered.
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Close() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
