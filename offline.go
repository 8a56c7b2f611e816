// Package padseq plays and renders projects of pad-driven loop sequencers.
package padseq

import (
	"context"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	intaudio "github.com/cbegin/padseq-go/internal/audio"
	"github.com/cbegin/padseq-go/internal/debug"
	"github.com/cbegin/padseq-go/internal/project"
)

// Render plays proj from the start for the given duration without an audio
// device and returns interleaved stereo frames. Options that only concern
// the device are ignored.
func Render(ctx context.Context, proj *project.Project, sampleRate int, seconds float64, opts ...PlayerOption) ([]float32, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if seconds <= 0 || math.IsNaN(seconds) {
		return nil, errors.Errorf("render duration %v", seconds)
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	r, err := newRig(sampleRate, cfg)
	if err != nil {
		return nil, err
	}
	r.gain.Store(math.Float64bits(1))
	if err := r.load(ctx, proj); err != nil {
		return nil, err
	}
	if err := r.engine.Play(ctx); err != nil {
		return nil, err
	}

	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	src := intaudio.NewBounded(r, frames)
	block := r.engine.BlockSize() * 2
	for off := 0; !src.Finished(); off += block {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src.Process(out[off:min(off+block, len(out))])
	}
	if cfg.midiOut != nil {
		cfg.midiOut.Close()
	}
	debug.Log("render", "%d frames, %d events", frames, r.events.Load())
	return out, nil
}

// WriteWAV encodes interleaved stereo frames as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(clampSample(s) * 32767)
	}
	if err := enc.Write(buf); err != nil {
		return errors.Wrap(err, "encode wav")
	}
	return errors.Wrap(enc.Close(), "finish wav")
}

// RenderWAV renders proj and writes the result to path.
func RenderWAV(ctx context.Context, path string, proj *project.Project, sampleRate int, seconds float64, opts ...PlayerOption) error {
	samples, err := Render(ctx, proj, sampleRate, seconds, opts...)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := WriteWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	return errors.WithStack(f.Close())
}

func clampSample(s float32) float32 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}
