// Package config loads and saves the YAML application settings.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/cbegin/padseq-go/internal/effects"
)

type Loop struct {
	Enabled bool `yaml:"enabled"`
	Start   int  `yaml:"start"`
	Length  int  `yaml:"length"`
}

type Pad struct {
	Width    int  `yaml:"width"`
	Height   int  `yaml:"height"`
	Quantize bool `yaml:"quantize"`
	Record   bool `yaml:"record"`
}

type Log struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

type Config struct {
	SampleRate int    `yaml:"sample_rate"`
	BlockSize  int    `yaml:"block_size"`
	BPM        int    `yaml:"bpm"`
	LPB        int    `yaml:"lpb"`
	Shuffle    int    `yaml:"shuffle"`
	Loop       Loop   `yaml:"loop"`
	Pad        Pad    `yaml:"pad"`
	MIDIOut    string `yaml:"midi_out,omitempty"`
	Log        Log    `yaml:"log"`

	// Effects is the master bus, applied in order.
	Effects []effects.Spec `yaml:"effects,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		BlockSize:  256,
		BPM:        120,
		LPB:        4,
		Loop:       Loop{Start: 0, Length: 16},
		Pad:        Pad{Width: 640, Height: 640},
	}
}

// Path is ~/.config/padseq/config.yaml.
func Path() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "padseq", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write config %s", path)
}
