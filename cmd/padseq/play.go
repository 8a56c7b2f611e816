package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	padseq "github.com/cbegin/padseq-go"
	"github.com/cbegin/padseq-go/internal/midiout"
	"github.com/cbegin/padseq-go/internal/project"
)

var (
	playSeconds float64
	playMIDIOut string
	playVolume  float64
	playSave    bool
)

func init() {
	playCmd.Flags().Float64Var(&playSeconds, "seconds", 0, "stop after this long (0 plays until interrupted)")
	playCmd.Flags().StringVar(&playMIDIOut, "midi-out", "", "also send events to the first port containing this name")
	playCmd.Flags().Float64Var(&playVolume, "volume", 1, "master volume")
	playCmd.Flags().BoolVar(&playSave, "save", false, "write the project back when playback ends")
	rootCmd.AddCommand(playCmd)
}

// openPlayer loads the project at path into a player set up from the
// settings file and the shared flags.
func openPlayer(ctx context.Context, path string) (*padseq.Player, error) {
	p, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	opts := []padseq.PlayerOption{
		padseq.WithBlockSize(cfg.BlockSize),
		padseq.WithEffects(cfg.Effects),
	}
	port := playMIDIOut
	if port == "" {
		port = cfg.MIDIOut
	}
	if port != "" {
		out, err := midiout.Open(port)
		if err != nil {
			return nil, err
		}
		opts = append(opts, padseq.WithMIDIOut(out))
	}
	pl, err := padseq.NewPlayer(cfg.SampleRate, opts...)
	if err != nil {
		return nil, err
	}
	if err := pl.Load(ctx, p); err != nil {
		pl.Close()
		return nil, err
	}
	pl.SetMasterVolume(playVolume)
	return pl, nil
}

var playCmd = &cobra.Command{
	Use:   "play <project.xml>",
	Short: "Plays a project on the audio device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		pl, err := openPlayer(ctx, args[0])
		if err != nil {
			return err
		}
		defer pl.Close()
		if err := pl.Play(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "playing, ctrl+c to stop")

		if playSeconds > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(playSeconds*float64(time.Second)))
			defer cancel()
		}
		<-ctx.Done()

		// The signal context is done; the transport still needs a live one.
		bg := context.Background()
		if err := pl.Stop(bg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d events\n", pl.EventCount())
		if playSave {
			p, err := pl.Project(bg)
			if err != nil {
				return err
			}
			return project.Save(args[0], p)
		}
		return nil
	},
}
