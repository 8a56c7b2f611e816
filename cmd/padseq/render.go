package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	padseq "github.com/cbegin/padseq-go"
	"github.com/cbegin/padseq-go/internal/project"
)

var (
	renderOut     string
	renderSeconds float64
	renderDry     bool
)

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "wav file (default: project name with .wav)")
	renderCmd.Flags().Float64Var(&renderSeconds, "seconds", 30, "length of the render")
	renderCmd.Flags().BoolVar(&renderDry, "dry", false, "skip the master effects")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <project.xml>",
	Short: "Renders a project to a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Load(args[0])
		if err != nil {
			return err
		}
		out := renderOut
		if out == "" {
			out = strings.TrimSuffix(args[0], ".xml") + ".wav"
		}
		opts := []padseq.PlayerOption{padseq.WithBlockSize(cfg.BlockSize)}
		if !renderDry {
			opts = append(opts, padseq.WithEffects(cfg.Effects))
		}
		if err := padseq.RenderWAV(cmd.Context(), out, p, cfg.SampleRate, renderSeconds, opts...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rendered %.1fs to %s\n", renderSeconds, out)
		return nil
	},
}
