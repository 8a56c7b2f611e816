package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbegin/padseq-go/internal/midiexport"
	"github.com/cbegin/padseq-go/internal/project"
)

var (
	exportOut string
	exportPad bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "midi file (default: project name with .mid)")
	exportCmd.Flags().BoolVar(&exportPad, "include-pad", false, "render recorded pad sessions into the tracks")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <project.xml>",
	Short: "Exports a project as a standard MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Load(args[0])
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = strings.TrimSuffix(args[0], ".xml") + ".mid"
		}
		if err := midiexport.WriteFile(out, p, midiexport.Options{IncludePad: exportPad}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d sequencers to %s\n", len(p.Sequencers), out)
		return nil
	},
}
