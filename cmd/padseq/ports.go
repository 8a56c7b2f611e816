package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cbegin/padseq-go/internal/midiout"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Lists MIDI output ports",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ports := midiout.Ports()
		if len(ports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no MIDI output ports")
			return
		}
		for i, name := range ports {
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", i, name)
		}
	},
}
