package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cbegin/padseq-go/internal/project"
)

var initBlank bool

func init() {
	initCmd.Flags().BoolVar(&initBlank, "blank", false, "write an empty project instead of the demo")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init <project.xml>",
	Short: "Writes a new project",
	Long: `Writes the demo project, or with --blank an empty project using the
tempo and loop region from the settings file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := project.Demo()
		if initBlank {
			p = project.New()
			p.BPM, p.LPB, p.Shuffle = cfg.BPM, cfg.LPB, cfg.Shuffle
			p.Loop = project.LoopRegion{Enabled: cfg.Loop.Enabled, Start: cfg.Loop.Start, Length: cfg.Loop.Length}
		}
		if err := project.Save(args[0], p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", args[0], p.UID)
		return nil
	},
}
