// Command padseq plays, renders and exports padseq projects.
package main

import (
	"github.com/spf13/cobra"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the MIDI driver

	"github.com/cbegin/padseq-go/internal/config"
	"github.com/cbegin/padseq-go/internal/debug"
)

var (
	configPath string
	logPath    string
	cfg        = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "padseq",
	Short: "Pad driven loop sequencer",
	Long: `padseq plays projects of loop sequencers driven by recorded pad
gestures, renders them to WAV and exports them as standard MIDI files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if cmd.Flags().Changed("log") {
			cfg.Log.Enabled = true
			cfg.Log.Path = logPath
		}
		if cfg.Log.Enabled {
			return debug.Enable(cfg.Log.Path)
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		debug.Disable()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.Path(), "settings file")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write the debug log to this file")
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
