package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/padseq-go/internal/project"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fff"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888")).Width(12)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444")).Padding(0, 1)
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <project.xml|file.mid>",
	Short: "Summarizes a project or an exported MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(filepath.Ext(args[0])) {
		case ".mid", ".midi", ".smf":
			return inspectMIDI(cmd.OutOrStdout(), args[0])
		default:
			return inspectProject(cmd.OutOrStdout(), args[0])
		}
	},
}

func row(label string, format string, args ...any) string {
	return labelStyle.Render(label) + fmt.Sprintf(format, args...)
}

func inspectProject(w io.Writer, path string) error {
	p, err := project.Load(path)
	if err != nil {
		return err
	}
	loop := "off"
	if p.Loop.Enabled {
		loop = fmt.Sprintf("lines %d-%d", p.Loop.Start, p.Loop.Start+p.Loop.Length)
	}
	head := []string{
		titleStyle.Render(filepath.Base(path)),
		row("uid", "%s", p.UID),
		row("tempo", "%d bpm, %d lines/beat, shuffle %d", p.BPM, p.LPB, p.Shuffle),
		row("loop", "%s", loop),
	}
	fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, head...)))

	for _, st := range p.Sequencers {
		notes := 0
		for _, l := range st.Loops {
			notes += len(l)
		}
		gestures := 0
		for _, s := range st.Sessions {
			gestures += len(s.Motions)
		}
		var envs []string
		for _, e := range st.Envelopes {
			if e.Enabled {
				envs = append(envs, e.Name)
			}
		}
		lines := []string{
			titleStyle.Render(st.Name) + dimStyle.Render(" -> "+st.Sibling),
			row("loops", "%d (%d notes)", len(st.Loops), notes),
			row("sequence", "%d entries", len(st.Sequence)),
			row("pad", "%s, scale %d, octave %d", st.Pad.Mode, st.Pad.Scale, st.Pad.Octave),
			row("sessions", "%d (%d gestures)", len(st.Sessions), gestures),
		}
		if len(envs) > 0 {
			lines = append(lines, row("envelopes", "%s", strings.Join(envs, ", ")))
		}
		fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}
	return nil
}

func inspectMIDI(w io.Writer, path string) error {
	s, err := smf.ReadFile(path)
	if err != nil {
		return err
	}
	head := []string{
		titleStyle.Render(filepath.Base(path)),
		row("tracks", "%d", len(s.Tracks)),
		row("time", "%s", s.TimeFormat),
	}
	if tc := s.TempoChanges(); len(tc) > 0 {
		head = append(head, row("tempo", "%.0f bpm", tc[0].BPM))
	}
	fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, head...)))

	for i, tr := range s.Tracks {
		var name string
		var ons, total uint32
		for _, ev := range tr {
			total += ev.Delta
			var ch, key, vel uint8
			if ev.Message.GetNoteStart(&ch, &key, &vel) {
				ons++
			}
			if name == "" {
				ev.Message.GetMetaTrackName(&name)
			}
		}
		if name == "" {
			name = fmt.Sprintf("track %d", i)
		}
		fmt.Fprintln(w, row(name, "%d notes over %d ticks", ons, total))
	}
	return nil
}
