package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	padseq "github.com/cbegin/padseq-go"
	"github.com/cbegin/padseq-go/internal/sequencer"
	"github.com/cbegin/padseq-go/internal/tick"
)

var (
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff"))
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("#444"))
	playheadStyle = lipgloss.NewStyle().Reverse(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
)

func init() {
	monitorCmd.Flags().StringVar(&playMIDIOut, "midi-out", "", "also send events to the first port containing this name")
	monitorCmd.Flags().Float64Var(&playVolume, "volume", 1, "master volume")
	rootCmd.AddCommand(monitorCmd)
}

var monitorCmd = &cobra.Command{
	Use:   "monitor <project.xml>",
	Short: "Plays a project with a live transport view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pl, err := openPlayer(ctx, args[0])
		if err != nil {
			return err
		}
		defer pl.Close()
		m, err := newMonitor(ctx, pl)
		if err != nil {
			return err
		}
		_, err = tea.NewProgram(m).Run()
		return err
	},
}

const (
	monitorLines = 16
	refresh      = 50 * time.Millisecond
)

type refreshMsg time.Time

type track struct {
	seq   *sequencer.Sequencer
	loops []int // loop id per visible line
}

type monitor struct {
	ctx    context.Context
	pl     *padseq.Player
	rows   []track
	status sequencer.Status
	cursor int
	err    error
}

func newMonitor(ctx context.Context, pl *padseq.Player) (*monitor, error) {
	seqs, err := pl.Engine().Sequencers(ctx)
	if err != nil {
		return nil, err
	}
	m := &monitor{ctx: ctx, pl: pl}
	for _, s := range seqs {
		m.rows = append(m.rows, track{seq: s})
	}
	m.poll()
	return m, nil
}

func refreshLater() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// first visible line, so the playhead stays on screen
func (m *monitor) first() int {
	return m.status.Line / monitorLines * monitorLines
}

func (m *monitor) poll() {
	st, err := m.pl.Engine().Status(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	m.status = st
	positions := make([]int, monitorLines)
	for i := range positions {
		positions[i] = m.first() + i
	}
	for i := range m.rows {
		ids, err := m.rows[i].seq.GetLoopIDsAt(m.ctx, positions)
		if err != nil {
			m.err = err
			return
		}
		m.rows[i].loops = ids
	}
}

func (m *monitor) Init() tea.Cmd {
	return refreshLater()
}

func (m *monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	eng := m.pl.Engine()
	switch msg := msg.(type) {
	case refreshMsg:
		m.poll()
		return m, refreshLater()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.status.Playing {
				m.err = m.pl.Stop(m.ctx)
			} else {
				m.err = m.pl.Play(m.ctx)
			}
		case "r":
			m.err = m.pl.Rewind(m.ctx)
		case "+", "=":
			m.err = eng.SetBPM(m.ctx, m.status.BPM+1)
		case "-":
			m.err = eng.SetBPM(m.ctx, m.status.BPM-1)
		case "l":
			m.err = eng.SetLoop(m.ctx, !m.status.Loop)
		case "j", "down":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "m":
			if len(m.rows) > 0 {
				s := m.rows[m.cursor].seq
				s.SetMute(!s.Mute())
			}
		}
		m.poll()
	}
	return m, nil
}

func (m *monitor) View() string {
	var b strings.Builder
	state := "stopped"
	if m.status.Playing {
		state = "playing"
	}
	loop := "loop off"
	if m.status.Loop {
		loop = fmt.Sprintf("loop %d+%d", m.status.LoopStart, m.status.LoopLength)
	}
	fmt.Fprintf(&b, "%s  %s  %d bpm  %d lpb  %s  line %d.%02d\n\n",
		activeStyle.Render("padseq"), state, m.status.BPM, m.status.LPB, loop, m.status.Line, m.status.Tick%tick.PerLine)

	for i, r := range m.rows {
		name := fmt.Sprintf("%-10.10s", r.seq.Name())
		if r.seq.Mute() {
			name = statusStyle.Render(name)
		}
		if i == m.cursor {
			name = cursorStyle.Render(name)
		}
		b.WriteString(name + " ")
		for j, id := range r.loops {
			cell := " . "
			if id >= 0 {
				cell = fmt.Sprintf("%2d ", id)
			}
			if m.first()+j == m.status.Line {
				cell = playheadStyle.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s\n", statusStyle.Render(fmt.Sprintf("%d events  space play/stop  r rewind  +/- tempo  l loop  m mute  q quit", m.pl.EventCount())))
	if m.err != nil {
		fmt.Fprintf(&b, "%s\n", m.err)
	}
	return b.String()
}
