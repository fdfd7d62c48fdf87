package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type actionDoneMsg struct {
	err error
}

// actionSpinnerModel shows label until the synchronizer reports progress,
// then the latest progress line, typically the submitted transaction hash.
type actionSpinnerModel struct {
	spinner  spinner.Model
	label    string
	progress func() string
	current  string
	started  time.Time
	elapsed  time.Duration
	run      tea.Cmd
	err      error
	done     bool
}

func newActionSpinnerModel(label string, progress func() string, run tea.Cmd) actionSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return actionSpinnerModel{
		spinner:  s,
		label:    label,
		progress: progress,
		started:  time.Now(),
		run:      run,
	}
}

func (m actionSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m actionSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.progress != nil {
			m.current = m.progress()
		}
		m.elapsed = time.Since(m.started).Truncate(time.Second)
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case actionDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m actionSpinnerModel) View() string {
	if m.done {
		return ""
	}

	line := m.label
	if m.current != "" {
		line = m.current
	}
	if m.elapsed > 0 {
		line = fmt.Sprintf("%s (%s)", line, m.elapsed)
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), line)
}

// runActionSpinner shows a spinner on output until action returns, labelled
// with the latest line from progress or, before there is one, with label.
func runActionSpinner(ctx context.Context, output io.Writer, label string, progress func() string, action func(context.Context) error) error {
	runCmd := func() tea.Msg {
		return actionDoneMsg{err: action(ctx)}
	}

	p := tea.NewProgram(
		newActionSpinnerModel(label, progress, runCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(actionSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
