package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type taskDoneMsg struct {
	err error
}

type spinnerModel struct {
	label   string
	spinner spinner.Model
	task    func() error

	err error
}

func newSpinnerModel(label string, task func() error) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return spinnerModel{label: label, spinner: s, task: task}
}

func (m spinnerModel) Init() tea.Cmd {
	run := func() tea.Msg {
		return taskDoneMsg{err: m.task()}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskDoneMsg:
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m spinnerModel) View() string {
	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// RunWithSpinner executes task while showing an animated spinner with the
// given label, returning the task's error.
func RunWithSpinner(label string, task func() error) error {
	final, err := tea.NewProgram(newSpinnerModel(label, task)).Run()
	if err != nil {
		return fmt.Errorf("run spinner: %w", err)
	}

	if m, ok := final.(spinnerModel); ok {
		return m.err
	}
	return nil
}
