package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

type confirmModel struct {
	question string
	help     string

	answered bool
	answer   bool
	aborted  bool
}

func newConfirmModel(question, help string) confirmModel {
	return confirmModel{question: question, help: help}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.answered = true
		m.answer = true
		return m, tea.Quit
	case "n", "N", "enter":
		// Default answer is no.
		m.answered = true
		return m, tea.Quit
	case "esc", "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	}

	return m, nil
}

func (m confirmModel) View() string {
	out := m.question + "\n"
	if m.help != "" {
		out += statusStyle.Render(m.help) + "\n"
	}
	out += "\n" + helpStyle.Render("y yes    n no (default)")
	return appStyle.Render(out)
}

// Confirm asks a yes/no question and returns the answer; the default
// (enter) is no. ErrAborted is returned when the prompt is dismissed.
func Confirm(question, help string) (bool, error) {
	final, err := tea.NewProgram(newConfirmModel(question, help)).Run()
	if err != nil {
		return false, fmt.Errorf("run confirm prompt: %w", err)
	}

	m, ok := final.(confirmModel)
	if !ok || m.aborted || !m.answered {
		return false, ErrAborted
	}
	return m.answer, nil
}
