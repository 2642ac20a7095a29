// Package tui contains the interactive terminal prompts: the project
// picker, yes/no confirmation, and a spinner wrapper for long operations.
package tui

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olsync/olsync/models"
)

// ErrAborted is returned when the user dismisses a prompt without
// answering.
var ErrAborted = errors.New("aborted by user")

type pickerModel struct {
	projects []models.Project
	idx      int
	status   string

	choice  *models.Project
	aborted bool
}

func newPickerModel(projects []models.Project) pickerModel {
	return pickerModel{projects: projects}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.idx > 0 {
			m.idx--
		}
	case "down", "j":
		if m.idx < len(m.projects)-1 {
			m.idx++
		}
	case "enter":
		if len(m.projects) > 0 {
			project := m.projects[m.idx]
			m.choice = &project
		}
		return m, tea.Quit
	case "c":
		if len(m.projects) > 0 {
			if err := clipboard.WriteAll(m.projects[m.idx].ID); err != nil {
				m.status = "clipboard unavailable"
			} else {
				m.status = "copied " + m.projects[m.idx].ID
			}
		}
	case "q", "esc", "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	}

	return m, nil
}

func (m pickerModel) View() string {
	out := titleStyle.Render("Select project to clone") + "\n\n"

	if len(m.projects) == 0 {
		out += "No projects found\n"
	}
	for i, project := range m.projects {
		cursor := "  "
		if i == m.idx {
			cursor = "> "
		}
		out += fmt.Sprintf("%s%s\n", cursor, project.Name)
	}

	out += "\n" + helpStyle.Render("enter select    c copy id    q quit")
	if m.status != "" {
		out += "\n" + statusStyle.Render(m.status)
	}
	return appStyle.Render(out)
}

// SelectProject runs the interactive picker and returns the chosen
// project, or ErrAborted when the user quits without choosing.
func SelectProject(projects []models.Project) (models.Project, error) {
	final, err := tea.NewProgram(newPickerModel(projects)).Run()
	if err != nil {
		return models.Project{}, fmt.Errorf("run project picker: %w", err)
	}

	m, ok := final.(pickerModel)
	if !ok || m.aborted || m.choice == nil {
		return models.Project{}, ErrAborted
	}
	return *m.choice, nil
}
