package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olsync/olsync/models"
)

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	panic("unknown key " + s)
}

func testProjects() []models.Project {
	return []models.Project{
		{ID: "p1", Name: "Thesis"},
		{ID: "p2", Name: "Paper"},
		{ID: "p3", Name: "Notes"},
	}
}

func TestPicker_NavigationAndSelection(t *testing.T) {
	m := newPickerModel(testProjects())

	next, _ := m.Update(key("down"))
	m = next.(pickerModel)
	next, _ = m.Update(key("j"))
	m = next.(pickerModel)
	assert.Equal(t, 2, m.idx)

	// Cursor stops at the bottom.
	next, _ = m.Update(key("down"))
	m = next.(pickerModel)
	assert.Equal(t, 2, m.idx)

	next, _ = m.Update(key("up"))
	m = next.(pickerModel)
	assert.Equal(t, 1, m.idx)

	next, cmd := m.Update(key("enter"))
	m = next.(pickerModel)
	require.NotNil(t, m.choice)
	assert.Equal(t, "p2", m.choice.ID)
	assert.NotNil(t, cmd, "enter should quit the program")
}

func TestPicker_Abort(t *testing.T) {
	m := newPickerModel(testProjects())

	next, _ := m.Update(key("q"))
	m = next.(pickerModel)
	assert.True(t, m.aborted)
	assert.Nil(t, m.choice)
}

func TestPicker_ViewShowsCursorAndProjects(t *testing.T) {
	m := newPickerModel(testProjects())

	view := m.View()
	assert.Contains(t, view, "> Thesis")
	assert.Contains(t, view, "Paper")
	assert.Contains(t, view, "copy id")
}

func TestPicker_CopySetsStatus(t *testing.T) {
	m := newPickerModel(testProjects())

	// Works with or without a system clipboard: either outcome sets a
	// status line.
	next, _ := m.Update(key("c"))
	m = next.(pickerModel)
	assert.NotEmpty(t, m.status)
}

func TestPicker_EmptyList(t *testing.T) {
	m := newPickerModel(nil)
	assert.Contains(t, m.View(), "No projects found")

	next, _ := m.Update(key("enter"))
	m = next.(pickerModel)
	assert.Nil(t, m.choice)
}

func TestConfirm_Answers(t *testing.T) {
	m := newConfirmModel("Proceed?", "")

	next, _ := m.Update(key("y"))
	got := next.(confirmModel)
	assert.True(t, got.answered)
	assert.True(t, got.answer)

	m = newConfirmModel("Proceed?", "")
	next, _ = m.Update(key("n"))
	got = next.(confirmModel)
	assert.True(t, got.answered)
	assert.False(t, got.answer)

	// Enter defaults to no.
	m = newConfirmModel("Proceed?", "")
	next, _ = m.Update(key("enter"))
	got = next.(confirmModel)
	assert.True(t, got.answered)
	assert.False(t, got.answer)

	m = newConfirmModel("Proceed?", "")
	next, _ = m.Update(key("esc"))
	got = next.(confirmModel)
	assert.True(t, got.aborted)
}

func TestConfirm_ViewShowsHelp(t *testing.T) {
	m := newConfirmModel("Overwrite local state?", "A backup will be created first.")
	view := m.View()
	assert.Contains(t, view, "Overwrite local state?")
	assert.Contains(t, view, "backup")
	assert.Contains(t, view, "n no (default)")
}

func TestSpinner_TaskResultPropagates(t *testing.T) {
	wantErr := assert.AnError
	m := newSpinnerModel("working", func() error { return wantErr })

	// Drive the model by hand: feed the completion message in directly.
	next, cmd := m.Update(taskDoneMsg{err: wantErr})
	got := next.(spinnerModel)
	assert.ErrorIs(t, got.err, wantErr)
	assert.NotNil(t, cmd, "completion should quit the program")
	assert.Contains(t, m.View(), "working")
}
