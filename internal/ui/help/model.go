// Package help renders the keyboard shortcut overlay of the watch view.
package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracker-sync/internal/keys"
	"github.com/nhle/tracker-sync/internal/theme"
)

// Model is the help overlay.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a help overlay for km.
func New(km *keys.KeyMap, width, height int) Model {
	m := Model{keys: km, help: help.New()}
	m.SetSize(width, height)
	return m
}

// View renders every binding in columns inside a bordered panel.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Keyboard Shortcuts")

	m.help.ShowAll = true
	hint := theme.HelpStyle.MarginTop(1).Render("Press ? to close")
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.help.View(m.keys), hint)

	return theme.BorderStyle.
		Width(max(0, m.width-4)).
		Render(content)
}

// SetSize updates the overlay dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = max(0, width-4)
}
