package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracker-sync/internal/theme"
)

// Layout holds the terminal dimensions and the fixed rows around the
// content area.
type Layout struct {
	Width     int
	Height    int
	fixedRows int
}

// NewLayout creates a Layout with one header row and one status row.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height, fixedRows: 2}
}

// ContentHeight returns the rows left for content, never negative.
func (l Layout) ContentHeight() int {
	return max(0, l.Height-l.fixedRows)
}

// RenderHeader renders title on the left and badge on the right of a
// full-width header bar.
func (l Layout) RenderHeader(title, badge string) string {
	left := theme.HeaderStyle.Render(title)
	gap := max(0, l.Width-lipgloss.Width(left)-lipgloss.Width(badge))
	filler := theme.HeaderStyle.Width(gap).Padding(0).Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, badge)
}

// RenderStatusBar renders a full-width bottom bar.
func (l Layout) RenderStatusBar(text string) string {
	return theme.StatusBarStyle.Width(max(0, l.Width)).Render(text)
}

// Frame stacks header, content and status bar.
func (l Layout) Frame(header, content, statusBar string) string {
	body := lipgloss.NewStyle().Height(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}
