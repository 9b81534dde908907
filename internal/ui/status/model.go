// Package status is the Bubble Tea view of the sync layer: visible toasts
// on top, the notification feed with its unread count below.
package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/keys"
	"github.com/nhle/tracker-sync/internal/notify"
	"github.com/nhle/tracker-sync/internal/theme"
	"github.com/nhle/tracker-sync/internal/toast"
	"github.com/nhle/tracker-sync/internal/ui"
	helpview "github.com/nhle/tracker-sync/internal/ui/help"
)

// ToastsMsg carries the visible toasts after a change on the bus.
type ToastsMsg []toast.Toast

// SnapshotMsg carries a poller snapshot.
type SnapshotMsg notify.Snapshot

// SessionEndedMsg tells the view the session was cleared.
type SessionEndedMsg struct{}

// actionDoneMsg reports the result of a mark-read action.
type actionDoneMsg struct {
	err error
}

// Feed is the part of the poller the view drives.
type Feed interface {
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
	Refresh()
}

// Toasts is the part of the toast bus the view drives.
type Toasts interface {
	Dismiss(id int64) bool
	Error(message string) toast.Toast
}

// Model renders toasts and notifications.
type Model struct {
	feed      Feed
	bus       Toasts
	toastCh   <-chan []toast.Toast
	updates   <-chan notify.Snapshot
	keys      *keys.KeyMap
	help      help.Model
	overlay   helpview.Model
	layout    ui.Layout
	toasts    []toast.Toast
	snapshot  notify.Snapshot
	cursor    int
	showHelp  bool
	ended     bool
	userLabel string
}

// New creates the view. toastCh and updates are the subscription channels
// of the bus and the poller.
func New(
	feed Feed,
	bus Toasts,
	toastCh <-chan []toast.Toast,
	updates <-chan notify.Snapshot,
	userLabel string,
) Model {
	km := keys.DefaultKeyMap()
	return Model{
		feed:      feed,
		bus:       bus,
		toastCh:   toastCh,
		updates:   updates,
		keys:      km,
		help:      help.New(),
		overlay:   helpview.New(km, 80, 24),
		layout:    ui.NewLayout(80, 24),
		userLabel: userLabel,
	}
}

// Init starts listening on both channels.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForToasts(m.toastCh), waitForSnapshot(m.updates))
}

func waitForToasts(ch <-chan []toast.Toast) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ts, ok := <-ch
		if !ok {
			return nil
		}
		return ToastsMsg(ts)
	}
}

func waitForSnapshot(ch <-chan notify.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg(s)
	}
}

// Update handles messages for the view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.overlay.SetSize(msg.Width, msg.Height)
		return m, nil

	case ToastsMsg:
		m.toasts = msg
		return m, waitForToasts(m.toastCh)

	case SnapshotMsg:
		m.snapshot = notify.Snapshot(msg)
		m.cursor = min(m.cursor, max(0, len(m.snapshot.Notifications)-1))
		return m, waitForSnapshot(m.updates)

	case SessionEndedMsg:
		m.ended = true
		return m, tea.Quit

	case actionDoneMsg:
		if msg.err != nil && !api.IsUnauthorized(msg.err) {
			m.bus.Error(api.UserMessage(msg.err, "Failed to update notifications"))
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.snapshot.Notifications

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.MarkRead):
		if m.cursor < len(items) {
			id := items[m.cursor].ID
			return m, m.act(func(ctx context.Context) error { return m.feed.MarkRead(ctx, id) })
		}
	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.act(m.feed.MarkAllRead)
	case key.Matches(msg, m.keys.Refresh):
		m.feed.Refresh()
	case key.Matches(msg, m.keys.Dismiss):
		if len(m.toasts) > 0 {
			m.bus.Dismiss(m.toasts[len(m.toasts)-1].ID)
		}
	}
	return m, nil
}

// act runs a feed action off the update loop.
func (m Model) act(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return actionDoneMsg{err: fn(ctx)}
	}
}

// Ended reports whether the view quit because the session was cleared.
func (m Model) Ended() bool { return m.ended }

// Unread returns the unread count currently shown.
func (m Model) Unread() int { return m.snapshot.Unread }

// Toasts returns the toasts currently shown.
func (m Model) Toasts() []toast.Toast { return m.toasts }

// Cursor returns the index of the focused notification.
func (m Model) Cursor() int { return m.cursor }

// View renders the status surface.
func (m Model) View() string {
	badge := theme.UnreadBadgeStyle.Render(fmt.Sprintf("%d unread", m.snapshot.Unread))
	header := m.layout.RenderHeader("Tracker · "+m.userLabel, badge)

	var b strings.Builder
	for _, t := range m.toasts {
		b.WriteString(theme.ToastStyle(t.Severity).Render(t.Message))
		b.WriteString("\n")
	}

	if len(m.snapshot.Notifications) == 0 {
		b.WriteString(theme.DimmedStyle.Render("  No notifications"))
	}
	for i, n := range m.snapshot.Notifications {
		line := n.Message
		if !n.CreatedAt.IsZero() {
			line += theme.DimmedStyle.Render("  " + n.CreatedAt.Local().Format("Jan 2 15:04"))
		}
		style := theme.ListItemStyle
		if n.Read {
			style = style.Foreground(theme.ColorGray)
		}
		if i == m.cursor {
			style = theme.SelectedItemStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.overlay.View())
	}

	return m.layout.Frame(header, b.String(), m.layout.RenderStatusBar(m.statusLine()))
}

func (m Model) statusLine() string {
	parts := []string{m.snapshot.State.String()}
	if !m.snapshot.LastPoll.IsZero() {
		parts = append(parts, "updated "+m.snapshot.LastPoll.Local().Format("15:04:05"))
	}
	if m.snapshot.Err != nil {
		parts = append(parts, "last poll failed")
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	return strings.Join(parts, " · ")
}
