package status

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tracker-sync/internal/model"
	"github.com/nhle/tracker-sync/internal/notify"
	"github.com/nhle/tracker-sync/internal/toast"
)

type fakeFeed struct {
	marked    []int64
	markedAll int
	refreshed int
	err       error
}

func (f *fakeFeed) MarkRead(_ context.Context, id int64) error {
	f.marked = append(f.marked, id)
	return f.err
}

func (f *fakeFeed) MarkAllRead(context.Context) error {
	f.markedAll++
	return f.err
}

func (f *fakeFeed) Refresh() { f.refreshed++ }

type fakeBus struct {
	dismissed []int64
	errors    []string
}

func (b *fakeBus) Dismiss(id int64) bool {
	b.dismissed = append(b.dismissed, id)
	return true
}

func (b *fakeBus) Error(message string) toast.Toast {
	b.errors = append(b.errors, message)
	return toast.Toast{Message: message, Severity: toast.Error}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func withFeed(t *testing.T, feed *fakeFeed, bus *fakeBus) Model {
	t.Helper()
	m := New(feed, bus, nil, nil, "ana@example.com")
	m, _ = step(t, m, SnapshotMsg(notify.Snapshot{
		Notifications: []model.Notification{
			{ID: 10, Message: "New task created: Wireframes"},
			{ID: 11, Message: "New comment on Wireframes"},
		},
		Unread: 2,
	}))
	return m
}

func TestModel_RendersToastsAndUnread(t *testing.T) {
	m := withFeed(t, &fakeFeed{}, &fakeBus{})
	m, _ = step(t, m, ToastsMsg{{ID: 1, Message: "Project created.", Severity: toast.Success}})

	view := m.View()
	assert.Contains(t, view, "2 unread")
	assert.Contains(t, view, "Project created.")
	assert.Contains(t, view, "New comment on Wireframes")
	assert.Equal(t, 2, m.Unread())
}

func TestModel_MarkReadFocusedNotification(t *testing.T) {
	feed := &fakeFeed{}
	m := withFeed(t, feed, &fakeBus{})

	m, _ = step(t, m, runes("j"))
	assert.Equal(t, 1, m.Cursor())
	m, _ = step(t, m, runes("j"))
	assert.Equal(t, 1, m.Cursor(), "clamped at the end")

	_, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, []int64{11}, feed.marked)
	assert.Equal(t, actionDoneMsg{}, msg)
}

func TestModel_FailedActionRaisesToast(t *testing.T) {
	feed := &fakeFeed{err: errors.New("offline")}
	bus := &fakeBus{}
	m := withFeed(t, feed, bus)

	m, cmd := step(t, m, runes("a"))
	require.NotNil(t, cmd)
	_, _ = step(t, m, cmd())

	assert.Equal(t, 1, feed.markedAll)
	assert.Equal(t, []string{"Failed to update notifications"}, bus.errors)
}

func TestModel_RefreshAndDismiss(t *testing.T) {
	feed := &fakeFeed{}
	bus := &fakeBus{}
	m := withFeed(t, feed, bus)
	m, _ = step(t, m, ToastsMsg{{ID: 1, Message: "a"}, {ID: 2, Message: "b"}})

	m, _ = step(t, m, runes("r"))
	_, _ = step(t, m, runes("x"))

	assert.Equal(t, 1, feed.refreshed)
	assert.Equal(t, []int64{2}, bus.dismissed, "newest toast first")
}

func TestModel_SnapshotShrinkClampsCursor(t *testing.T) {
	m := withFeed(t, &fakeFeed{}, &fakeBus{})
	m, _ = step(t, m, runes("j"))

	m, _ = step(t, m, SnapshotMsg(notify.Snapshot{
		Notifications: []model.Notification{{ID: 10, Message: "only"}},
		Unread:        1,
	}))
	assert.Equal(t, 0, m.Cursor())
}

func TestModel_QuitsWhenSessionEnds(t *testing.T) {
	m := withFeed(t, &fakeFeed{}, &fakeBus{})

	m, cmd := step(t, m, SessionEndedMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Ended())
}

func TestModel_WaitsOnChannels(t *testing.T) {
	toastCh := make(chan []toast.Toast, 1)
	toastCh <- []toast.Toast{{ID: 3, Message: "Task deleted."}}

	m := New(&fakeFeed{}, &fakeBus{}, toastCh, nil, "")
	msg := waitForToasts(toastCh)()
	require.IsType(t, ToastsMsg{}, msg)

	m, cmd := step(t, m, msg)
	assert.Len(t, m.Toasts(), 1)
	assert.NotNil(t, cmd, "keeps listening")

	close(toastCh)
	assert.Nil(t, waitForToasts(toastCh)())
}

func TestModel_HelpOverlayToggles(t *testing.T) {
	m := withFeed(t, &fakeFeed{}, &fakeBus{})
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")

	m, _ = step(t, m, runes("?"))
	view := m.View()
	assert.Contains(t, view, "Keyboard Shortcuts")
	assert.Contains(t, view, "mark read")

	m, _ = step(t, m, runes("?"))
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")
}
