package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/credential"
	"github.com/nhle/tracker-sync/internal/model"
	"github.com/nhle/tracker-sync/tests/testutil"
)

func newApp(t *testing.T, base string) *App {
	t.Helper()
	cfg := model.DefaultAppConfig()
	cfg.API.BaseURL = base

	a, err := New(cfg, credential.New(keyring.NewArrayKeyring(nil), "token"), testutil.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestApp_LoginThenCollections(t *testing.T) {
	base := testutil.NewDevServer(t)
	testutil.SignUp(t, base, "ana@example.com")
	ctx := context.Background()

	a := newApp(t, base)
	_, err := a.Auth.Login(ctx, "ana@example.com", "secret")
	require.NoError(t, err)

	projects := a.Projects()
	project, err := projects.Create(ctx, model.ProjectDraft{Name: "Website"})
	require.NoError(t, err)

	tasks := a.Tasks(project.ID)
	_, err = tasks.Create(ctx, model.TaskDraft{Title: "Wireframes"})
	require.NoError(t, err)

	toasts := a.Toasts.Toasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, "Project created successfully.", toasts[0].Message)
	assert.Equal(t, "Task added.", toasts[1].Message)

	require.NoError(t, a.Poller.Poll(ctx))
	assert.Equal(t, 1, a.Poller.Unread())
}

func TestApp_WatchEndsWhenSessionRevoked(t *testing.T) {
	base := testutil.NewDevServer(t)
	_, other := testutil.SignUp(t, base, "ana@example.com")
	token, _ := other.Current()

	a := newApp(t, base)
	require.NoError(t, a.Session.SetCredential(token, &model.User{Email: "ana@example.com"}))

	done := make(chan error, 1)
	go func() {
		done <- a.Watch(context.Background(),
			tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer())
	}()

	// Revoke the token server-side, then ask the poller to fetch.
	require.NoError(t, api.NewClient(base, other).Logout(context.Background()))
	a.Poller.Refresh()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSessionEnded)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not end after the session was revoked")
	}
	assert.False(t, a.Session.IsAuthenticated())
}

func TestApp_WatchStopsOnCancel(t *testing.T) {
	base := testutil.NewDevServer(t)
	_, sess := testutil.SignUp(t, base, "ana@example.com")
	token, _ := sess.Current()

	a := newApp(t, base)
	require.NoError(t, a.Session.SetCredential(token, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer())
	}()

	assert.Eventually(t, func() bool { return !a.Poller.Snapshot().LastPoll.IsZero() },
		5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.True(t, a.Session.IsAuthenticated())
}
