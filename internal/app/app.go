// Package app wires the sync layer together from configuration and runs
// the interactive watch view.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/auth"
	"github.com/nhle/tracker-sync/internal/collection"
	"github.com/nhle/tracker-sync/internal/credential"
	"github.com/nhle/tracker-sync/internal/model"
	"github.com/nhle/tracker-sync/internal/notify"
	"github.com/nhle/tracker-sync/internal/session"
	"github.com/nhle/tracker-sync/internal/toast"
	"github.com/nhle/tracker-sync/internal/ui/status"
)

// ErrSessionEnded is returned by Watch when the server rejected the
// session while the view was open.
var ErrSessionEnded = errors.New("session ended, please log in again")

// App holds the long-lived components of one client process.
type App struct {
	Config  *model.AppConfig
	Session *session.Session
	Client  *api.Client
	Auth    *auth.Service
	Toasts  *toast.Bus
	Poller  *notify.Poller
	Logger  *slog.Logger
}

// New builds an App over an existing token store.
func New(cfg *model.AppConfig, tokens session.TokenStore, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sess, err := session.New(tokens, session.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	client := api.NewClient(cfg.API.BaseURL, sess,
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithRetryIdempotent(cfg.API.RetryIdempotent),
		api.WithLogger(logger),
	)

	return &App{
		Config:  cfg,
		Session: sess,
		Client:  client,
		Auth:    auth.NewService(client, sess, logger),
		Toasts:  toast.New(toast.WithDuration(cfg.ToastDuration())),
		Poller: notify.New(client,
			notify.WithInterval(cfg.PollInterval()),
			notify.WithLogger(logger),
		),
		Logger: logger,
	}, nil
}

// Open builds an App whose token lives in the keyring described by cfg.
func Open(cfg *model.AppConfig, logger *slog.Logger) (*App, error) {
	tokens, err := credential.Open(cfg.Session)
	if err != nil {
		return nil, err
	}
	return New(cfg, tokens, logger)
}

// Close releases background resources.
func (a *App) Close() {
	a.Toasts.Close()
}

// Projects returns a project cache reporting to the app's toast bus.
func (a *App) Projects() *collection.Projects {
	return collection.NewProjects(a.Client.Projects(),
		collection.WithToaster(a.Toasts),
		collection.WithMessages(projectMessages()),
		collection.WithLogger(a.Logger),
	)
}

// Tasks returns a task cache for one project reporting to the app's toast bus.
func (a *App) Tasks(projectID int64) *collection.Tasks {
	return collection.NewTasks(a.Client.Tasks(projectID),
		collection.WithToaster(a.Toasts),
		collection.WithMessages(taskMessages()),
		collection.WithLogger(a.Logger),
	)
}

func projectMessages() collection.Messages {
	m := collection.DefaultMessages("project")
	m.Created = "Project created successfully."
	return m
}

// Task toggles are the usual update, so a failed one reports the status.
func taskMessages() collection.Messages {
	m := collection.DefaultMessages("task")
	m.Created = "Task added."
	m.CreateFailed = "Failed to add task"
	m.UpdateFailed = "Failed to update task status"
	return m
}

// Watch runs the status view until the user quits, ctx is cancelled, or
// the session is cleared. The poller runs only while the view is open.
func (a *App) Watch(ctx context.Context, opts ...tea.ProgramOption) error {
	toastCh, stopToasts := a.Toasts.Watch()
	defer stopToasts()

	stopPoller := a.Poller.Start(ctx)
	defer stopPoller()

	label := ""
	if u := a.Session.User(); u != nil {
		label = u.DisplayName()
	}

	view := status.New(a.Poller, a.Toasts, toastCh, a.Poller.Updates(), label)
	program := tea.NewProgram(view, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	unsubscribe := a.Session.OnChange(func(st session.State) {
		if st == session.Anonymous {
			program.Send(status.SessionEndedMsg{})
		}
	})
	defer unsubscribe()

	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running watch view: %w", err)
	}
	if m, ok := final.(status.Model); ok && m.Ended() {
		return ErrSessionEnded
	}
	return nil
}
