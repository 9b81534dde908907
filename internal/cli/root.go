// Package cli holds the tracker commands. Each command opens the sync layer
// from configuration, runs one operation and prints the outcome together
// with any messages the operation raised.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nhle/tracker-sync/internal/app"
	"github.com/nhle/tracker-sync/internal/logging"
	"github.com/nhle/tracker-sync/internal/model"
)

var (
	// ErrNotLoggedIn is returned by commands that need a session when
	// there is none.
	ErrNotLoggedIn = errors.New("not logged in, run `tracker login` first")

	// ErrAborted is returned when the user cancels a prompt.
	ErrAborted = errors.New("aborted")
)

// Options customises how the root command builds its dependencies.
type Options struct {
	// Open builds the App from configuration. Defaults to app.Open.
	Open func(cfg *model.AppConfig, logger *slog.Logger) (*app.App, error)

	// Prompter asks for missing credentials. Defaults to huh forms.
	Prompter Prompter
}

// runtime is the state shared by every command of one invocation.
type runtime struct {
	opts       Options
	configPath string
	jsonOut    bool

	app    *app.App
	logs   io.Closer
	stdout io.Writer
	stderr io.Writer
}

// Execute runs the tracker command tree with args. The App opened for the
// command is closed afterwards whether or not the command failed.
func Execute(ctx context.Context, opts Options, args []string, stdout, stderr io.Writer) error {
	rt := newRuntime(opts)
	defer rt.close()

	cmd := newRootCmd(rt)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// NewRootCmd builds the tracker command tree. The App is closed when a
// command succeeds; use Execute to also close it after a failure.
func NewRootCmd(opts Options) *cobra.Command {
	return newRootCmd(newRuntime(opts))
}

func newRuntime(opts Options) *runtime {
	if opts.Open == nil {
		opts.Open = app.Open
	}
	if opts.Prompter == nil {
		opts.Prompter = huhPrompter{}
	}
	return &runtime{opts: opts}
}

func newRootCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Tracker - projects, tasks and notifications from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.open(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			rt.close()
		},
	}

	cmd.PersistentFlags().StringVar(&rt.configPath, "config", model.DefaultConfigPath(), "Path to the config file")
	cmd.PersistentFlags().BoolVar(&rt.jsonOut, "json", false, "Output in JSON format")

	cmd.AddCommand(
		loginCmd(rt),
		registerCmd(rt),
		logoutCmd(rt),
		whoamiCmd(rt),
		profileCmd(rt),
		projectsCmd(rt),
		tasksCmd(rt),
		commentsCmd(rt),
		notificationsCmd(rt),
		searchCmd(rt),
		activityCmd(rt),
		watchCmd(rt),
	)

	return cmd
}

func (rt *runtime) open(cmd *cobra.Command) error {
	rt.stdout = cmd.OutOrStdout()
	rt.stderr = cmd.ErrOrStderr()

	cfg, err := model.LoadConfig(rt.configPath)
	if err != nil {
		return err
	}

	logs, logger, err := logging.Init(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	rt.logs = logs

	a, err := rt.opts.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing client: %w", err)
	}
	rt.app = a
	return nil
}

func (rt *runtime) close() {
	if rt.app != nil {
		rt.app.Close()
		rt.app = nil
	}
	if rt.logs != nil {
		_ = rt.logs.Close()
		rt.logs = nil
	}
}

func (rt *runtime) requireLogin() error {
	if !rt.app.Session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	return nil
}
