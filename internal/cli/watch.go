package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func watchCmd(rt *runtime) *cobra.Command {
	var inline bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live notification view with unread count and messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}

			var opts []tea.ProgramOption
			if !inline {
				opts = append(opts, tea.WithAltScreen())
			}
			return rt.app.Watch(cmd.Context(), opts...)
		},
	}
	cmd.Flags().BoolVar(&inline, "inline", false, "Render below the prompt instead of full screen")
	return cmd
}
