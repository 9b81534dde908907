package cli

import (
	"github.com/spf13/cobra"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/model"
)

func notificationsCmd(rt *runtime) *cobra.Command {
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif", "n"},
		Short:   "Show notifications",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			if err := rt.app.Poller.Poll(cmd.Context()); err != nil {
				return err
			}

			items := rt.app.Poller.Notifications()
			if unreadOnly {
				unread := items[:0:0]
				for _, n := range items {
					if !n.Read {
						unread = append(unread, n)
					}
				}
				items = unread
			}

			if rt.jsonOut {
				return rt.printJSON(map[string]any{
					"unread":        rt.app.Poller.Unread(),
					"notifications": items,
				})
			}
			rt.printNotifications(items, rt.app.Poller.Unread())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&unreadOnly, "unread", "u", false, "Only unread notifications")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "read ID",
			Short: "Mark a notification as read",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "notification")
				if err != nil {
					return err
				}
				if err := rt.requireLogin(); err != nil {
					return err
				}
				if err := rt.app.Poller.Poll(cmd.Context()); err != nil {
					return err
				}
				if err := rt.app.Poller.MarkRead(cmd.Context(), id); err != nil {
					return rt.notificationFailure(err)
				}
				return rt.printUnread()
			},
		},
		&cobra.Command{
			Use:   "read-all",
			Short: "Mark every notification as read",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := rt.requireLogin(); err != nil {
					return err
				}
				if err := rt.app.Poller.MarkAllRead(cmd.Context()); err != nil {
					return rt.notificationFailure(err)
				}
				return rt.printUnread()
			},
		},
	)

	return cmd
}

func (rt *runtime) notificationFailure(err error) error {
	if !api.IsUnauthorized(err) {
		rt.app.Toasts.Error(api.UserMessage(err, "Failed to update notifications"))
	}
	rt.flushToasts()
	return err
}

func (rt *runtime) printUnread() error {
	if rt.jsonOut {
		return rt.printJSON(map[string]int{"unread": rt.app.Poller.Unread()})
	}
	rt.printf("%d unread\n", rt.app.Poller.Unread())
	return nil
}

func (rt *runtime) printNotifications(items []model.Notification, unread int) {
	rt.printf("%d unread\n", unread)
	for _, n := range items {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		rt.printf("%s %4d  %s  %s\n", mark, n.ID, n.CreatedAt.Local().Format("Jan 02 15:04"), n.Message)
	}
}
