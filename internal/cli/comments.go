package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/model"
)

func commentsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments TASK_ID",
		Short: "List the comments of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			if err := rt.requireLogin(); err != nil {
				return err
			}

			comments, err := rt.app.Client.ListComments(cmd.Context(), id)
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return rt.printJSON(comments)
			}
			rt.printComments(comments)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add TASK_ID TEXT",
		Short: "Comment on a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			if err := rt.requireLogin(); err != nil {
				return err
			}

			comment, err := rt.app.Client.AddComment(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				if !api.IsUnauthorized(err) {
					rt.app.Toasts.Error(api.UserMessage(err, "Failed to post comment"))
				}
				rt.flushToasts()
				return err
			}
			if rt.jsonOut {
				return rt.printJSON(comment)
			}
			rt.printComments([]model.Comment{comment})
			return nil
		},
	})

	return cmd
}

func (rt *runtime) printComments(comments []model.Comment) {
	if len(comments) == 0 {
		rt.printf("\nNo comments.\n")
		return
	}
	rt.printf("\nComments:\n")
	for _, c := range comments {
		author := c.UserName
		if author == "" {
			author = "unknown"
		}
		rt.printf("  %s (%s): %s\n", author, c.CreatedAt.Local().Format("Jan 02 15:04"), c.Content)
	}
}
