package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func searchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search projects and tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}

			results, err := rt.app.Client.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return rt.printJSON(results)
			}
			if results.Empty() {
				rt.printf("No matches.\n")
				return nil
			}
			if len(results.Projects) > 0 {
				rt.printf("Projects:\n")
				for _, p := range results.Projects {
					rt.printf("  %4d  %s\n", p.ID, p.Name)
				}
			}
			if len(results.Tasks) > 0 {
				rt.printf("Tasks:\n")
				for _, t := range results.Tasks {
					rt.printf("  %4d  %s %s\n", t.ID, statusMark(t), t.Title)
				}
			}
			return nil
		},
	}
}

func activityCmd(rt *runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show your recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}

			entries, err := rt.app.Client.ListActivity(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			if rt.jsonOut {
				return rt.printJSON(entries)
			}
			if len(entries) == 0 {
				rt.printf("No activity yet.\n")
				return nil
			}
			for _, a := range entries {
				rt.printf("%s  %s\n", a.Timestamp.Local().Format("2006-01-02 15:04"), a.Summary())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}
