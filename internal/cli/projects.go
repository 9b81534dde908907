package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/tracker-sync/internal/collection"
	"github.com/nhle/tracker-sync/internal/model"
)

func projectsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "List and manage projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			projects := rt.app.Projects()
			if err := projects.Load(cmd.Context()); err != nil {
				rt.flushToasts()
				return err
			}
			return rt.printProjects(projects.Items())
		},
	}

	var description string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			projects := rt.app.Projects()
			if err := projects.Load(cmd.Context()); err != nil {
				rt.flushToasts()
				return err
			}

			p, err := projects.Create(cmd.Context(), model.ProjectDraft{Name: args[0], Description: description})
			rt.flushToasts()
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return rt.printJSON(p)
			}
			if err := rt.printProjects(projects.Items()); err != nil {
				return err
			}
			rt.printRecentActivity(cmd)
			return nil
		},
	}
	create.Flags().StringVarP(&description, "description", "d", "", "Project description")

	var yes bool
	del := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a project and its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if err := rt.requireLogin(); err != nil {
				return err
			}
			projects := rt.app.Projects()
			if err := projects.Load(cmd.Context()); err != nil {
				rt.flushToasts()
				return err
			}

			p, ok := projects.Get(id)
			if !ok {
				return fmt.Errorf("project %d: %w", id, collection.ErrNotFound)
			}
			if !yes {
				confirmed, err := rt.opts.Prompter.Confirm(fmt.Sprintf("Delete project %q and all its tasks?", p.Name))
				if err != nil {
					return err
				}
				if !confirmed {
					return ErrAborted
				}
			}

			err = projects.Delete(cmd.Context(), id)
			rt.flushToasts()
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return rt.printJSON(projects.Items())
			}
			if err := rt.printProjects(projects.Items()); err != nil {
				return err
			}
			rt.printRecentActivity(cmd)
			return nil
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	cmd.AddCommand(create, del)
	return cmd
}

func (rt *runtime) printProjects(projects []model.Project) error {
	if rt.jsonOut {
		return rt.printJSON(projects)
	}
	if len(projects) == 0 {
		rt.printf("No projects yet. Create one with `tracker projects create NAME`.\n")
		return nil
	}

	w := tabwriter.NewWriter(rt.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, p := range projects {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Name, truncate(p.Description, 50))
	}
	return w.Flush()
}

// printRecentActivity shows the head of the activity feed after a
// dashboard mutation. A failure here only logs.
func (rt *runtime) printRecentActivity(cmd *cobra.Command) {
	entries, err := rt.app.Client.ListActivity(cmd.Context())
	if err != nil {
		rt.app.Logger.Warn("loading activity", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}
	rt.printf("\nRecent activity:\n")
	for _, a := range entries[:min(len(entries), 5)] {
		rt.printf("  %s  %s\n", a.Timestamp.Local().Format("Jan 02 15:04"), a.Summary())
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
