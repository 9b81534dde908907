package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/tracker-sync/internal/collection"
	"github.com/nhle/tracker-sync/internal/model"
	"github.com/nhle/tracker-sync/internal/theme"
)

func tasksCmd(rt *runtime) *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and manage tasks",
		Long: "List and manage tasks. Tasks are read per project; without --project\n" +
			"every project of the account is visited in turn.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			ids, err := rt.projectIDs(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			var all []model.Task
			for _, id := range ids {
				tasks := rt.app.Tasks(id)
				if err := tasks.Load(cmd.Context()); err != nil {
					rt.flushToasts()
					return err
				}
				all = append(all, tasks.Items()...)
			}
			return rt.printTasks(all)
		},
	}
	cmd.PersistentFlags().Int64VarP(&projectID, "project", "p", 0, "Project the tasks belong to")

	cmd.AddCommand(
		taskAddCmd(rt, &projectID),
		taskToggleCmd(rt, &projectID),
		taskUpdateCmd(rt, &projectID),
		taskDeleteCmd(rt, &projectID),
		taskShowCmd(rt, &projectID),
	)
	return cmd
}

func taskAddCmd(rt *runtime, projectID *int64) *cobra.Command {
	var draft model.TaskDraft

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task in a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.ProjectID = *projectID
			if draft.ProjectID <= 0 {
				return fmt.Errorf("%w: --project is required", ErrUsage)
			}
			if err := validateTaskFlags(draft.Status, draft.Priority); err != nil {
				return err
			}
			if err := rt.requireLogin(); err != nil {
				return err
			}

			tasks := rt.app.Tasks(draft.ProjectID)
			if err := tasks.Load(cmd.Context()); err != nil {
				rt.flushToasts()
				return err
			}

			draft.Title = strings.Join(args, " ")
			task, err := tasks.Create(cmd.Context(), draft)
			rt.flushToasts()
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return rt.printJSON(task)
			}
			return rt.printTasks(tasks.Items())
		},
	}

	cmd.Flags().StringVarP(&draft.Description, "description", "d", "", "Task description (markdown)")
	cmd.Flags().StringVar(&draft.Status, "status", "", "pending, in_progress or completed")
	cmd.Flags().StringVar(&draft.Priority, "priority", "", "low, medium, high or critical")
	return cmd
}

func taskToggleCmd(rt *runtime, projectID *int64) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, task, err := rt.loadTask(cmd.Context(), *projectID, args[0])
			if err != nil {
				return err
			}

			updated, err := tasks.Update(cmd.Context(), task.ID, model.ToggleStatus(task))
			rt.flushToasts()
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return rt.printJSON(updated)
			}
			rt.printf("%s  %s\n", statusMark(updated), updated.Title)
			return nil
		},
	}
}

func taskUpdateCmd(rt *runtime, projectID *int64) *cobra.Command {
	var title, description, status, priority string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				patch.Status = &status
			}
			if flags.Changed("priority") {
				patch.Priority = &priority
			}
			if patch == (model.TaskPatch{}) {
				return fmt.Errorf("%w: nothing to update", ErrUsage)
			}
			if err := validateTaskFlags(status, priority); err != nil {
				return err
			}

			tasks, task, err := rt.loadTask(cmd.Context(), *projectID, args[0])
			if err != nil {
				return err
			}

			updated, err := tasks.Update(cmd.Context(), task.ID, patch)
			rt.flushToasts()
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return rt.printJSON(updated)
			}
			rt.printTask(updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description (markdown)")
	cmd.Flags().StringVar(&status, "status", "", "pending, in_progress or completed")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium, high or critical")
	return cmd
}

func taskDeleteCmd(rt *runtime, projectID *int64) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, task, err := rt.loadTask(cmd.Context(), *projectID, args[0])
			if err != nil {
				return err
			}

			err = tasks.Delete(cmd.Context(), task.ID)
			rt.flushToasts()
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return rt.printJSON(tasks.Items())
			}
			return rt.printTasks(tasks.Items())
		},
	}
}

func taskShowCmd(rt *runtime, projectID *int64) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a task with its description and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, task, err := rt.loadTask(cmd.Context(), *projectID, args[0])
			if err != nil {
				return err
			}
			comments, err := rt.app.Client.ListComments(cmd.Context(), task.ID)
			if err != nil {
				return err
			}

			if rt.jsonOut {
				return rt.printJSON(map[string]any{"task": task, "comments": comments})
			}
			rt.printTask(task)
			rt.printComments(comments)
			return nil
		},
	}
}

// loadTask finds task idArg and returns it with its project's loaded task
// collection, so mutations go through the cache. The server has no
// single-task read: the task is looked up in the project named by -p, or
// in each of the user's projects until it turns up.
func (rt *runtime) loadTask(ctx context.Context, projectID int64, idArg string) (*collection.Tasks, model.Task, error) {
	id, err := parseID(idArg, "task")
	if err != nil {
		return nil, model.Task{}, err
	}
	if err := rt.requireLogin(); err != nil {
		return nil, model.Task{}, err
	}

	ids, err := rt.projectIDs(ctx, projectID)
	if err != nil {
		return nil, model.Task{}, err
	}
	for _, pid := range ids {
		tasks := rt.app.Tasks(pid)
		if err := tasks.Load(ctx); err != nil {
			rt.flushToasts()
			return nil, model.Task{}, err
		}
		if task, ok := tasks.Get(id); ok {
			return tasks, task, nil
		}
	}
	return nil, model.Task{}, fmt.Errorf("task %d: %w", id, collection.ErrNotFound)
}

// projectIDs returns projectID when set, otherwise every project of the
// logged-in user.
func (rt *runtime) projectIDs(ctx context.Context, projectID int64) ([]int64, error) {
	if projectID > 0 {
		return []int64{projectID}, nil
	}
	projects, err := rt.app.Client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func validateTaskFlags(status, priority string) error {
	if status != "" && !model.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrUsage, status)
	}
	if priority != "" && !model.ValidPriority(priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrUsage, priority)
	}
	return nil
}

func (rt *runtime) printTasks(tasks []model.Task) error {
	if rt.jsonOut {
		return rt.printJSON(tasks)
	}
	if len(tasks) == 0 {
		rt.printf("No tasks.\n")
		return nil
	}

	color := isTerminal(rt.stdout)
	w := tabwriter.NewWriter(rt.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\t \tTITLE\tSTATUS\tPRIORITY\tPROJECT")
	for _, t := range tasks {
		status, priority := t.Status, t.Priority
		if color {
			status = theme.StatusStyle(t.Status).Render(status)
			priority = theme.PriorityStyle(t.Priority).Render(priority)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			t.ID, statusMark(t), truncate(t.Title, 50), status, priority, t.ProjectID)
	}
	return w.Flush()
}

func (rt *runtime) printTask(t model.Task) {
	rt.printf("#%d %s\n", t.ID, t.Title)
	rt.printf("Status:   %s\n", t.Status)
	rt.printf("Priority: %s\n", t.Priority)
	rt.printf("Project:  %d\n", t.ProjectID)
	if !t.CreatedAt.IsZero() {
		rt.printf("Created:  %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if desc := renderMarkdown(rt.stdout, t.Description, 80); desc != "" {
		rt.printf("\n%s\n", desc)
	}
}

func statusMark(t model.Task) string {
	switch t.Status {
	case model.StatusCompleted:
		return "[x]"
	case model.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}
