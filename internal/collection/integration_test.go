package collection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/collection"
	"github.com/nhle/tracker-sync/internal/model"
	"github.com/nhle/tracker-sync/internal/toast"
	"github.com/nhle/tracker-sync/tests/testutil"
)

func projectNames(ps []model.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func taskIDs(ts []model.Task) []int64 {
	out := make([]int64, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func TestProjects_MatchServerAfterCreatesAndDeletes(t *testing.T) {
	base := testutil.NewDevServer(t)
	ctx := context.Background()
	client, _ := testutil.SignUp(t, base, "ana@example.com")

	bus := toast.New()
	defer bus.Close()
	projects := collection.NewProjects(client.Projects(), collection.WithToaster(bus))
	require.NoError(t, projects.Load(ctx))
	assert.Zero(t, projects.Len())

	var created []model.Project
	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
		p, err := projects.Create(ctx, model.ProjectDraft{Name: name})
		require.NoError(t, err)
		created = append(created, p)
	}
	require.NoError(t, projects.Delete(ctx, created[1].ID))
	require.NoError(t, projects.Delete(ctx, created[3].ID))

	local := projects.Items()

	fresh := collection.NewProjects(client.Projects())
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, projectNames(fresh.Items()), projectNames(local))
	assert.Equal(t, []string{"Gamma", "Alpha"}, projectNames(local))

	toasts := bus.Toasts()
	require.NotEmpty(t, toasts)
	assert.Equal(t, "Project deleted.", toasts[len(toasts)-1].Message)
}

func TestTasks_RejectedDeleteRollsBack(t *testing.T) {
	base := testutil.NewDevServer(t)
	ctx := context.Background()
	client, _ := testutil.SignUp(t, base, "ana@example.com")

	project, err := client.CreateProject(ctx, model.ProjectDraft{Name: "Website"})
	require.NoError(t, err)

	bus := toast.New()
	defer bus.Close()
	tasks := collection.NewTasks(client.Tasks(project.ID), collection.WithToaster(bus))
	require.NoError(t, tasks.Load(ctx))

	first, err := tasks.Create(ctx, model.TaskDraft{Title: "Wireframes"})
	require.NoError(t, err)
	second, err := tasks.Create(ctx, model.TaskDraft{Title: "Copy"})
	require.NoError(t, err)

	// Someone else removes the task on the server; our delete then 404s.
	require.NoError(t, client.DeleteTask(ctx, first.ID))
	err = tasks.Delete(ctx, first.ID)
	require.ErrorIs(t, err, collection.ErrMutationFailed)
	assert.Equal(t, []int64{second.ID, first.ID}, taskIDs(tasks.Items()), "restored at its index")
	assert.Equal(t, "Task not found", bus.Toasts()[len(bus.Toasts())-1].Message)

	// A reload converges on the server.
	require.NoError(t, tasks.Load(ctx))
	assert.Equal(t, []int64{second.ID}, taskIDs(tasks.Items()))
}

func TestTasks_ToggleConfirmedByServer(t *testing.T) {
	base := testutil.NewDevServer(t)
	ctx := context.Background()
	client, _ := testutil.SignUp(t, base, "ana@example.com")

	project, err := client.CreateProject(ctx, model.ProjectDraft{Name: "Website"})
	require.NoError(t, err)
	tasks := collection.NewTasks(client.Tasks(project.ID))
	require.NoError(t, tasks.Load(ctx))

	task, err := tasks.Create(ctx, model.TaskDraft{Title: "Wireframes"})
	require.NoError(t, err)

	updated, err := tasks.Update(ctx, task.ID, model.ToggleStatus(task))
	require.NoError(t, err)
	assert.True(t, updated.Completed())

	listed, err := client.ListTasks(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Completed())
}

func TestTasks_UnauthorizedUpdateClearsSession(t *testing.T) {
	base := testutil.NewDevServer(t)
	ctx := context.Background()
	client, sess := testutil.SignUp(t, base, "ana@example.com")

	project, err := client.CreateProject(ctx, model.ProjectDraft{Name: "Website"})
	require.NoError(t, err)
	tasks := collection.NewTasks(client.Tasks(project.ID))
	task, err := tasks.Create(ctx, model.TaskDraft{Title: "Wireframes"})
	require.NoError(t, err)

	require.NoError(t, client.Logout(ctx))

	_, err = tasks.Update(ctx, task.ID, model.ToggleStatus(task))
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.False(t, sess.IsAuthenticated())

	got, ok := tasks.Get(task.ID)
	require.True(t, ok)
	assert.False(t, got.Completed(), "rolled back")
}
