package collection

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/model"
	"github.com/nhle/tracker-sync/internal/toast"
)

// fakeTasks is an in-memory task backend. When calls is set, every
// mutation hands the test a reply channel and blocks until answered, so
// tests can observe the optimistic state mid-flight and pick the order in
// which overlapping calls complete.
type fakeTasks struct {
	mu      sync.Mutex
	server  []model.Task
	nextID  int64
	failErr error
	calls   chan chan error
}

func newFakeTasks(tasks ...model.Task) *fakeTasks {
	return &fakeTasks{server: tasks, nextID: 100}
}

func (f *fakeTasks) wait() error {
	if f.calls == nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.failErr
	}
	reply := make(chan error)
	f.calls <- reply
	return <-reply
}

func (f *fakeTasks) List(ctx context.Context) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	return append([]model.Task(nil), f.server...), nil
}

func (f *fakeTasks) Create(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	if err := f.wait(); err != nil {
		return model.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	d := draft.WithDefaults()
	t := model.Task{ID: f.nextID, ProjectID: d.ProjectID, Title: d.Title, Status: d.Status, Priority: d.Priority}
	f.server = append([]model.Task{t}, f.server...)
	return t, nil
}

func (f *fakeTasks) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	if err := f.wait(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.server {
		if f.server[i].ID == id {
			f.server[i] = patch.Apply(f.server[i])
			return nil, nil
		}
	}
	return nil, &api.ResponseError{Status: http.StatusNotFound, Message: "task not found"}
}

func (f *fakeTasks) Delete(ctx context.Context, id int64) error {
	if err := f.wait(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.server {
		if f.server[i].ID == id {
			f.server = append(f.server[:i], f.server[i+1:]...)
			return nil
		}
	}
	return nil
}

// projectsOnly has no Update method.
type projectsOnly struct{}

func (projectsOnly) List(context.Context) ([]model.Project, error) {
	return []model.Project{{ID: 1, Name: "Website"}}, nil
}

func (projectsOnly) Create(_ context.Context, d model.ProjectDraft) (model.Project, error) {
	return model.Project{ID: 2, Name: d.Name}, nil
}

func (projectsOnly) Delete(context.Context, int64) error { return nil }

func seed() []model.Task {
	return []model.Task{
		{ID: 1, ProjectID: 7, Title: "Design", Status: model.StatusPending, Priority: model.PriorityHigh, Description: "wireframes"},
		{ID: 2, ProjectID: 7, Title: "Build", Status: model.StatusInProgress, Priority: model.PriorityMedium},
		{ID: 3, ProjectID: 7, Title: "Ship", Status: model.StatusPending, Priority: model.PriorityLow},
	}
}

func newBus() *toast.Bus {
	return toast.New(toast.WithClock(clockwork.NewFakeClock()))
}

func lastToast(t *testing.T, b *toast.Bus) toast.Toast {
	t.Helper()
	all := b.Toasts()
	require.NotEmpty(t, all)
	return all[len(all)-1]
}

func strptr(s string) *string { return &s }

func loaded(t *testing.T, backend *fakeTasks, bus *toast.Bus) *Tasks {
	t.Helper()
	c := NewTasks(backend, WithToaster(bus))
	require.NoError(t, c.Load(context.Background()))
	return c
}

func TestCache_LoadReplaces(t *testing.T) {
	backend := newFakeTasks(seed()...)
	c := loaded(t, backend, newBus())
	assert.Equal(t, seed(), c.Items())

	backend.server = backend.server[:1]
	require.NoError(t, c.Load(context.Background()))
	assert.Len(t, c.Items(), 1)
}

func TestCache_LoadFailureToasts(t *testing.T) {
	backend := newFakeTasks(seed()...)
	bus := newBus()
	c := loaded(t, backend, bus)

	backend.failErr = &api.NetworkError{Method: "GET", Path: "/tasks", Err: errors.New("connection refused")}
	err := c.Load(context.Background())
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.Equal(t, seed(), c.Items(), "a failed load keeps the previous belief")
	assert.Equal(t, "Failed to load tasks.", lastToast(t, bus).Message)
}

func TestCache_CreateIsPessimistic(t *testing.T) {
	backend := newFakeTasks(seed()...)
	bus := newBus()
	c := loaded(t, backend, bus)

	backend.calls = make(chan chan error)

	done := make(chan model.Task)
	go func() {
		task, err := c.Create(context.Background(), model.TaskDraft{ProjectID: 7, Title: "Test"})
		assert.NoError(t, err)
		done <- task
	}()

	call := <-backend.calls
	assert.Len(t, c.Items(), 3, "nothing is inserted before confirmation")
	call <- nil

	created := <-done
	items := c.Items()
	require.Len(t, items, 4)
	assert.Equal(t, created, items[0], "confirmed record is prepended")
	assert.Equal(t, model.StatusPending, created.Status)

	got := lastToast(t, bus)
	assert.Equal(t, toast.Success, got.Severity)
	assert.Equal(t, "Task created.", got.Message)
}

func TestCache_CreateFailureLeavesCollection(t *testing.T) {
	backend := newFakeTasks(seed()...)
	bus := newBus()
	c := loaded(t, backend, bus)

	backend.failErr = &api.ResponseError{Status: http.StatusBadRequest, Message: "title too long"}
	_, err := c.Create(context.Background(), model.TaskDraft{Title: "x"})

	assert.ErrorIs(t, err, ErrMutationFailed)
	assert.Equal(t, seed(), c.Items())

	got := lastToast(t, bus)
	assert.Equal(t, toast.Error, got.Severity)
	assert.Equal(t, "title too long", got.Message)
}

func TestCache_CreateFailureGenericMessage(t *testing.T) {
	backend := newFakeTasks(seed()...)
	bus := newBus()
	c := loaded(t, backend, bus)

	backend.failErr = &api.NetworkError{Err: errors.New("timeout")}
	_, err := c.Create(context.Background(), model.TaskDraft{Title: "x"})

	assert.ErrorIs(t, err, ErrMutationFailed)
	assert.Equal(t, "Failed to create task", lastToast(t, bus).Message)
}

func TestCache_CreateRejectsBlankTitle(t *testing.T) {
	backend := newFakeTasks(seed()...)
	bus := newBus()
	c := loaded(t, backend, bus)

	_, err := c.Create(context.Background(), model.TaskDraft{Title: "   "})
	assert.ErrorIs(t, err, ErrMutationFailed)
	assert.Len(t, backend.server, 3)
	assert.Equal(t, "task title must not be empty", lastToast(t, bus).Message)
}

func TestCache_UpdateIsOptimistic(t *testing.T) {
	backend := newFakeTasks(seed()...)
	c := loaded(t, backend, newBus())

	backend.calls = make(chan chan error)

	done := make(chan error)
	go func() {
		_, err := c.Update(context.Background(), 1, model.TaskPatch{Status: strptr(model.StatusCompleted)})
		done <- err
	}()

	call := <-backend.calls
	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, model.StatusCompleted, got.Status, "applied before the server answers")

	call <- nil
	require.NoError(t, <-done)

	got, _ = c.Get(1)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestCache_UpdateFailureRestoresPreImage(t *testing.T) {
	backend := newFakeTasks(seed()...)
	bus := newBus()
	c := loaded(t, backend, bus)
	before, _ := c.Get(1)

	backend.failErr = &api.ResponseError{Status: http.StatusInternalServerError}
	_, err := c.Update(context.Background(), 1, model.TaskPatch{
		Title:       strptr("Redesign"),
		Status:      strptr(model.StatusCompleted),
		Priority:    strptr(model.PriorityLow),
		Description: strptr(""),
	})
	assert.ErrorIs(t, err, ErrMutationFailed)

	after, _ := c.Get(1)
	assert.Equal(t, before, after)
	assert.Equal(t, seed(), c.Items())
	assert.Equal(t, "Failed to update task", lastToast(t, bus).Message)
}

func TestCache_UpdateAdoptsServerRecord(t *testing.T) {
	backend := &serverEcho{fakeTasks: newFakeTasks(seed()...)}
	c := NewTasks(backend)
	require.NoError(t, c.Load(context.Background()))

	got, err := c.Update(context.Background(), 2, model.TaskPatch{Status: strptr(model.StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, "Build (edited by server)", got.Title)

	stored, _ := c.Get(2)
	assert.Equal(t, got, stored)
}

type serverEcho struct {
	*fakeTasks
}

func (s *serverEcho) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	for _, t := range s.server {
		if t.ID == id {
			t = patch.Apply(t)
			t.Title += " (edited by server)"
			return &t, nil
		}
	}
	return nil, errors.New("missing")
}

func TestCache_OverlappingFailedUpdatesLastRollbackWins(t *testing.T) {
	backend := newFakeTasks(seed()...)
	c := loaded(t, backend, newBus())

	backend.calls = make(chan chan error)

	first := make(chan error)
	go func() {
		_, err := c.Update(context.Background(), 1, model.TaskPatch{Title: strptr("A")})
		first <- err
	}()
	firstCall := <-backend.calls

	second := make(chan error)
	go func() {
		_, err := c.Update(context.Background(), 1, model.TaskPatch{Title: strptr("B")})
		second <- err
	}()
	secondCall := <-backend.calls

	got, _ := c.Get(1)
	assert.Equal(t, "B", got.Title)

	// The second update fails first and restores its own pre-image ("A"),
	// then the first fails and restores "Design".
	secondCall <- errors.New("boom")
	require.Error(t, <-second)
	got, _ = c.Get(1)
	assert.Equal(t, "A", got.Title)

	firstCall <- errors.New("boom")
	require.Error(t, <-first)
	got, _ = c.Get(1)
	assert.Equal(t, "Design", got.Title)
}

func TestCache_OverlappingUpdatesCanResurrectSupersededValue(t *testing.T) {
	backend := newFakeTasks(seed()...)
	c := loaded(t, backend, newBus())

	backend.calls = make(chan chan error)

	first := make(chan error)
	go func() {
		_, err := c.Update(context.Background(), 1, model.TaskPatch{Title: strptr("A")})
		first <- err
	}()
	firstCall := <-backend.calls

	second := make(chan error)
	go func() {
		_, err := c.Update(context.Background(), 1, model.TaskPatch{Title: strptr("B")})
		second <- err
	}()
	secondCall := <-backend.calls

	firstCall <- errors.New("boom")
	require.Error(t, <-first)
	secondCall <- errors.New("boom")
	require.Error(t, <-second)

	got, _ := c.Get(1)
	assert.Equal(t, "A", got.Title, "the later rollback reintroduces the superseded value")
}

func TestCache_UpdateUnknownID(t *testing.T) {
	c := loaded(t, newFakeTasks(seed()...), newBus())
	_, err := c.Update(context.Background(), 99, model.TaskPatch{Title: strptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_UpdateUnsupported(t *testing.T) {
	c := NewProjects(projectsOnly{})
	require.NoError(t, c.Load(context.Background()))

	_, err := c.Update(context.Background(), 1, model.ProjectPatch{Name: strptr("x")})
	assert.ErrorIs(t, err, ErrUpdateUnsupported)

	got, _ := c.Get(1)
	assert.Equal(t, "Website", got.Name)
}

func TestCache_DeleteIsOptimistic(t *testing.T) {
	backend := newFakeTasks(seed()...)
	bus := newBus()
	c := loaded(t, backend, bus)

	backend.calls = make(chan chan error)

	done := make(chan error)
	go func() { done <- c.Delete(context.Background(), 2) }()

	call := <-backend.calls
	_, ok := c.Get(2)
	assert.False(t, ok, "removed before the server answers")

	call <- nil
	require.NoError(t, <-done)
	assert.Len(t, c.Items(), 2)
	assert.Equal(t, "Task deleted.", lastToast(t, bus).Message)
}

func TestCache_DeleteFailureReinsertsAtIndex(t *testing.T) {
	for _, id := range []int64{1, 2, 3} {
		backend := newFakeTasks(seed()...)
		bus := newBus()
		c := loaded(t, backend, bus)

		backend.failErr = &api.ResponseError{Status: http.StatusForbidden, Message: "not your task"}
		err := c.Delete(context.Background(), id)

		assert.ErrorIs(t, err, ErrMutationFailed)
		assert.Equal(t, seed(), c.Items(), "id %d back at its index", id)
		assert.Equal(t, "not your task", lastToast(t, bus).Message)
	}
}

func TestCache_DeleteFailureAfterShrink(t *testing.T) {
	backend := newFakeTasks(seed()...)
	c := loaded(t, backend, newBus())

	backend.calls = make(chan chan error)

	done := make(chan error)
	go func() { done <- c.Delete(context.Background(), 3) }()
	slow := <-backend.calls

	// Another delete succeeds while the first is in flight.
	other := make(chan error)
	go func() { other <- c.Delete(context.Background(), 1) }()
	fast := <-backend.calls
	fast <- nil
	require.NoError(t, <-other)

	slow <- errors.New("boom")
	require.Error(t, <-done)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, int64(3), items[1].ID)
}

func TestCache_DiscardIgnoresLateCompletion(t *testing.T) {
	backend := newFakeTasks(seed()...)
	c := loaded(t, backend, newBus())

	backend.calls = make(chan chan error)

	done := make(chan error)
	go func() { done <- c.Delete(context.Background(), 1) }()
	call := <-backend.calls

	c.Discard()
	call <- errors.New("boom")

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrMutationFailed)
	case <-time.After(time.Second):
		t.Fatal("delete did not complete")
	}
	assert.Empty(t, c.Items())
}

func TestDefaultMessages(t *testing.T) {
	m := DefaultMessages("project")
	assert.Equal(t, "Project created.", m.Created)
	assert.Equal(t, "Failed to delete project", m.DeleteFailed)
	assert.Equal(t, "Failed to load projects.", m.LoadFailed)
}
