package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/nhle/tracker-sync/internal/model"
)

// ListTasks calls GET /tasks/:projectId. The contract has no listing
// across projects and no single-task read.
func (c *Client) ListTasks(ctx context.Context, projectID int64) ([]model.Task, error) {
	if projectID <= 0 {
		return nil, &FieldError{Field: "project_id", Message: "project is required"}
	}
	return getList[model.Task](ctx, c, fmt.Sprintf("/tasks/%d", projectID))
}

// CreateTask calls POST /tasks.
func (c *Client) CreateTask(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	var out model.Task
	if err := c.Post(ctx, "/tasks", draft.WithDefaults(), &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

// UpdateTask calls PUT /tasks/:id. It returns nil when the server answers
// without a body.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	var out model.Task
	if err := c.Put(ctx, fmt.Sprintf("/tasks/%d", id), patch, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, nil
	}
	return &out, nil
}

// DeleteTask calls DELETE /tasks/:id.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/tasks/%d", id), nil)
}

// ListComments calls GET /tasks/:id/comments.
func (c *Client) ListComments(ctx context.Context, taskID int64) ([]model.Comment, error) {
	return getList[model.Comment](ctx, c, fmt.Sprintf("/tasks/%d/comments", taskID))
}

// AddComment calls POST /tasks/:id/comments. Blank content is rejected
// before any request is made.
func (c *Client) AddComment(ctx context.Context, taskID int64, content string) (model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return model.Comment{}, &FieldError{Field: "content", Message: "comment must not be empty"}
	}
	var out model.Comment
	body := map[string]string{"content": content}
	if err := c.Post(ctx, fmt.Sprintf("/tasks/%d/comments", taskID), body, &out); err != nil {
		return model.Comment{}, err
	}
	return out, nil
}

// Search calls GET /search?q=. A blank query returns empty results
// without touching the network.
func (c *Client) Search(ctx context.Context, query string) (model.SearchResults, error) {
	out := model.SearchResults{Projects: []model.Project{}, Tasks: []model.Task{}}
	if strings.TrimSpace(query) == "" {
		return out, nil
	}
	if err := c.Get(ctx, "/search?q="+url.QueryEscape(query), &out); err != nil {
		return model.SearchResults{}, err
	}
	return out, nil
}

// TaskResource adapts the task endpoints of one project to a collection
// backend. The project is view state owned by the caller, not the cache.
type TaskResource struct {
	client    *Client
	projectID int64
}

// Tasks returns the task collection resource scoped to projectID.
func (c *Client) Tasks(projectID int64) *TaskResource {
	return &TaskResource{client: c, projectID: projectID}
}

// ProjectID returns the project the resource is scoped to.
func (r *TaskResource) ProjectID() int64 { return r.projectID }

// List fetches the tasks of the project.
func (r *TaskResource) List(ctx context.Context) ([]model.Task, error) {
	return r.client.ListTasks(ctx, r.projectID)
}

// Create stores a new task in the project.
func (r *TaskResource) Create(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	if draft.ProjectID == 0 {
		draft.ProjectID = r.projectID
	}
	return r.client.CreateTask(ctx, draft)
}

// Update applies patch on the server.
func (r *TaskResource) Update(ctx context.Context, id int64, patch model.TaskPatch) (*model.Task, error) {
	return r.client.UpdateTask(ctx, id, patch)
}

// Delete removes a task.
func (r *TaskResource) Delete(ctx context.Context, id int64) error {
	return r.client.DeleteTask(ctx, id)
}
