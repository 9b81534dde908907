package api

import (
	"context"
	"fmt"

	"github.com/nhle/tracker-sync/internal/model"
)

// ListProjects calls GET /projects.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	return getList[model.Project](ctx, c, "/projects")
}

// GetProject calls GET /projects/:id.
func (c *Client) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var out model.Project
	if err := c.Get(ctx, fmt.Sprintf("/projects/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject calls POST /projects and returns the stored record.
func (c *Client) CreateProject(ctx context.Context, draft model.ProjectDraft) (model.Project, error) {
	var out model.Project
	if err := c.Post(ctx, "/projects", draft, &out); err != nil {
		return model.Project{}, err
	}
	return out, nil
}

// DeleteProject calls DELETE /projects/:id.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/projects/%d", id), nil)
}

// ProjectResource adapts the project endpoints to a collection backend.
// The contract has no project update, so it offers list, create and delete.
type ProjectResource struct {
	client *Client
}

// Projects returns the project collection resource.
func (c *Client) Projects() *ProjectResource {
	return &ProjectResource{client: c}
}

// List fetches every project visible to the user.
func (r *ProjectResource) List(ctx context.Context) ([]model.Project, error) {
	return r.client.ListProjects(ctx)
}

// Create stores a new project.
func (r *ProjectResource) Create(ctx context.Context, draft model.ProjectDraft) (model.Project, error) {
	return r.client.CreateProject(ctx, draft)
}

// Delete removes a project.
func (r *ProjectResource) Delete(ctx context.Context, id int64) error {
	return r.client.DeleteProject(ctx, id)
}
