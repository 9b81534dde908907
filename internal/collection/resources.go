package collection

import "github.com/nhle/tracker-sync/internal/model"

// Projects is the project collection of the dashboard.
type Projects = Cache[model.Project, model.ProjectDraft, model.ProjectPatch]

// Tasks is the task collection of one project view.
type Tasks = Cache[model.Task, model.TaskDraft, model.TaskPatch]

// NewProjects creates a project cache over backend.
func NewProjects(backend Backend[model.Project, model.ProjectDraft], opts ...Option) *Projects {
	return New[model.Project, model.ProjectDraft, model.ProjectPatch](backend, "project", opts...)
}

// NewTasks creates a task cache over backend.
func NewTasks(backend Backend[model.Task, model.TaskDraft], opts ...Option) *Tasks {
	return New[model.Task, model.TaskDraft, model.TaskPatch](backend, "task", opts...)
}
