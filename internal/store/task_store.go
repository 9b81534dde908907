package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/tracker-sync/internal/model"
)

const taskColumns = "t.id, t.project_id, t.title, t.description, t.status, t.priority, t.created_at"

// ownedTasks joins tasks to the projects of a given owner.
const ownedTasks = "FROM tasks t JOIN projects p ON p.id = t.project_id WHERE p.owner_id = ?"

// CreateTask inserts a task into one of the owner's projects. Missing
// status and priority take their defaults.
func (s *SQLiteStore) CreateTask(
	ctx context.Context,
	ownerID int64,
	draft model.TaskDraft,
) (*model.Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetProjectByID(ctx, ownerID, draft.ProjectID); err != nil {
		return nil, err
	}

	draft = draft.WithDefaults()
	task := model.Task{
		ProjectID:   draft.ProjectID,
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Status:      draft.Status,
		Priority:    draft.Priority,
		CreatedAt:   time.Now().UTC(),
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (project_id, title, description, status, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		task.ProjectID, task.Title, task.Description, task.Status, task.Priority, task.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	if task.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading task id: %w", err)
	}
	return &task, nil
}

// GetTasks retrieves the owner's tasks, newest first. A projectID of zero
// returns tasks across all projects.
func (s *SQLiteStore) GetTasks(ctx context.Context, ownerID, projectID int64) ([]model.Task, error) {
	query := "SELECT " + taskColumns + " " + ownedTasks
	args := []any{ownerID}
	if projectID != 0 {
		query += " AND t.project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY t.id DESC"

	tasks := []model.Task{}
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}

// GetTaskByID retrieves a single task visible to ownerID.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, ownerID, id int64) (*model.Task, error) {
	var task model.Task
	err := s.db.GetContext(ctx, &task,
		"SELECT "+taskColumns+" "+ownedTasks+" AND t.id = ?", ownerID, id)
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	return &task, nil
}

// UpdateTask applies a partial update and returns the stored task.
func (s *SQLiteStore) UpdateTask(
	ctx context.Context,
	ownerID, id int64,
	patch model.TaskPatch,
) (*model.Task, error) {
	current, err := s.GetTaskByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	next := patch.Apply(*current)
	if strings.TrimSpace(next.Title) == "" {
		return nil, fmt.Errorf("task title must not be empty")
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?
		WHERE id = ?`,
		next.Title, next.Description, next.Status, next.Priority, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task %d: %w", id, err)
	}
	return &next, nil
}

// DeleteTask removes a task and its comments.
func (s *SQLiteStore) DeleteTask(ctx context.Context, ownerID, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM tasks WHERE id = ? AND project_id IN (
			SELECT id FROM projects WHERE owner_id = ?
		)`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	return expectRow(result, "task", id)
}

// Search matches query against project names and descriptions and task
// titles and descriptions, case-insensitively.
func (s *SQLiteStore) Search(ctx context.Context, ownerID int64, query string) (model.SearchResults, error) {
	out := model.SearchResults{Projects: []model.Project{}, Tasks: []model.Task{}}
	query = strings.TrimSpace(query)
	if query == "" {
		return out, nil
	}
	like := "%" + strings.ToLower(query) + "%"

	err := s.db.SelectContext(ctx, &out.Projects, `
		SELECT `+projectColumns+` FROM projects
		WHERE owner_id = ? AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)
		ORDER BY id DESC`, ownerID, like, like)
	if err != nil {
		return model.SearchResults{}, fmt.Errorf("searching projects: %w", err)
	}

	err = s.db.SelectContext(ctx, &out.Tasks,
		"SELECT "+taskColumns+" "+ownedTasks+
			" AND (LOWER(t.title) LIKE ? OR LOWER(t.description) LIKE ?) ORDER BY t.id DESC",
		ownerID, like, like)
	if err != nil {
		return model.SearchResults{}, fmt.Errorf("searching tasks: %w", err)
	}
	return out, nil
}
