package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/tracker-sync/internal/model"
)

const projectColumns = "id, owner_id, name, description, created_at"

// CreateProject inserts a new project owned by ownerID.
func (s *SQLiteStore) CreateProject(
	ctx context.Context,
	ownerID int64,
	draft model.ProjectDraft,
) (*model.Project, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	project := model.Project{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(draft.Name),
		Description: draft.Description,
		CreatedAt:   time.Now().UTC(),
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (owner_id, name, description, created_at)
		VALUES (?, ?, ?, ?)`,
		project.OwnerID, project.Name, project.Description, project.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	if project.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading project id: %w", err)
	}
	return &project, nil
}

// GetProjects retrieves the owner's projects, newest first.
func (s *SQLiteStore) GetProjects(ctx context.Context, ownerID int64) ([]model.Project, error) {
	projects := []model.Project{}
	err := s.db.SelectContext(ctx, &projects,
		"SELECT "+projectColumns+" FROM projects WHERE owner_id = ? ORDER BY id DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	return projects, nil
}

// GetProjectByID retrieves a single project visible to ownerID.
func (s *SQLiteStore) GetProjectByID(
	ctx context.Context,
	ownerID, id int64,
) (*model.Project, error) {
	var project model.Project
	err := s.db.GetContext(ctx, &project,
		"SELECT "+projectColumns+" FROM projects WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return &project, nil
}

// DeleteProject removes a project. Its tasks and their comments go with it.
func (s *SQLiteStore) DeleteProject(ctx context.Context, ownerID, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM projects WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting project %d: %w", id, err)
	}
	return expectRow(result, "project", id)
}
