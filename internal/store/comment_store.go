package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/tracker-sync/internal/model"
)

// AddComment attaches a comment by userID to taskID. The returned comment
// carries the author's display name.
func (s *SQLiteStore) AddComment(
	ctx context.Context,
	taskID, userID int64,
	content string,
) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment must not be empty")
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO comments (task_id, user_id, content, created_at) VALUES (?, ?, ?, ?)",
		taskID, userID, content, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("adding comment to task %d: %w", taskID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading comment id: %w", err)
	}

	var c model.Comment
	if err := s.db.GetContext(ctx, &c, commentQuery+" WHERE c.id = ?", id); err != nil {
		return nil, notFound(err, "comment", id)
	}
	return &c, nil
}

// GetComments lists a task's comments, oldest first.
func (s *SQLiteStore) GetComments(ctx context.Context, taskID int64) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := s.db.SelectContext(ctx, &comments,
		commentQuery+" WHERE c.task_id = ? ORDER BY c.id", taskID)
	if err != nil {
		return nil, fmt.Errorf("querying comments for task %d: %w", taskID, err)
	}
	return comments, nil
}

const commentQuery = `
	SELECT c.id, c.task_id, c.user_id,
		COALESCE(NULLIF(u.full_name, ''), u.email) AS user_name,
		c.content, c.created_at
	FROM comments c JOIN users u ON u.id = c.user_id`
