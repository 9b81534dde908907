package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nhle/tracker-sync/internal/model"
)

// CreateNotification queues an unread notification for userID.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	userID int64,
	message string,
) (*model.Notification, error) {
	n := model.Notification{Message: message, CreatedAt: time.Now().UTC()}
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO notifications (user_id, message, read, created_at) VALUES (?, ?, 0, ?)",
		userID, n.Message, n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	if n.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading notification id: %w", err)
	}
	return &n, nil
}

// GetNotifications retrieves all notifications for userID, newest first.
func (s *SQLiteStore) GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	notifications := []model.Notification{}
	err := s.db.SelectContext(ctx, &notifications, `
		SELECT id, message, read, created_at FROM notifications
		WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification %d as read: %w", id, err)
	}
	return expectRow(result, "notification", id)
}

// MarkAllNotificationsRead marks every notification of userID as read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0", userID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

// RecordActivity appends an entry to the user's activity feed.
func (s *SQLiteStore) RecordActivity(
	ctx context.Context,
	userID int64,
	action, targetType string,
	details map[string]any,
) error {
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshaling activity details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activities (user_id, action, target_type, details, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, action, targetType, string(detailsJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// GetActivity retrieves the most recent activity entries, newest first.
func (s *SQLiteStore) GetActivity(ctx context.Context, userID int64, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, action, target_type, details, created_at FROM activities
		WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		var (
			a           model.Activity
			detailsJSON string
		)
		if err := rows.Scan(&a.ID, &a.Action, &a.TargetType, &detailsJSON, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		if detailsJSON != "" {
			if err := json.Unmarshal([]byte(detailsJSON), &a.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling activity details: %w", err)
			}
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
