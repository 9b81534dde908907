package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/tracker-sync/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible
	// to the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("already exists")
)

// Store defines the persistence interface behind the development server:
// accounts and their bearer sessions, projects with their tasks and
// comments, and the per-user notification and activity feeds.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, string, error)
	UpdateUserName(ctx context.Context, id int64, fullName string) (*model.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error

	// === Sessions ===

	CreateSession(ctx context.Context, userID int64) (string, error)
	UserIDForToken(ctx context.Context, token string) (int64, error)
	DeleteSession(ctx context.Context, token string) error

	// === Projects ===

	CreateProject(ctx context.Context, ownerID int64, draft model.ProjectDraft) (*model.Project, error)
	GetProjects(ctx context.Context, ownerID int64) ([]model.Project, error)
	GetProjectByID(ctx context.Context, ownerID, id int64) (*model.Project, error)
	DeleteProject(ctx context.Context, ownerID, id int64) error

	// === Tasks ===

	CreateTask(ctx context.Context, ownerID int64, draft model.TaskDraft) (*model.Task, error)
	GetTasks(ctx context.Context, ownerID, projectID int64) ([]model.Task, error)
	GetTaskByID(ctx context.Context, ownerID, id int64) (*model.Task, error)
	UpdateTask(ctx context.Context, ownerID, id int64, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, ownerID, id int64) error
	Search(ctx context.Context, ownerID int64, query string) (model.SearchResults, error)

	// === Comments ===

	AddComment(ctx context.Context, taskID, userID int64, content string) (*model.Comment, error)
	GetComments(ctx context.Context, taskID int64) ([]model.Comment, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, userID int64, message string) (*model.Notification, error)
	GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error

	// === Activity ===

	RecordActivity(ctx context.Context, userID int64, action, targetType string, details map[string]any) error
	GetActivity(ctx context.Context, userID int64, limit int) ([]model.Activity, error)
}
