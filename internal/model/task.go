package model

import (
	"errors"
	"strings"
	"time"
)

// Task status values as understood by the server.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task priority values.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ValidStatus reports whether s is one of the Status* constants.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the Priority* constants.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Task is a unit of work inside a project.
type Task struct {
	// ID is the server-assigned identifier.
	ID int64 `json:"id" db:"id"`

	// ProjectID links the task to its owning project.
	ProjectID int64 `json:"project_id" db:"project_id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description is the full body text, markdown allowed.
	Description string `json:"description" db:"description"`

	// Status is one of the Status* constants.
	Status string `json:"status" db:"status"`

	// Priority is one of the Priority* constants.
	Priority string `json:"priority" db:"priority"`

	// CreatedAt is when the server created the task.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RecordID returns the server-assigned identifier.
func (t Task) RecordID() int64 { return t.ID }

// Completed reports whether the task is in the completed state.
func (t Task) Completed() bool { return t.Status == StatusCompleted }

// TaskDraft holds the fields sent when creating a task.
type TaskDraft struct {
	ProjectID   int64  `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

// Validate checks the required fields of a draft.
func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("task title must not be empty")
	}
	return nil
}

// WithDefaults fills in the status and priority a new task starts with.
func (d TaskDraft) WithDefaults() TaskDraft {
	if d.Status == "" {
		d.Status = StatusPending
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	return d
}

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

// Apply returns a copy of t with the patch fields applied.
func (tp TaskPatch) Apply(t Task) Task {
	if tp.Title != nil {
		t.Title = *tp.Title
	}
	if tp.Description != nil {
		t.Description = *tp.Description
	}
	if tp.Status != nil {
		t.Status = *tp.Status
	}
	if tp.Priority != nil {
		t.Priority = *tp.Priority
	}
	return t
}

// ToggleStatus returns the patch that flips a task between pending and completed.
func ToggleStatus(t Task) TaskPatch {
	next := StatusCompleted
	if t.Completed() {
		next = StatusPending
	}
	return TaskPatch{Status: &next}
}

// Comment is a discussion entry attached to a task.
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	TaskID    int64     `json:"task_id" db:"task_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
