package model

import (
	"errors"
	"strings"
	"time"
)

// Project is a grouping container for related tasks.
type Project struct {
	ID          int64     `json:"id" db:"id"`
	OwnerID     int64     `json:"owner_id,omitempty" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RecordID returns the server-assigned identifier.
func (p Project) RecordID() int64 { return p.ID }

// ProjectDraft holds the fields sent when creating a project.
type ProjectDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate checks the required fields of a draft.
func (d ProjectDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("project name must not be empty")
	}
	return nil
}

// ProjectPatch is a partial project update. Nil fields are left untouched.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Apply returns a copy of p with the patch fields applied.
func (pp ProjectPatch) Apply(p Project) Project {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	return p
}
