package model

import (
	"fmt"
	"strings"
	"time"
)

// User is the profile attached to a credential.
type User struct {
	ID        int64      `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	FullName  string     `json:"full_name" db:"full_name"`
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// DisplayName returns the full name, falling back to the email address.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Email
}

// Activity is a single entry of the user's activity feed.
type Activity struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Summary renders the entry as a single line, e.g. `created project "Website"`.
func (a Activity) Summary() string {
	s := strings.TrimSpace(a.Action + " " + a.TargetType)
	for _, key := range []string{"title", "name"} {
		if v, ok := a.Details[key]; ok && v != nil {
			if str := fmt.Sprint(v); str != "" {
				s += fmt.Sprintf(" %q", str)
			}
		}
	}
	return s
}

// SearchResults is the response of a search query.
type SearchResults struct {
	Projects []Project `json:"projects"`
	Tasks    []Task    `json:"tasks"`
}

// Empty reports whether the search matched nothing.
func (r SearchResults) Empty() bool {
	return len(r.Projects) == 0 && len(r.Tasks) == 0
}
