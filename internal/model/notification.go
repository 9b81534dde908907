package model

import "time"

// Notification represents an alert surfaced to the user from the
// server-side notification feed.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID int64 `json:"id" db:"id"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	// Locally it only ever flips from false to true.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CountUnread returns how many notifications in ns are unread.
func CountUnread(ns []Notification) int {
	n := 0
	for _, item := range ns {
		if !item.Read {
			n++
		}
	}
	return n
}
