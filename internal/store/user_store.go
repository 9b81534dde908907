package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/tracker-sync/internal/model"
)

const userColumns = "id, email, full_name, last_login"

// CreateUser inserts a new account. Emails are stored lower-cased.
func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("user email must not be empty")
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)",
		email, passwordHash, time.Now().UTC(),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("user %s: %w", email, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading user id: %w", err)
	}
	return &model.User{ID: id, Email: email}, nil
}

// GetUserByID retrieves a single user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user and their password hash.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var row struct {
		model.User
		PasswordHash string `db:"password_hash"`
	}
	err := s.db.GetContext(ctx, &row,
		"SELECT "+userColumns+", password_hash FROM users WHERE email = ?", email)
	if err != nil {
		return nil, "", notFound(err, "user", email)
	}
	return &row.User, row.PasswordHash, nil
}

// UpdateUserName sets the display name and returns the stored profile.
func (s *SQLiteStore) UpdateUserName(ctx context.Context, id int64, fullName string) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET full_name = ? WHERE id = ?", strings.TrimSpace(fullName), id)
	if err != nil {
		return nil, fmt.Errorf("updating user %d: %w", id, err)
	}
	if err := expectRow(result, "user", id); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

// TouchLastLogin records a successful login.
func (s *SQLiteStore) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("updating last login for user %d: %w", id, err)
	}
	return expectRow(result, "user", id)
}

// CreateSession issues a new opaque bearer token for userID.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID int64) (string, error) {
	token := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)",
		token, userID, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("creating session for user %d: %w", userID, err)
	}
	return token, nil
}

// UserIDForToken resolves a bearer token to its user.
func (s *SQLiteStore) UserIDForToken(ctx context.Context, token string) (int64, error) {
	var userID int64
	err := s.db.GetContext(ctx, &userID, "SELECT user_id FROM sessions WHERE token = ?", token)
	if err != nil {
		return 0, notFound(err, "session", "token")
	}
	return userID, nil
}

// DeleteSession revokes a token. Revoking an unknown token is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
