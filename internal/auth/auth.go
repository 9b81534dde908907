// Package auth runs login, registration and logout against the gateway and
// records the outcome in the session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/model"
)

var (
	ErrMissingFields    = errors.New("email and password are required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrNoToken          = errors.New("no token received")
)

// Gateway is the subset of the API client used for authentication.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
}

// Session is where a successful login is recorded.
type Session interface {
	SetCredential(token string, user *model.User) error
	Clear() error
}

// Service coordinates credentials between the server and the session.
type Service struct {
	gateway Gateway
	session Session
	logger  *slog.Logger
}

// NewService creates a Service. A nil logger falls back to slog.Default.
func NewService(gateway Gateway, session Session, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, session: session, logger: logger}
}

// Login exchanges email and password for a token and stores it.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	resp, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token := resp.BearerToken()
	if token == "" {
		return nil, ErrNoToken
	}
	if err := s.session.SetCredential(token, resp.User); err != nil {
		return nil, fmt.Errorf("storing credential: %w", err)
	}
	return resp.User, nil
}

// Register creates an account. The returned bool reports whether the server
// also logged the user in; when it did not, the session is left untouched
// and the caller should send the user to Login.
func (s *Service) Register(ctx context.Context, email, password, confirm string) (*model.User, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, false, ErrMissingFields
	}
	if password != confirm {
		return nil, false, ErrPasswordMismatch
	}

	resp, err := s.gateway.Register(ctx, email, password)
	if err != nil {
		return nil, false, err
	}
	token := resp.BearerToken()
	if token == "" {
		return resp.User, false, nil
	}
	if err := s.session.SetCredential(token, resp.User); err != nil {
		return nil, false, fmt.Errorf("storing credential: %w", err)
	}
	return resp.User, true, nil
}

// Logout tells the server and then clears the local session. The server
// call is best-effort; the local clear always happens and only its error is
// returned.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.gateway.Logout(ctx); err != nil && !api.IsUnauthorized(err) {
		s.logger.Warn("server logout failed", "error", err)
	}
	return s.session.Clear()
}
