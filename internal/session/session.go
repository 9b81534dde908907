// Package session owns the active bearer token and the
// authenticated/anonymous state derived from it.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nhle/tracker-sync/internal/credential"
	"github.com/nhle/tracker-sync/internal/model"
)

// State is the derived authentication state of a session.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// TokenStore is the durable storage behind a session.
// Load returns credential.ErrNotFound when nothing is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Delete() error
}

// ErrEmptyToken is returned by SetCredential for a blank token.
var ErrEmptyToken = errors.New("empty token")

// Session is the single source of truth for the current credential.
// Only login, register and logout write it; any goroutine may read it.
type Session struct {
	store  TokenStore
	logger *slog.Logger

	mu        sync.RWMutex
	token     string
	user      *model.User
	listeners map[int]func(State)
	nextID    int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a Session and hydrates it synchronously from store, so the
// first call to Current already reflects what was persisted.
func New(store TokenStore, opts ...Option) (*Session, error) {
	s := &Session{
		store:     store,
		logger:    slog.Default(),
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}

	token, err := store.Load()
	switch {
	case errors.Is(err, credential.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("hydrating session: %w", err)
	default:
		s.token = token
	}

	s.logger.Debug("session hydrated", "state", s.stateLocked())
	return s, nil
}

// SetCredential persists token and makes it the active credential,
// replacing any previous one. user may be nil. Memory is only updated
// after the durable write succeeds.
func (s *Session) SetCredential(token string, user *model.User) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	if err := s.store.Save(token); err != nil {
		s.mu.Unlock()
		s.logger.Error("persisting credential failed", "error", err)
		return fmt.Errorf("persisting credential: %w", err)
	}
	s.token = token
	s.user = copyUser(user)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, Authenticated)
	return nil
}

// SetUser replaces the cached profile without touching the token.
func (s *Session) SetUser(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return
	}
	s.user = copyUser(user)
}

// Clear drops the credential from memory and durable storage. The in-memory
// credential is always dropped. If removing the key fails, an empty token is
// written in its place, which Load reports as absent; only if that fails too
// is an error returned.
func (s *Session) Clear() error {
	s.mu.Lock()
	wasAuthenticated := s.token != ""
	s.token = ""
	s.user = nil

	var persistErr error
	if err := s.store.Delete(); err != nil {
		s.logger.Warn("deleting credential failed, blanking it", "error", err)
		if saveErr := s.store.Save(""); saveErr != nil {
			persistErr = fmt.Errorf("clearing credential: %w", errors.Join(err, saveErr))
		}
	}
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if persistErr != nil {
		s.logger.Error("credential may survive restart", "error", persistErr)
	}
	if wasAuthenticated {
		notify(listeners, Anonymous)
	}
	return persistErr
}

// Current returns the active token and whether there is one.
func (s *Session) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// User returns a copy of the profile attached to the credential, or nil.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

// State reports whether a credential is active.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// IsAuthenticated is shorthand for State() == Authenticated.
func (s *Session) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// OnChange registers fn to be called after every credential change with
// the resulting state. Clearing an already anonymous session does not fire.
// The returned function unregisters fn.
func (s *Session) OnChange(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) stateLocked() State {
	if s.token != "" {
		return Authenticated
	}
	return Anonymous
}

func (s *Session) listenersLocked() []func(State) {
	out := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(State), st State) {
	for _, fn := range listeners {
		fn(st)
	}
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
