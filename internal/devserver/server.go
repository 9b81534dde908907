// Package devserver serves the tracker HTTP API from a local SQLite store.
// It backs the integration tests and the tracker-devserver binary.
package devserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/tracker-sync/internal/store"
)

// Server is the development API server.
type Server struct {
	store      store.Store
	router     chi.Router
	logger     *slog.Logger
	bcryptCost int
	envelope   bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithBcryptCost overrides the password hashing cost. Tests use
// bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// WithListEnvelope wraps list responses in {"items": [...]}, the shape
// some deployments use.
func WithListEnvelope(enabled bool) Option {
	return func(s *Server) { s.envelope = enabled }
}

// New creates a server over st. Routes are mounted under /api.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:      st,
		logger:     slog.Default(),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)

			r.Post("/auth/logout", s.handleLogout)

			r.Get("/users/me", s.handleGetProfile)
			r.Put("/users/me", s.handleUpdateProfile)
			r.Get("/users/activity", s.handleActivity)

			r.Get("/projects", s.handleListProjects)
			r.Post("/projects", s.handleCreateProject)
			r.Get("/projects/{id}", s.handleGetProject)
			r.Delete("/projects/{id}", s.handleDeleteProject)

			r.Post("/tasks", s.handleCreateTask)
			r.Get("/tasks/{id}", s.handleListTasks)
			r.Put("/tasks/{id}", s.handleUpdateTask)
			r.Delete("/tasks/{id}", s.handleDeleteTask)
			r.Get("/tasks/{id}/comments", s.handleListComments)
			r.Post("/tasks/{id}/comments", s.handleAddComment)

			r.Get("/search", s.handleSearch)

			r.Get("/notifications", s.handleListNotifications)
			r.Post("/notifications/read-all", s.handleMarkAllRead)
			r.Post("/notifications/{id}/read", s.handleMarkRead)
		})
	})

	s.router = r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
