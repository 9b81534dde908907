package devserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/tracker-sync/internal/model"
	"github.com/nhle/tracker-sync/internal/store"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (c credentials) missing() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(c.Email) == "" {
		fields["email"] = []string{"Email is required"}
	} else if !strings.Contains(c.Email, "@") {
		fields["email"] = []string{"Email is invalid"}
	}
	if c.Password == "" {
		fields["password"] = []string{"Password is required"}
	}
	return fields
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	if fields := req.missing(); len(fields) > 0 {
		writeFields(w, fields)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.Email, string(hash))
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}

	token, err := s.store.CreateSession(r.Context(), user.ID)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	if fields := req.missing(); len(fields) > 0 {
		writeFields(w, fields)
		return
	}

	user, hash, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.writeStoreError(w, r, err, "")
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	now := time.Now().UTC()
	if err := s.store.TouchLastLogin(r.Context(), user.ID, now); err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	user.LastLogin = &now

	token, err := s.store.CreateSession(r.Context(), user.ID)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(r.Context(), bearer(r)); err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUserByID(r.Context(), userID(r))
	if err != nil {
		s.writeStoreError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		writeFields(w, map[string][]string{"full_name": {"Full name is required"}})
		return
	}

	user, err := s.store.UpdateUserName(r.Context(), userID(r), req.FullName)
	if err != nil {
		s.writeStoreError(w, r, err, "User not found")
		return
	}
	s.record(r, "updated", "profile", map[string]any{"name": user.FullName})
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	activities, err := s.store.GetActivity(r.Context(), userID(r), 50)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	s.writeList(w, activities)
}

// record appends to the caller's activity feed. Failures are logged only.
func (s *Server) record(r *http.Request, action, targetType string, details map[string]any) {
	if err := s.store.RecordActivity(r.Context(), userID(r), action, targetType, details); err != nil {
		s.logger.Warn("recording activity failed", "action", action, "error", err)
	}
}

// notify queues a notification for userID. Failures are logged only.
func (s *Server) notify(r *http.Request, uid int64, message string) {
	if _, err := s.store.CreateNotification(r.Context(), uid, message); err != nil {
		s.logger.Warn("creating notification failed", "error", err)
	}
}
