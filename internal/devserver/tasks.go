package devserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nhle/tracker-sync/internal/model"
)

// handleListTasks answers GET /tasks/{id}, where id names the project.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "Project")
	if !ok {
		return
	}
	if _, err := s.store.GetProjectByID(r.Context(), userID(r), projectID); err != nil {
		s.writeStoreError(w, r, err, "Project not found")
		return
	}

	tasks, err := s.store.GetTasks(r.Context(), userID(r), projectID)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	s.writeList(w, tasks)
}

// taskFields validates status and priority values.
func taskFields(status, priority *string) map[string][]string {
	fields := map[string][]string{}
	if status != nil && !model.ValidStatus(*status) {
		fields["status"] = []string{fmt.Sprintf("Unknown status %q", *status)}
	}
	if priority != nil && !model.ValidPriority(*priority) {
		fields["priority"] = []string{fmt.Sprintf("Unknown priority %q", *priority)}
	}
	return fields
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var draft model.TaskDraft
	if !decode(w, r, &draft) {
		return
	}
	draft = draft.WithDefaults()

	fields := taskFields(&draft.Status, &draft.Priority)
	if draft.Validate() != nil {
		fields["title"] = []string{"Title is required"}
	}
	if draft.ProjectID <= 0 {
		fields["project_id"] = []string{"Project is required"}
	}
	if len(fields) > 0 {
		writeFields(w, fields)
		return
	}

	task, err := s.store.CreateTask(r.Context(), userID(r), draft)
	if err != nil {
		s.writeStoreError(w, r, err, "Project not found")
		return
	}
	s.record(r, "created", "task", map[string]any{"title": task.Title, "project_id": task.ProjectID})
	s.notify(r, userID(r), fmt.Sprintf("New task created: %s", task.Title))
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}
	var patch model.TaskPatch
	if !decode(w, r, &patch) {
		return
	}

	fields := taskFields(patch.Status, patch.Priority)
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		fields["title"] = []string{"Title is required"}
	}
	if len(fields) > 0 {
		writeFields(w, fields)
		return
	}

	task, err := s.store.UpdateTask(r.Context(), userID(r), id, patch)
	if err != nil {
		s.writeStoreError(w, r, err, "Task not found")
		return
	}
	s.record(r, "updated", "task", map[string]any{"title": task.Title})
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}
	task, err := s.store.GetTaskByID(r.Context(), userID(r), id)
	if err != nil {
		s.writeStoreError(w, r, err, "Task not found")
		return
	}
	if err := s.store.DeleteTask(r.Context(), userID(r), id); err != nil {
		s.writeStoreError(w, r, err, "Task not found")
		return
	}
	s.record(r, "deleted", "task", map[string]any{"title": task.Title})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}
	if _, err := s.store.GetTaskByID(r.Context(), userID(r), id); err != nil {
		s.writeStoreError(w, r, err, "Task not found")
		return
	}
	comments, err := s.store.GetComments(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	s.writeList(w, comments)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeFields(w, map[string][]string{"content": {"Comment cannot be empty"}})
		return
	}

	task, err := s.store.GetTaskByID(r.Context(), userID(r), id)
	if err != nil {
		s.writeStoreError(w, r, err, "Task not found")
		return
	}
	comment, err := s.store.AddComment(r.Context(), id, userID(r), req.Content)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	s.record(r, "commented", "task", map[string]any{"title": task.Title})
	s.notify(r, userID(r), fmt.Sprintf("New comment on %s", task.Title))
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.Search(r.Context(), userID(r), r.URL.Query().Get("q"))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, results)
}
