package devserver

import (
	"net/http"

	"github.com/nhle/tracker-sync/internal/model"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.GetProjects(r.Context(), userID(r))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	s.writeList(w, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var draft model.ProjectDraft
	if !decode(w, r, &draft) {
		return
	}
	if err := draft.Validate(); err != nil {
		writeFields(w, map[string][]string{"name": {"Project name is required"}})
		return
	}

	project, err := s.store.CreateProject(r.Context(), userID(r), draft)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	s.record(r, "created", "project", map[string]any{"name": project.Name})
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Project")
	if !ok {
		return
	}
	project, err := s.store.GetProjectByID(r.Context(), userID(r), id)
	if err != nil {
		s.writeStoreError(w, r, err, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Project")
	if !ok {
		return
	}
	project, err := s.store.GetProjectByID(r.Context(), userID(r), id)
	if err != nil {
		s.writeStoreError(w, r, err, "Project not found")
		return
	}
	if err := s.store.DeleteProject(r.Context(), userID(r), id); err != nil {
		s.writeStoreError(w, r, err, "Project not found")
		return
	}
	s.record(r, "deleted", "project", map[string]any{"name": project.Name})
	w.WriteHeader(http.StatusNoContent)
}
