package devserver

import "net/http"

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.store.GetNotifications(r.Context(), userID(r))
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	s.writeList(w, notifications)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Notification")
	if !ok {
		return
	}
	if err := s.store.MarkNotificationRead(r.Context(), userID(r), id); err != nil {
		s.writeStoreError(w, r, err, "Notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.MarkAllNotificationsRead(r.Context(), userID(r)); err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
