package handler

import (
	"net/http"

	"github.com/berauto/backend/internal/domain"
)

type roleRequest struct {
	Role domain.Role `json:"role"`
}

// handleListUsers implements GET /admin/users.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

// handleAssignRole implements PUT /admin/users/{id}/role.
func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	updated, err := s.users.AssignRole(r.Context(), actor, id, req.Role)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}
