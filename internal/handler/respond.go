package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/middleware"
	"github.com/berauto/backend/internal/service"
)

// errorDetail is the machine-readable error payload.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// pagination echoes the effective paging values alongside a paged list.
type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// writeServiceError maps a service-layer error to its HTTP status.
// Unrecognized errors become a logged 500 with no internals in the body.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		s.writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", unwrapMessage(err, domain.ErrNotFound))
	case errors.Is(err, domain.ErrForbidden):
		s.writeError(w, http.StatusForbidden, "forbidden", unwrapMessage(err, domain.ErrForbidden))
	case errors.Is(err, domain.ErrConflict):
		s.writeError(w, http.StatusConflict, "conflict", unwrapMessage(err, domain.ErrConflict))
	case errors.Is(err, domain.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, "invalid_transition", unwrapMessage(err, domain.ErrInvalidTransition))
	default:
		s.log.ErrorContext(r.Context(), "unhandled service error", "path", r.URL.Path, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel
// error, e.g. "service.CarService.Create: validation error: make is required"
// becomes "make is required". Falls back to the full error string when the
// sentinel text is not found.
func unwrapMessage(err error, sentinel error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	return msg
}

// decodeJSON reads the request body into v. Returns false after writing a
// 422 response when the body is not valid JSON.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid JSON body")
		return false
	}
	return true
}

// pathID parses the {id} path parameter. Returns false after writing a 422
// response when it is not a UUID.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "validation_error", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// actorFromRequest builds the acting identity from the resolved session.
// The route policy keeps anonymous callers out of /agent and /admin, so a
// missing session here means the handler was wired outside those trees.
func (s *Server) actorFromRequest(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		s.writeError(w, http.StatusForbidden, "forbidden", "authentication required")
		return service.Actor{}, false
	}
	return service.Actor{ID: session.UserID, Role: session.Role}, true
}

// queryInt parses an optional positive integer query parameter.
// Absent or malformed values yield nil, letting defaults apply.
func queryInt(r *http.Request, key string) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
