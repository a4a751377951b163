package handler

import (
	"net/http"

	"github.com/berauto/backend/internal/auth"
	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/middleware"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// handleRegister implements POST /register. New accounts always start with
// role user.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	created, err := s.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// handleLogin implements POST /login. On success it returns the session
// token in the body for API clients and sets it as a cookie for browsers.
// Bad credentials get an identical 401 whether the email or the password
// was wrong.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	user, ok, err := s.accounts.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}
