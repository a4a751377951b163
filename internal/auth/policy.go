package auth

import (
	"strings"

	"github.com/berauto/backend/internal/domain"
)

// Decision is the outcome of evaluating the route policy for one request.
type Decision int

const (
	// Allow lets the request through to its handler.
	Allow Decision = iota
	// RedirectLogin sends an anonymous caller to the login page, preserving
	// the intended destination.
	RedirectLogin
	// RedirectDashboard sends an already-authenticated caller away from the
	// login/register pages (no redirect loop).
	RedirectDashboard
	// Forbidden rejects an authenticated but under-privileged caller.
	Forbidden
)

// Authorize is the route authorization policy: a pure function from
// (request path, optional session) to a Decision. session is nil for
// anonymous requests.
//
// Rules are evaluated as ordered prefix matches, first match wins:
//
//  1. /agent…      agent or admin role required
//  2. /admin…      admin role required
//  3. /dashboard…  any session required
//  4. /login, /register   redirect to /dashboard when already signed in
//  5. anything else       allowed unconditionally
//
// A role-gated rule distinguishes the two deny cases: anonymous callers get
// RedirectLogin, signed-in callers with the wrong role get Forbidden.
func Authorize(path string, session *Session) Decision {
	switch {
	case strings.HasPrefix(path, "/agent"):
		return requireRole(session, domain.RoleAgent, domain.RoleAdmin)
	case strings.HasPrefix(path, "/admin"):
		return requireRole(session, domain.RoleAdmin)
	case strings.HasPrefix(path, "/dashboard"):
		return requireRole(session, domain.RoleUser, domain.RoleAgent, domain.RoleAdmin)
	case path == "/login" || path == "/register":
		if session != nil {
			return RedirectDashboard
		}
		return Allow
	default:
		return Allow
	}
}

func requireRole(session *Session, roles ...domain.Role) Decision {
	if session == nil {
		return RedirectLogin
	}
	for _, r := range roles {
		if session.Role == r {
			return Allow
		}
	}
	return Forbidden
}
