package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/berauto/backend/internal/auth"
)

// SessionCookie is the cookie the login handler sets and this middleware reads.
const SessionCookie = "session"

type sessionCtxKey struct{}

// NewSessionResolver returns a middleware that resolves the caller's session
// from the Authorization header (Bearer token) or, failing that, the session
// cookie, and stores it in the request context. An absent or invalid token is
// not an error: the request continues anonymously.
func NewSessionResolver(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session, ok := tokens.Resolve(bearerToken(r)); ok {
				r = r.WithContext(context.WithValue(r.Context(), sessionCtxKey{}, session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext returns the session resolved for this request, or nil
// for anonymous requests.
func SessionFromContext(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionCtxKey{}).(*auth.Session)
	return session
}

// bearerToken extracts the raw token from the Authorization header or the
// session cookie. Returns "" when neither is present.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// NewAuthorizer returns a middleware that applies the route policy to each
// request. Run it after NewSessionResolver.
//
//   - RedirectLogin becomes a 302 to /login?next=<path> so the caller lands
//     back where they were headed after signing in.
//   - RedirectDashboard becomes a 302 to /dashboard.
//   - Forbidden becomes a 403 JSON error.
func NewAuthorizer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch auth.Authorize(r.URL.Path, SessionFromContext(r.Context())) {
			case auth.RedirectLogin:
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
			case auth.RedirectDashboard:
				http.Redirect(w, r, "/dashboard", http.StatusFound)
			case auth.Forbidden:
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
