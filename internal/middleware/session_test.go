package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berauto/backend/internal/auth"
	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/middleware"
)

func newTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-test-secret", "berauto-test")
}

func issueToken(t *testing.T, tokens *auth.TokenManager, role domain.Role) string {
	t.Helper()
	token, err := tokens.Issue(domain.User{ID: uuid.New(), Role: role})
	require.NoError(t, err)
	return token
}

// sessionEchoHandler reports whether a session made it into the context.
var sessionEchoHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromContext(r.Context()) != nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusUnauthorized)
})

func TestSessionResolver_BearerHeader(t *testing.T) {
	tokens := newTokenManager()
	h := middleware.NewSessionResolver(tokens)(sessionEchoHandler)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/rentals", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, domain.RoleUser))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionResolver_Cookie(t *testing.T) {
	tokens := newTokenManager()
	h := middleware.NewSessionResolver(tokens)(sessionEchoHandler)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/rentals", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: issueToken(t, tokens, domain.RoleUser)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// A garbage token never errors; the request just continues anonymously.
func TestSessionResolver_InvalidTokenIsAnonymous(t *testing.T) {
	h := middleware.NewSessionResolver(newTokenManager())(sessionEchoHandler)

	req := httptest.NewRequest(http.MethodGet, "/cars", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// wrap chains the resolver and the authorizer the way the server does.
func wrap(tokens *auth.TokenManager, next http.Handler) http.Handler {
	return middleware.NewSessionResolver(tokens)(middleware.NewAuthorizer()(next))
}

func TestAuthorizer_AnonymousDashboardRedirectsToLogin(t *testing.T) {
	h := wrap(newTokenManager(), trivialHandler)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/rentals", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fdashboard%2Frentals", rec.Header().Get("Location"))
}

func TestAuthorizer_UserRoleOnAdminIsForbidden(t *testing.T) {
	tokens := newTokenManager()
	h := wrap(tokens, trivialHandler)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, domain.RoleUser))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())
}

func TestAuthorizer_AdminRoleOnAdminIsAllowed(t *testing.T) {
	tokens := newTokenManager()
	h := wrap(tokens, trivialHandler)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, domain.RoleAdmin))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorizer_SignedInLoginRedirectsToDashboard(t *testing.T) {
	tokens := newTokenManager()
	h := wrap(tokens, trivialHandler)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, domain.RoleUser))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestAuthorizer_PublicPathsStayOpen(t *testing.T) {
	h := wrap(newTokenManager(), trivialHandler)

	for _, path := range []string{"/cars", "/healthz", "/login", "/register"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
