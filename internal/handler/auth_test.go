package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/middleware"
)

func TestRegister_201(t *testing.T) {
	accounts := &mockAuthServicer{
		register: func(_ context.Context, name, email, _ string) (domain.User, error) {
			return domain.User{ID: uuid.New(), Name: name, Email: email, Role: domain.RoleUser}, nil
		},
	}
	h, _ := newTestServer(serverMocks{accounts: accounts})

	body := jsonBody(t, map[string]string{
		"name":     "Nagy Anna",
		"email":    "anna@berauto.example",
		"password": "longenough",
	})
	rec := doRequest(h, httptest.NewRequest(http.MethodPost, "/register", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	got := decodeBody[domain.User](t, rec)
	assert.Equal(t, domain.RoleUser, got.Role)
	assert.Equal(t, "anna@berauto.example", got.Email)
}

func TestRegister_422_Validation(t *testing.T) {
	accounts := &mockAuthServicer{
		register: func(_ context.Context, _, _, _ string) (domain.User, error) {
			return domain.User{}, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
		},
	}
	h, _ := newTestServer(serverMocks{accounts: accounts})

	body := jsonBody(t, map[string]string{"name": "Nagy Anna", "email": "anna@berauto.example", "password": "short"})
	rec := doRequest(h, httptest.NewRequest(http.MethodPost, "/register", body))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "password must be at least 8 characters")
}

func TestRegister_409_DuplicateEmail(t *testing.T) {
	accounts := &mockAuthServicer{
		register: func(_ context.Context, _, _, _ string) (domain.User, error) {
			return domain.User{}, fmt.Errorf("service.AuthService.Register: %w", domain.ErrConflict)
		},
	}
	h, _ := newTestServer(serverMocks{accounts: accounts})

	body := jsonBody(t, map[string]string{"name": "Nagy Anna", "email": "anna@berauto.example", "password": "longenough"})
	rec := doRequest(h, httptest.NewRequest(http.MethodPost, "/register", body))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_200_SetsSessionCookie(t *testing.T) {
	account := domain.User{ID: uuid.New(), Email: "anna@berauto.example", Role: domain.RoleUser}
	accounts := &mockAuthServicer{
		verify: func(_ context.Context, email, password string) (domain.User, bool, error) {
			if email == account.Email && password == "longenough" {
				return account, true, nil
			}
			return domain.User{}, false, nil
		},
	}
	h, tokens := newTestServer(serverMocks{accounts: accounts})

	body := jsonBody(t, map[string]string{"email": account.Email, "password": "longenough"})
	rec := doRequest(h, httptest.NewRequest(http.MethodPost, "/login", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.True(t, cookie.HttpOnly)

	// The cookie's token resolves back to the signed-in user.
	session, ok := tokens.Resolve(cookie.Value)
	require.True(t, ok)
	assert.Equal(t, account.ID, session.UserID)
	assert.Equal(t, domain.RoleUser, session.Role)
}

func TestLogin_401_BadCredentials(t *testing.T) {
	accounts := &mockAuthServicer{
		verify: func(_ context.Context, _, _ string) (domain.User, bool, error) {
			return domain.User{}, false, nil
		},
	}
	h, _ := newTestServer(serverMocks{accounts: accounts})

	body := jsonBody(t, map[string]string{"email": "anna@berauto.example", "password": "wrong"})
	rec := doRequest(h, httptest.NewRequest(http.MethodPost, "/login", body))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}
