package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berauto/backend/internal/auth"
	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/handler"
	"github.com/berauto/backend/internal/middleware"
	"github.com/berauto/backend/internal/service"
)

// mockRentalServicer is a test double for handler.RentalServicer.
// Set only the method fields your test needs.
type mockRentalServicer struct {
	request    func(ctx context.Context, carID uuid.UUID, req service.Requester, start, end time.Time) (domain.Rental, error)
	decide     func(ctx context.Context, rentalID uuid.UUID, actor service.Actor, approve bool, notes string) (domain.Rental, error)
	handover   func(ctx context.Context, rentalID uuid.UUID, actor service.Actor, mileageKm int) (domain.Rental, error)
	ret        func(ctx context.Context, rentalID uuid.UUID, actor service.Actor, mileageKm int) (domain.Rental, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.Rental, error)
	list       func(ctx context.Context, status *domain.RentalStatus, p domain.PaginationParams) ([]domain.Rental, int, error)
	listByUser func(ctx context.Context, userID uuid.UUID) ([]domain.Rental, error)
	events     func(ctx context.Context, rentalID uuid.UUID) ([]domain.RentalEvent, error)
}

func (m *mockRentalServicer) Request(ctx context.Context, carID uuid.UUID, req service.Requester, start, end time.Time) (domain.Rental, error) {
	return m.request(ctx, carID, req, start, end)
}
func (m *mockRentalServicer) Decide(ctx context.Context, rentalID uuid.UUID, actor service.Actor, approve bool, notes string) (domain.Rental, error) {
	return m.decide(ctx, rentalID, actor, approve, notes)
}
func (m *mockRentalServicer) Handover(ctx context.Context, rentalID uuid.UUID, actor service.Actor, mileageKm int) (domain.Rental, error) {
	return m.handover(ctx, rentalID, actor, mileageKm)
}
func (m *mockRentalServicer) Return(ctx context.Context, rentalID uuid.UUID, actor service.Actor, mileageKm int) (domain.Rental, error) {
	return m.ret(ctx, rentalID, actor, mileageKm)
}
func (m *mockRentalServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Rental, error) {
	return m.getByID(ctx, id)
}
func (m *mockRentalServicer) List(ctx context.Context, status *domain.RentalStatus, p domain.PaginationParams) ([]domain.Rental, int, error) {
	return m.list(ctx, status, p)
}
func (m *mockRentalServicer) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Rental, error) {
	return m.listByUser(ctx, userID)
}
func (m *mockRentalServicer) Events(ctx context.Context, rentalID uuid.UUID) ([]domain.RentalEvent, error) {
	return m.events(ctx, rentalID)
}

var _ handler.RentalServicer = (*mockRentalServicer)(nil)

// mockCarServicer is a test double for handler.CarServicer.
type mockCarServicer struct {
	create  func(ctx context.Context, car domain.Car) (domain.Car, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Car, error)
	list    func(ctx context.Context) ([]domain.Car, error)
	update  func(ctx context.Context, car domain.Car) (domain.Car, error)
	delete  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockCarServicer) Create(ctx context.Context, car domain.Car) (domain.Car, error) {
	return m.create(ctx, car)
}
func (m *mockCarServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Car, error) {
	return m.getByID(ctx, id)
}
func (m *mockCarServicer) List(ctx context.Context) ([]domain.Car, error) { return m.list(ctx) }
func (m *mockCarServicer) Update(ctx context.Context, car domain.Car) (domain.Car, error) {
	return m.update(ctx, car)
}
func (m *mockCarServicer) Delete(ctx context.Context, id uuid.UUID) error { return m.delete(ctx, id) }

var _ handler.CarServicer = (*mockCarServicer)(nil)

// mockAuthServicer is a test double for handler.AuthServicer.
type mockAuthServicer struct {
	register func(ctx context.Context, name, email, password string) (domain.User, error)
	verify   func(ctx context.Context, email, password string) (domain.User, bool, error)
}

func (m *mockAuthServicer) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	return m.register(ctx, name, email, password)
}
func (m *mockAuthServicer) Verify(ctx context.Context, email, password string) (domain.User, bool, error) {
	return m.verify(ctx, email, password)
}

var _ handler.AuthServicer = (*mockAuthServicer)(nil)

// mockUserServicer is a test double for handler.UserServicer.
type mockUserServicer struct {
	list       func(ctx context.Context) ([]domain.User, error)
	assignRole func(ctx context.Context, actor service.Actor, userID uuid.UUID, role domain.Role) (domain.User, error)
}

func (m *mockUserServicer) List(ctx context.Context) ([]domain.User, error) { return m.list(ctx) }
func (m *mockUserServicer) AssignRole(ctx context.Context, actor service.Actor, userID uuid.UUID, role domain.Role) (domain.User, error) {
	return m.assignRole(ctx, actor, userID, role)
}

var _ handler.UserServicer = (*mockUserServicer)(nil)

// mockInvoiceServicer is a test double for handler.InvoiceServicer.
type mockInvoiceServicer struct {
	issue         func(ctx context.Context, rentalID uuid.UUID, actor service.Actor) (domain.Invoice, error)
	getByRentalID func(ctx context.Context, rentalID uuid.UUID) (domain.Invoice, error)
}

func (m *mockInvoiceServicer) Issue(ctx context.Context, rentalID uuid.UUID, actor service.Actor) (domain.Invoice, error) {
	return m.issue(ctx, rentalID, actor)
}
func (m *mockInvoiceServicer) GetByRentalID(ctx context.Context, rentalID uuid.UUID) (domain.Invoice, error) {
	return m.getByRentalID(ctx, rentalID)
}

var _ handler.InvoiceServicer = (*mockInvoiceServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// serverMocks bundles the servicer doubles fed into newTestServer.
// Leave fields nil when the test never reaches that servicer.
type serverMocks struct {
	rentals  *mockRentalServicer
	cars     *mockCarServicer
	accounts *mockAuthServicer
	users    *mockUserServicer
	invoices *mockInvoiceServicer
}

// newTestServer wires a Server and the session/authorization middleware into
// a chi router exactly the way main.go does in production. The returned
// TokenManager mints sessions for role-gated requests.
func newTestServer(m serverMocks) (http.Handler, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret-test-secret", "berauto-test")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := handler.NewServer(m.rentals, m.cars, m.accounts, m.users, m.invoices, tokens, log)

	r := chi.NewRouter()
	r.Use(middleware.NewSessionResolver(tokens))
	r.Use(middleware.NewAuthorizer())
	srv.RegisterRoutes(r)
	return r, tokens
}

func sessionFor(t *testing.T, tokens *auth.TokenManager, role domain.Role) (string, uuid.UUID) {
	t.Helper()
	user := domain.User{ID: uuid.New(), Role: role}
	token, err := tokens.Issue(user)
	require.NoError(t, err)
	return token, user.ID
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func doRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// ---- GET /healthz ----------------------------------------------------------

func TestHealth_200(t *testing.T) {
	h, _ := newTestServer(serverMocks{})

	rec := doRequest(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

// ---- route policy through the full stack -----------------------------------

func TestRoutePolicy_AnonymousAgentRedirectsToLogin(t *testing.T) {
	h, _ := newTestServer(serverMocks{})

	rec := doRequest(h, httptest.NewRequest(http.MethodGet, "/agent/rentals", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fagent%2Frentals", rec.Header().Get("Location"))
}

func TestRoutePolicy_UserRoleOnAgentIsForbidden(t *testing.T) {
	h, tokens := newTestServer(serverMocks{})
	token, _ := sessionFor(t, tokens, domain.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/agent/rentals", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := doRequest(h, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoutePolicy_AgentRoleOnAdminIsForbidden(t *testing.T) {
	h, tokens := newTestServer(serverMocks{})
	token, _ := sessionFor(t, tokens, domain.RoleAgent)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := doRequest(h, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoutePolicy_AdminReachesAdminRoutes(t *testing.T) {
	users := &mockUserServicer{
		list: func(_ context.Context) ([]domain.User, error) { return []domain.User{}, nil },
	}
	h, tokens := newTestServer(serverMocks{users: users})
	token, _ := sessionFor(t, tokens, domain.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := doRequest(h, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
