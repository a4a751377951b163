// Package handler implements the HTTP handlers for the BerAuto API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, car.go, rental.go, etc.) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/berauto/backend/internal/auth"
	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/service"
)

// RentalServicer defines the business operations the rental handlers depend
// on. Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type RentalServicer interface {
	Request(ctx context.Context, carID uuid.UUID, req service.Requester, start, end time.Time) (domain.Rental, error)
	Decide(ctx context.Context, rentalID uuid.UUID, actor service.Actor, approve bool, notes string) (domain.Rental, error)
	Handover(ctx context.Context, rentalID uuid.UUID, actor service.Actor, mileageKm int) (domain.Rental, error)
	Return(ctx context.Context, rentalID uuid.UUID, actor service.Actor, mileageKm int) (domain.Rental, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Rental, error)
	List(ctx context.Context, status *domain.RentalStatus, p domain.PaginationParams) ([]domain.Rental, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Rental, error)
	Events(ctx context.Context, rentalID uuid.UUID) ([]domain.RentalEvent, error)
}

// CarServicer defines the fleet operations the car handlers depend on.
type CarServicer interface {
	Create(ctx context.Context, car domain.Car) (domain.Car, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Car, error)
	List(ctx context.Context) ([]domain.Car, error)
	Update(ctx context.Context, car domain.Car) (domain.Car, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuthServicer defines the account operations the auth handlers depend on.
type AuthServicer interface {
	Register(ctx context.Context, name, email, password string) (domain.User, error)
	Verify(ctx context.Context, email, password string) (domain.User, bool, error)
}

// UserServicer defines the admin user-management operations.
type UserServicer interface {
	List(ctx context.Context) ([]domain.User, error)
	AssignRole(ctx context.Context, actor service.Actor, userID uuid.UUID, role domain.Role) (domain.User, error)
}

// InvoiceServicer defines the billing operations the invoice handlers depend on.
type InvoiceServicer interface {
	Issue(ctx context.Context, rentalID uuid.UUID, actor service.Actor) (domain.Invoice, error)
	GetByRentalID(ctx context.Context, rentalID uuid.UUID) (domain.Invoice, error)
}

// Server holds the dependencies shared by all API endpoints.
type Server struct {
	rentals  RentalServicer
	cars     CarServicer
	accounts AuthServicer
	users    UserServicer
	invoices InvoiceServicer
	tokens   *auth.TokenManager
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(rentals RentalServicer, cars CarServicer, accounts AuthServicer, users UserServicer, invoices InvoiceServicer, tokens *auth.TokenManager, log *slog.Logger) *Server {
	return &Server{
		rentals:  rentals,
		cars:     cars,
		accounts: accounts,
		users:    users,
		invoices: invoices,
		tokens:   tokens,
		log:      log,
	}
}

// RegisterRoutes attaches every endpoint to r. The route prefixes matter:
// the authorization middleware gates /agent, /admin, and /dashboard by
// prefix, so agent and admin endpoints must stay under those trees.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)

	r.Get("/cars", s.handleListCars)
	r.Get("/cars/{id}", s.handleGetCar)
	r.Post("/rentals", s.handleRequestRental)

	r.Get("/dashboard/rentals", s.handleMyRentals)

	r.Route("/agent/rentals", func(r chi.Router) {
		r.Get("/", s.handleListRentals)
		r.Get("/{id}", s.handleGetRental)
		r.Get("/{id}/events", s.handleRentalEvents)
		r.Post("/{id}/decision", s.handleDecideRental)
		r.Post("/{id}/handover", s.handleHandover)
		r.Post("/{id}/return", s.handleReturn)
		r.Get("/{id}/invoice", s.handleGetInvoice)
		r.Post("/{id}/invoice", s.handleIssueInvoice)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/cars", s.handleCreateCar)
		r.Put("/cars/{id}", s.handleUpdateCar)
		r.Delete("/cars/{id}", s.handleDeleteCar)
		r.Get("/users", s.handleListUsers)
		r.Put("/users/{id}/role", s.handleAssignRole)
	})
}
