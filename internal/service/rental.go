// Package service contains the business logic for the BerAuto API.
// Services validate inputs, enforce the lifecycle and role rules, and
// orchestrate repo calls. No SQL lives here; services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/repo"
)

// Actor identifies who is performing an operation, as resolved from the
// request session.
type Actor struct {
	ID   uuid.UUID
	Role domain.Role
}

// Requester identifies who a rental is for: a registered user or a guest.
// Exactly one of the two must be populated.
type Requester struct {
	UserID     *uuid.UUID
	GuestName  string
	GuestEmail string
	GuestPhone string
}

// RentalService is the rental lifecycle engine. It owns all status
// transitions; nothing else in the system mutates a rental.
type RentalService struct {
	rentals  repo.RentalRepo
	cars     repo.CarRepo
	invoices *InvoiceService
	log      *slog.Logger
}

// NewRentalService constructs a RentalService backed by the provided repos.
// invoices is consulted after a successful return; see Return.
func NewRentalService(rentals repo.RentalRepo, cars repo.CarRepo, invoices *InvoiceService, log *slog.Logger) *RentalService {
	return &RentalService{rentals: rentals, cars: cars, invoices: invoices, log: log}
}

// Request creates a new rental in PENDING and appends its REQUEST event.
// Returns domain.ErrValidation for a bad date range or requester identity,
// domain.ErrNotFound if the car does not exist, and domain.ErrConflict when
// the car already has a non-terminal rental for an intersecting range.
func (s *RentalService) Request(ctx context.Context, carID uuid.UUID, req Requester, start, end time.Time) (domain.Rental, error) {
	if !end.After(start) {
		return domain.Rental{}, fmt.Errorf("%w: end date must be after start date", domain.ErrValidation)
	}
	if err := validateRequester(req); err != nil {
		return domain.Rental{}, err
	}
	if _, err := s.cars.GetByID(ctx, carID); err != nil {
		return domain.Rental{}, fmt.Errorf("service.RentalService.Request: %w", err)
	}

	rental := domain.Rental{
		CarID:      carID,
		UserID:     req.UserID,
		GuestName:  strings.TrimSpace(req.GuestName),
		GuestEmail: strings.TrimSpace(req.GuestEmail),
		GuestPhone: strings.TrimSpace(req.GuestPhone),
		StartDate:  start,
		EndDate:    end,
	}

	created, err := s.rentals.CreateRequested(ctx, rental, "")
	if err != nil {
		return domain.Rental{}, fmt.Errorf("service.RentalService.Request: %w", err)
	}
	return created, nil
}

// Decide approves or rejects a PENDING rental and records the deciding agent.
// Returns domain.ErrForbidden unless the actor is an agent or admin,
// domain.ErrNotFound for a missing rental, and domain.ErrInvalidTransition
// when the rental is not PENDING (including a lost race with another decide).
func (s *RentalService) Decide(ctx context.Context, rentalID uuid.UUID, actor Actor, approve bool, notes string) (domain.Rental, error) {
	if err := requireAgent(actor); err != nil {
		return domain.Rental{}, err
	}

	to, event := domain.RentalStatusApproved, domain.EventApprove
	if !approve {
		to, event = domain.RentalStatusRejected, domain.EventReject
	}

	updated, err := s.rentals.Transition(ctx, repo.Transition{
		RentalID: rentalID,
		From:     domain.RentalStatusPending,
		To:       to,
		Event:    event,
		ActorID:  &actor.ID,
		SetAgent: true,
		Notes:    notes,
	})
	if err != nil {
		return domain.Rental{}, fmt.Errorf("service.RentalService.Decide: %w", err)
	}
	return updated, nil
}

// Handover moves an APPROVED rental to ACTIVE, marks the car RENTED, and
// records the mileage at handover in the event log.
func (s *RentalService) Handover(ctx context.Context, rentalID uuid.UUID, actor Actor, mileageKm int) (domain.Rental, error) {
	if err := requireAgent(actor); err != nil {
		return domain.Rental{}, err
	}

	updated, err := s.rentals.Transition(ctx, repo.Transition{
		RentalID: rentalID,
		From:     domain.RentalStatusApproved,
		To:       domain.RentalStatusActive,
		Event:    domain.EventHandover,
		ActorID:  &actor.ID,
		Notes:    fmt.Sprintf("mileage at handover: %d km", mileageKm),
		Car: &repo.CarMutation{
			Status:      domain.CarStatusRented,
			IsAvailable: false,
		},
	})
	if err != nil {
		return domain.Rental{}, fmt.Errorf("service.RentalService.Handover: %w", err)
	}
	return updated, nil
}

// Return moves an ACTIVE rental to CLOSED, releases the car, updates its
// mileage, and issues the invoice.
//
// The CLOSED transition is authoritative: if invoice issuance fails
// afterwards, the failure is logged as a warning and the returned rental is
// still CLOSED. The operator can retry invoicing independently; Issue is
// guarded against double-billing.
func (s *RentalService) Return(ctx context.Context, rentalID uuid.UUID, actor Actor, mileageKm int) (domain.Rental, error) {
	if err := requireAgent(actor); err != nil {
		return domain.Rental{}, err
	}

	rental, err := s.rentals.GetByID(ctx, rentalID)
	if err != nil {
		return domain.Rental{}, fmt.Errorf("service.RentalService.Return: %w", err)
	}
	car, err := s.cars.GetByID(ctx, rental.CarID)
	if err != nil {
		return domain.Rental{}, fmt.Errorf("service.RentalService.Return: %w", err)
	}
	if mileageKm < car.MileageKm {
		return domain.Rental{}, fmt.Errorf("%w: return mileage %d km is below the car's stored %d km", domain.ErrValidation, mileageKm, car.MileageKm)
	}

	updated, err := s.rentals.Transition(ctx, repo.Transition{
		RentalID: rentalID,
		From:     domain.RentalStatusActive,
		To:       domain.RentalStatusClosed,
		Event:    domain.EventReturn,
		ActorID:  &actor.ID,
		Notes:    fmt.Sprintf("mileage at return: %d km", mileageKm),
		Car: &repo.CarMutation{
			Status:      domain.CarStatusAvailable,
			IsAvailable: true,
			MileageKm:   &mileageKm,
		},
	})
	if err != nil {
		return domain.Rental{}, fmt.Errorf("service.RentalService.Return: %w", err)
	}

	if _, err := s.invoices.Issue(ctx, rentalID, actor); err != nil {
		s.log.WarnContext(ctx, "invoice issuance failed after return; rental stays closed",
			"rental_id", rentalID,
			"error", err,
		)
	}
	return updated, nil
}

// GetByID returns a single rental.
func (s *RentalService) GetByID(ctx context.Context, id uuid.UUID) (domain.Rental, error) {
	rental, err := s.rentals.GetByID(ctx, id)
	if err != nil {
		return domain.Rental{}, fmt.Errorf("service.RentalService.GetByID: %w", err)
	}
	return rental, nil
}

// List returns rentals newest first, optionally filtered by status, with the
// total count for pagination. Always returns a non-nil slice.
func (s *RentalService) List(ctx context.Context, status *domain.RentalStatus, p domain.PaginationParams) ([]domain.Rental, int, error) {
	rentals, total, err := s.rentals.List(ctx, status, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.RentalService.List: %w", err)
	}
	if rentals == nil {
		rentals = []domain.Rental{}
	}
	return rentals, total, nil
}

// ListByUser returns the rentals belonging to one registered user.
// Always returns a non-nil slice.
func (s *RentalService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Rental, error) {
	rentals, err := s.rentals.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.RentalService.ListByUser: %w", err)
	}
	if rentals == nil {
		rentals = []domain.Rental{}
	}
	return rentals, nil
}

// Events returns a rental's audit trail in timestamp order.
// Returns domain.ErrNotFound if the rental does not exist.
func (s *RentalService) Events(ctx context.Context, rentalID uuid.UUID) ([]domain.RentalEvent, error) {
	if _, err := s.rentals.GetByID(ctx, rentalID); err != nil {
		return nil, fmt.Errorf("service.RentalService.Events: %w", err)
	}
	events, err := s.rentals.ListEvents(ctx, rentalID)
	if err != nil {
		return nil, fmt.Errorf("service.RentalService.Events: %w", err)
	}
	return events, nil
}

// requireAgent gates the agent workflow operations.
func requireAgent(actor Actor) error {
	if actor.Role != domain.RoleAgent && actor.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: role %s may not action rentals", domain.ErrForbidden, actor.Role)
	}
	return nil
}

// validateRequester enforces the identity rule: a registered user id or a
// complete, plausible set of guest contact fields, never both and never
// neither.
func validateRequester(req Requester) error {
	name := strings.TrimSpace(req.GuestName)
	email := strings.TrimSpace(req.GuestEmail)
	phone := strings.TrimSpace(req.GuestPhone)
	hasGuest := name != "" || email != "" || phone != ""

	switch {
	case req.UserID != nil && hasGuest:
		return fmt.Errorf("%w: provide a user or guest contact details, not both", domain.ErrValidation)
	case req.UserID == nil && !hasGuest:
		return fmt.Errorf("%w: a user or guest contact details are required", domain.ErrValidation)
	case req.UserID != nil:
		return nil
	}

	if len([]rune(name)) < 2 {
		return fmt.Errorf("%w: guest name must be at least 2 characters", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: guest email is not a valid address", domain.ErrValidation)
	}
	if len(phone) < 5 {
		return fmt.Errorf("%w: guest phone must be at least 5 characters", domain.ErrValidation)
	}
	return nil
}
