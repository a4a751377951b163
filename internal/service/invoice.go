package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/repo"
)

// InvoiceService issues invoices for closed rentals.
type InvoiceService struct {
	invoices repo.InvoiceRepo
	rentals  repo.RentalRepo
	cars     repo.CarRepo
}

// NewInvoiceService constructs an InvoiceService backed by the provided repos.
func NewInvoiceService(invoices repo.InvoiceRepo, rentals repo.RentalRepo, cars repo.CarRepo) *InvoiceService {
	return &InvoiceService{invoices: invoices, rentals: rentals, cars: cars}
}

// Issue creates the invoice for a CLOSED rental.
//
// The amount is the rental duration in whole days (partial days rounded up)
// times the car's daily rate. Returns domain.ErrInvalidTransition when the
// rental is not CLOSED and domain.ErrConflict when an invoice already exists
// for it; in the conflict case exactly one invoice persists.
func (s *InvoiceService) Issue(ctx context.Context, rentalID uuid.UUID, actor Actor) (domain.Invoice, error) {
	if err := requireAgent(actor); err != nil {
		return domain.Invoice{}, err
	}

	rental, err := s.rentals.GetByID(ctx, rentalID)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("service.InvoiceService.Issue: %w", err)
	}
	if rental.Status != domain.RentalStatusClosed {
		return domain.Invoice{}, fmt.Errorf("%w: rental is %s, only CLOSED rentals are invoiced", domain.ErrInvalidTransition, rental.Status)
	}

	car, err := s.cars.GetByID(ctx, rental.CarID)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("service.InvoiceService.Issue: %w", err)
	}

	inv := domain.Invoice{
		RentalID:    rental.ID,
		AmountCents: rental.DurationDays() * car.DailyRateCents,
		IssuedBy:    actor.ID,
	}

	created, err := s.invoices.Create(ctx, inv)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("service.InvoiceService.Issue: %w", err)
	}
	return created, nil
}

// GetByRentalID returns the invoice for a rental, or domain.ErrNotFound if
// none has been issued yet.
func (s *InvoiceService) GetByRentalID(ctx context.Context, rentalID uuid.UUID) (domain.Invoice, error) {
	inv, err := s.invoices.GetByRentalID(ctx, rentalID)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("service.InvoiceService.GetByRentalID: %w", err)
	}
	return inv, nil
}
