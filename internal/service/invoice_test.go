package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/repo"
	"github.com/berauto/backend/internal/service"
)

// mockInvoiceRepo is a hand-written test double for repo.InvoiceRepo.
type mockInvoiceRepo struct {
	create        func(ctx context.Context, inv domain.Invoice) (domain.Invoice, error)
	getByRentalID func(ctx context.Context, rentalID uuid.UUID) (domain.Invoice, error)
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv domain.Invoice) (domain.Invoice, error) {
	return m.create(ctx, inv)
}
func (m *mockInvoiceRepo) GetByRentalID(ctx context.Context, rentalID uuid.UUID) (domain.Invoice, error) {
	return m.getByRentalID(ctx, rentalID)
}

var _ repo.InvoiceRepo = (*mockInvoiceRepo)(nil)

// closedRentalRepo serves one rental in the given status for any ID.
func closedRentalRepo(carID uuid.UUID, status domain.RentalStatus, days int) *mockRentalRepo {
	return &mockRentalRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Rental, error) {
			start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			return domain.Rental{
				ID:        id,
				CarID:     carID,
				Status:    status,
				StartDate: start,
				EndDate:   start.AddDate(0, 0, days),
			}, nil
		},
	}
}

func TestInvoiceService_Issue(t *testing.T) {
	car := carFixture() // 8500 cents per day

	var created *domain.Invoice
	invoices := &mockInvoiceRepo{
		create: func(_ context.Context, inv domain.Invoice) (domain.Invoice, error) {
			inv.ID = uuid.New()
			created = &inv
			return inv, nil
		},
	}
	svc := service.NewInvoiceService(invoices, closedRentalRepo(car.ID, domain.RentalStatusClosed, 5), carRepoWith(car))
	actor := agentActor()

	got, err := svc.Issue(context.Background(), uuid.New(), actor)

	require.NoError(t, err)
	// 5 days at 8500/day.
	assert.Equal(t, int64(42500), got.AmountCents)
	assert.Equal(t, actor.ID, got.IssuedBy)
	require.NotNil(t, created)
	assert.Equal(t, got.AmountCents, created.AmountCents)
}

func TestInvoiceService_Issue_PartialDayRoundsUp(t *testing.T) {
	car := carFixture()
	rentals := closedRentalRepo(car.ID, domain.RentalStatusClosed, 5)
	base := rentals.getByID
	rentals.getByID = func(ctx context.Context, id uuid.UUID) (domain.Rental, error) {
		rt, err := base(ctx, id)
		rt.EndDate = rt.EndDate.Add(6 * time.Hour) // 5 days and change bills as 6
		return rt, err
	}
	invoices := &mockInvoiceRepo{
		create: func(_ context.Context, inv domain.Invoice) (domain.Invoice, error) { return inv, nil },
	}
	svc := service.NewInvoiceService(invoices, rentals, carRepoWith(car))

	got, err := svc.Issue(context.Background(), uuid.New(), agentActor())

	require.NoError(t, err)
	assert.Equal(t, int64(6*8500), got.AmountCents)
}

func TestInvoiceService_Issue_NotClosed(t *testing.T) {
	car := carFixture()
	invoices := &mockInvoiceRepo{
		create: func(_ context.Context, _ domain.Invoice) (domain.Invoice, error) {
			panic("must not reach the repo")
		},
	}

	for _, status := range []domain.RentalStatus{
		domain.RentalStatusPending,
		domain.RentalStatusApproved,
		domain.RentalStatusActive,
		domain.RentalStatusRejected,
	} {
		t.Run(string(status), func(t *testing.T) {
			svc := service.NewInvoiceService(invoices, closedRentalRepo(car.ID, status, 5), carRepoWith(car))
			_, err := svc.Issue(context.Background(), uuid.New(), agentActor())
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		})
	}
}

func TestInvoiceService_Issue_Duplicate(t *testing.T) {
	car := carFixture()
	invoices := &mockInvoiceRepo{
		create: func(_ context.Context, _ domain.Invoice) (domain.Invoice, error) {
			return domain.Invoice{}, fmt.Errorf("invoice exists: %w", domain.ErrConflict)
		},
	}
	svc := service.NewInvoiceService(invoices, closedRentalRepo(car.ID, domain.RentalStatusClosed, 5), carRepoWith(car))

	_, err := svc.Issue(context.Background(), uuid.New(), agentActor())

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestInvoiceService_Issue_ForbiddenForUserRole(t *testing.T) {
	car := carFixture()
	svc := service.NewInvoiceService(&mockInvoiceRepo{}, closedRentalRepo(car.ID, domain.RentalStatusClosed, 5), carRepoWith(car))

	_, err := svc.Issue(context.Background(), uuid.New(), service.Actor{ID: uuid.New(), Role: domain.RoleUser})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestInvoiceService_GetByRentalID_NotFound(t *testing.T) {
	invoices := &mockInvoiceRepo{
		getByRentalID: func(_ context.Context, _ uuid.UUID) (domain.Invoice, error) {
			return domain.Invoice{}, domain.ErrNotFound
		},
	}
	svc := service.NewInvoiceService(invoices, &mockRentalRepo{}, &mockCarRepo{})

	_, err := svc.GetByRentalID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
