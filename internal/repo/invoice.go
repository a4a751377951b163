package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/berauto/backend/internal/domain"
)

// InvoiceRepo defines the persistence operations for invoices.
type InvoiceRepo interface {
	// Create inserts a new invoice. The unique index on rental_id makes
	// double-billing impossible at the storage layer: a second insert for the
	// same rental returns domain.ErrConflict.
	Create(ctx context.Context, inv domain.Invoice) (domain.Invoice, error)

	// GetByRentalID retrieves the invoice for a rental.
	// Returns domain.ErrNotFound if the rental has no invoice yet.
	GetByRentalID(ctx context.Context, rentalID uuid.UUID) (domain.Invoice, error)
}

type pgInvoiceRepo struct {
	db db
}

// NewInvoiceRepo constructs an InvoiceRepo backed by the provided db connection.
func NewInvoiceRepo(db db) InvoiceRepo {
	return &pgInvoiceRepo{db: db}
}

const invoiceColumns = `id, rental_id, amount_cents, issued_by, issued_at, pdf_url`

func (r *pgInvoiceRepo) Create(ctx context.Context, inv domain.Invoice) (domain.Invoice, error) {
	const q = `
		INSERT INTO invoices (rental_id, amount_cents, issued_by, pdf_url)
		VALUES (@rental_id, @amount_cents, @issued_by, @pdf_url)
		RETURNING ` + invoiceColumns

	args := pgx.NamedArgs{
		"rental_id":    inv.RentalID,
		"amount_cents": inv.AmountCents,
		"issued_by":    inv.IssuedBy,
		"pdf_url":      inv.PDFURL,
	}

	result, err := scanInvoice(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Invoice{}, fmt.Errorf("repo.InvoiceRepo.Create: rental already invoiced: %w", domain.ErrConflict)
		}
		return domain.Invoice{}, fmt.Errorf("repo.InvoiceRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgInvoiceRepo) GetByRentalID(ctx context.Context, rentalID uuid.UUID) (domain.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE rental_id = @rental_id`

	result, err := scanInvoice(r.db.QueryRow(ctx, q, pgx.NamedArgs{"rental_id": rentalID}))
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("repo.InvoiceRepo.GetByRentalID: %w", err)
	}
	return result, nil
}

// scanInvoice maps a single database row into a domain.Invoice.
func scanInvoice(s scanner) (domain.Invoice, error) {
	var (
		inv      domain.Invoice
		id       pgtype.UUID
		rentalID pgtype.UUID
		issuedBy pgtype.UUID
	)

	err := s.Scan(&id, &rentalID, &inv.AmountCents, &issuedBy, &inv.IssuedAt, &inv.PDFURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Invoice{}, domain.ErrNotFound
		}
		return domain.Invoice{}, err
	}

	inv.ID = uuid.UUID(id.Bytes)
	inv.RentalID = uuid.UUID(rentalID.Bytes)
	inv.IssuedBy = uuid.UUID(issuedBy.Bytes)
	return inv, nil
}
