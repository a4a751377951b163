package domain

import (
	"time"

	"github.com/google/uuid"
)

// Invoice bills a CLOSED rental. At most one invoice ever exists per rental;
// the repo enforces this with a unique index on rental_id. Immutable once
// created.
type Invoice struct {
	ID          uuid.UUID `json:"id"`
	RentalID    uuid.UUID `json:"rental_id"`
	AmountCents int64     `json:"amount_cents"`
	IssuedBy    uuid.UUID `json:"issued_by"`
	IssuedAt    time.Time `json:"issued_at"`
	PDFURL      string    `json:"pdf_url,omitempty"`
}
