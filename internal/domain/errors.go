package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the acting user's role is insufficient for
// the attempted operation. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation would violate a uniqueness or
// exclusivity rule: a duplicate email, a duplicate invoice for a rental, or
// an overlapping rental request for the same car.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrInvalidTransition is returned when a rental lifecycle operation finds
// the rental in a status its precondition does not allow, including the case
// where a concurrent caller won the status update race.
// Handlers should map this to HTTP 409.
var ErrInvalidTransition = errors.New("invalid status transition")
