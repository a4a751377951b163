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

// Transition describes one atomic rental lifecycle step: a compare-and-swap
// on the status column, the audit event recording it, and (for handover and
// return) the car row mutation that must land in the same transaction.
type Transition struct {
	RentalID uuid.UUID
	// From is the status the rental must currently have. The swap only
	// succeeds when the persisted status still matches; a lost race surfaces
	// as domain.ErrInvalidTransition.
	From domain.RentalStatus
	To   domain.RentalStatus
	// Event is appended to rental_events on success.
	Event   domain.EventType
	ActorID *uuid.UUID
	Notes   string
	// SetAgent records ActorID as the rental's assigned agent (decide only).
	SetAgent bool
	// Car, when non-nil, is applied to the rental's car in the same
	// transaction.
	Car *CarMutation
}

// CarMutation is the car-side effect of a handover or return.
type CarMutation struct {
	Status      domain.CarStatus
	IsAvailable bool
	// MileageKm, when non-nil, overwrites the car's stored mileage.
	MileageKm *int
}

// RentalRepo defines the persistence operations for rentals and their
// append-only event log.
type RentalRepo interface {
	// CreateRequested inserts a PENDING rental and its REQUEST event in one
	// transaction. The insert is guarded against any non-terminal rental of
	// the same car with an intersecting date range; losing that guard returns
	// domain.ErrConflict. A missing car returns domain.ErrNotFound.
	CreateRequested(ctx context.Context, rental domain.Rental, notes string) (domain.Rental, error)

	// GetByID retrieves a single rental by its UUID primary key.
	// Returns domain.ErrNotFound if no rental with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Rental, error)

	// List returns rentals newest first, optionally filtered by status,
	// with the total count for pagination.
	List(ctx context.Context, status *domain.RentalStatus, p domain.PaginationParams) ([]domain.Rental, int, error)

	// ListByUser returns all rentals of one registered user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Rental, error)

	// Transition atomically applies one lifecycle step. Returns the updated
	// rental, domain.ErrNotFound if the rental does not exist, or
	// domain.ErrInvalidTransition if its status no longer matches t.From.
	Transition(ctx context.Context, t Transition) (domain.Rental, error)

	// ListEvents returns a rental's event log in timestamp order.
	ListEvents(ctx context.Context, rentalID uuid.UUID) ([]domain.RentalEvent, error)
}

type pgRentalRepo struct {
	db txBeginner
}

// NewRentalRepo constructs a RentalRepo backed by the provided connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx, which satisfies
// txBeginner through savepoints so rollback isolation still applies.
func NewRentalRepo(db txBeginner) RentalRepo {
	return &pgRentalRepo{db: db}
}

const rentalColumns = `id, car_id, user_id, guest_name, guest_email, guest_phone,
	start_date, end_date, status, agent_id, created_at, updated_at`

func (r *pgRentalRepo) CreateRequested(ctx context.Context, rental domain.Rental, notes string) (domain.Rental, error) {
	// Requests for the same car serialize on a FOR UPDATE lock of the car
	// row before the guarded insert runs. Under READ COMMITTED a blocked
	// competitor re-snapshots after the lock holder commits, so its
	// NOT EXISTS check always sees the winner's row.
	const q = `
		INSERT INTO rentals (car_id, user_id, guest_name, guest_email, guest_phone, start_date, end_date, status)
		SELECT @car_id, @user_id, @guest_name, @guest_email, @guest_phone, @start_date, @end_date, 'PENDING'
		WHERE NOT EXISTS (
			SELECT 1 FROM rentals
			WHERE car_id = @car_id
			  AND status IN ('PENDING', 'APPROVED', 'ACTIVE')
			  AND start_date < @end_date
			  AND end_date > @start_date
		)
		RETURNING ` + rentalColumns

	args := pgx.NamedArgs{
		"car_id":      rental.CarID,
		"user_id":     rental.UserID,
		"guest_name":  rental.GuestName,
		"guest_email": rental.GuestEmail,
		"guest_phone": rental.GuestPhone,
		"start_date":  rental.StartDate,
		"end_date":    rental.EndDate,
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Rental{}, fmt.Errorf("repo.RentalRepo.CreateRequested: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const lockQ = `SELECT id FROM cars WHERE id = @car_id FOR UPDATE`
	var lockedCar pgtype.UUID
	if err := tx.QueryRow(ctx, lockQ, pgx.NamedArgs{"car_id": rental.CarID}).Scan(&lockedCar); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rental{}, fmt.Errorf("repo.RentalRepo.CreateRequested: car: %w", domain.ErrNotFound)
		}
		return domain.Rental{}, fmt.Errorf("repo.RentalRepo.CreateRequested: lock car: %w", err)
	}

	created, err := scanRental(tx.QueryRow(ctx, q, args))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The insert produced no row: an overlapping non-terminal rental
			// exists for this car.
			return domain.Rental{}, fmt.Errorf("repo.RentalRepo.CreateRequested: overlapping rental: %w", domain.ErrConflict)
		}
		return domain.Rental{}, fmt.Errorf("repo.RentalRepo.CreateRequested: %w", err)
	}

	if err := insertEvent(ctx, tx, created.ID, domain.EventRequest, rental.UserID, notes); err != nil {
		return domain.Rental{}, fmt.Errorf("repo.RentalRepo.CreateRequested: event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Rental{}, fmt.Errorf("repo.RentalRepo.CreateRequested: commit: %w", err)
	}
	return created, nil
}

func (r *pgRentalRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Rental, error) {
	const q = `SELECT ` + rentalColumns + ` FROM rentals WHERE id = @id`

	result, err := scanRental(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Rental{}, fmt.Errorf("repo.RentalRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgRentalRepo) List(ctx context.Context, status *domain.RentalStatus, p domain.PaginationParams) ([]domain.Rental, int, error) {
	const countQ = `SELECT count(*) FROM rentals WHERE @status::rental_status IS NULL OR status = @status`
	const q = `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE @status::rental_status IS NULL OR status = @status
		ORDER BY created_at DESC
		LIMIT @limit OFFSET @offset`

	var total int
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"status": status}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.RentalRepo.List: count: %w", err)
	}

	args := pgx.NamedArgs{"status": status, "limit": p.Limit, "offset": p.Offset()}
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.RentalRepo.List: %w", err)
	}
	defer rows.Close()

	rentals, err := collectRentals(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.RentalRepo.List: %w", err)
	}
	return rentals, total, nil
}

func (r *pgRentalRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Rental, error) {
	const q = `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE user_id = @user_id
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.RentalRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	rentals, err := collectRentals(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.RentalRepo.ListByUser: %w", err)
	}
	return rentals, nil
}

func (r *pgRentalRepo) Transition(ctx context.Context, t Transition) (domain.Rental, error) {
	const swapQ = `
		UPDATE rentals
		SET status     = @to,
		    agent_id   = CASE WHEN @set_agent THEN @actor_id ELSE agent_id END,
		    updated_at = now()
		WHERE id = @id AND status = @from
		RETURNING ` + rentalColumns

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Rental{}, fmt.Errorf("repo.RentalRepo.Transition: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	args := pgx.NamedArgs{
		"id":        t.RentalID,
		"from":      t.From,
		"to":        t.To,
		"set_agent": t.SetAgent,
		"actor_id":  t.ActorID,
	}

	updated, err := scanRental(tx.QueryRow(ctx, swapQ, args))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Rental{}, fmt.Errorf("repo.RentalRepo.Transition: %w", err)
		}
		// The CAS matched no row: distinguish a missing rental from one whose
		// status moved under us.
		var exists bool
		const existsQ = `SELECT EXISTS (SELECT 1 FROM rentals WHERE id = @id)`
		if err := tx.QueryRow(ctx, existsQ, pgx.NamedArgs{"id": t.RentalID}).Scan(&exists); err != nil {
			return domain.Rental{}, fmt.Errorf("repo.RentalRepo.Transition: exists: %w", err)
		}
		if !exists {
			return domain.Rental{}, fmt.Errorf("repo.RentalRepo.Transition: %w", domain.ErrNotFound)
		}
		return domain.Rental{}, fmt.Errorf("repo.RentalRepo.Transition: status is not %s: %w", t.From, domain.ErrInvalidTransition)
	}

	if err := insertEvent(ctx, tx, t.RentalID, t.Event, t.ActorID, t.Notes); err != nil {
		return domain.Rental{}, fmt.Errorf("repo.RentalRepo.Transition: event: %w", err)
	}

	if t.Car != nil {
		const carQ = `
			UPDATE cars
			SET status       = @status,
			    is_available = @is_available,
			    mileage_km   = COALESCE(@mileage_km, mileage_km)
			WHERE id = @id`
		carArgs := pgx.NamedArgs{
			"id":           updated.CarID,
			"status":       t.Car.Status,
			"is_available": t.Car.IsAvailable,
			"mileage_km":   t.Car.MileageKm,
		}
		if _, err := tx.Exec(ctx, carQ, carArgs); err != nil {
			return domain.Rental{}, fmt.Errorf("repo.RentalRepo.Transition: car: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Rental{}, fmt.Errorf("repo.RentalRepo.Transition: commit: %w", err)
	}
	return updated, nil
}

func (r *pgRentalRepo) ListEvents(ctx context.Context, rentalID uuid.UUID) ([]domain.RentalEvent, error) {
	const q = `
		SELECT id, rental_id, event_type, actor_id, notes, timestamp
		FROM rental_events
		WHERE rental_id = @rental_id
		ORDER BY timestamp`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"rental_id": rentalID})
	if err != nil {
		return nil, fmt.Errorf("repo.RentalRepo.ListEvents: %w", err)
	}
	defer rows.Close()

	var events []domain.RentalEvent
	for rows.Next() {
		ev, err := scanRentalEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.RentalRepo.ListEvents: scan: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RentalRepo.ListEvents: rows: %w", err)
	}
	return events, nil
}

// insertEvent appends one row to the rental's audit log inside tx.
func insertEvent(ctx context.Context, tx pgx.Tx, rentalID uuid.UUID, typ domain.EventType, actorID *uuid.UUID, notes string) error {
	const q = `
		INSERT INTO rental_events (rental_id, event_type, actor_id, notes)
		VALUES (@rental_id, @event_type, @actor_id, @notes)`

	_, err := tx.Exec(ctx, q, pgx.NamedArgs{
		"rental_id":  rentalID,
		"event_type": typ,
		"actor_id":   actorID,
		"notes":      notes,
	})
	return err
}

func collectRentals(rows pgx.Rows) ([]domain.Rental, error) {
	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rentals = append(rentals, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return rentals, nil
}

// scanRental maps a single database row into a domain.Rental.
// It handles the UUID and nullable user_id/agent_id conversions.
func scanRental(s scanner) (domain.Rental, error) {
	var (
		rt      domain.Rental
		id      pgtype.UUID
		carID   pgtype.UUID
		userID  pgtype.UUID
		agentID pgtype.UUID
	)

	err := s.Scan(&id, &carID, &userID, &rt.GuestName, &rt.GuestEmail, &rt.GuestPhone,
		&rt.StartDate, &rt.EndDate, &rt.Status, &agentID, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rental{}, domain.ErrNotFound
		}
		return domain.Rental{}, err
	}

	rt.ID = uuid.UUID(id.Bytes)
	rt.CarID = uuid.UUID(carID.Bytes)
	if userID.Valid {
		u := uuid.UUID(userID.Bytes)
		rt.UserID = &u
	}
	if agentID.Valid {
		a := uuid.UUID(agentID.Bytes)
		rt.AgentID = &a
	}
	return rt, nil
}

// scanRentalEvent maps a single database row into a domain.RentalEvent.
func scanRentalEvent(s scanner) (domain.RentalEvent, error) {
	var (
		ev      domain.RentalEvent
		id      pgtype.UUID
		rental  pgtype.UUID
		actorID pgtype.UUID
	)

	err := s.Scan(&id, &rental, &ev.Type, &actorID, &ev.Notes, &ev.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RentalEvent{}, domain.ErrNotFound
		}
		return domain.RentalEvent{}, err
	}

	ev.ID = uuid.UUID(id.Bytes)
	ev.RentalID = uuid.UUID(rental.Bytes)
	if actorID.Valid {
		a := uuid.UUID(actorID.Bytes)
		ev.ActorID = &a
	}
	return ev, nil
}
