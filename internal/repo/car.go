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

// CarRepo defines the persistence operations for fleet units.
type CarRepo interface {
	// Create inserts a new car and returns the persisted record.
	// Returns domain.ErrConflict if the license plate is already registered.
	Create(ctx context.Context, car domain.Car) (domain.Car, error)

	// GetByID retrieves a single car by its UUID primary key.
	// Returns domain.ErrNotFound if no car with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Car, error)

	// List returns all cars ordered by make, model.
	List(ctx context.Context) ([]domain.Car, error)

	// Update overwrites the mutable fields of an existing car and returns the
	// updated record. Returns domain.ErrNotFound if the car does not exist and
	// domain.ErrConflict on a duplicate license plate.
	Update(ctx context.Context, car domain.Car) (domain.Car, error)

	// Delete removes a car by ID. Returns domain.ErrNotFound if it does not
	// exist and domain.ErrConflict if rentals still reference it.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgCarRepo struct {
	db db
}

// NewCarRepo constructs a CarRepo backed by the provided db connection.
func NewCarRepo(db db) CarRepo {
	return &pgCarRepo{db: db}
}

const carColumns = `id, make, model, year, license_plate, mileage_km, daily_rate_cents, is_available, status, created_at`

func (r *pgCarRepo) Create(ctx context.Context, car domain.Car) (domain.Car, error) {
	const q = `
		INSERT INTO cars (make, model, year, license_plate, mileage_km, daily_rate_cents, is_available, status)
		VALUES (@make, @model, @year, @license_plate, @mileage_km, @daily_rate_cents, @is_available, @status)
		RETURNING ` + carColumns

	args := pgx.NamedArgs{
		"make":             car.Make,
		"model":            car.Model,
		"year":             car.Year,
		"license_plate":    car.LicensePlate,
		"mileage_km":       car.MileageKm,
		"daily_rate_cents": car.DailyRateCents,
		"is_available":     car.IsAvailable,
		"status":           car.Status,
	}

	result, err := scanCar(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Car{}, fmt.Errorf("repo.CarRepo.Create: plate taken: %w", domain.ErrConflict)
		}
		return domain.Car{}, fmt.Errorf("repo.CarRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgCarRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Car, error) {
	const q = `SELECT ` + carColumns + ` FROM cars WHERE id = @id`

	result, err := scanCar(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Car{}, fmt.Errorf("repo.CarRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgCarRepo) List(ctx context.Context) ([]domain.Car, error) {
	const q = `SELECT ` + carColumns + ` FROM cars ORDER BY make, model`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.CarRepo.List: %w", err)
	}
	defer rows.Close()

	var cars []domain.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CarRepo.List: scan: %w", err)
		}
		cars = append(cars, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CarRepo.List: rows: %w", err)
	}
	return cars, nil
}

func (r *pgCarRepo) Update(ctx context.Context, car domain.Car) (domain.Car, error) {
	const q = `
		UPDATE cars
		SET make             = @make,
		    model            = @model,
		    year             = @year,
		    license_plate    = @license_plate,
		    mileage_km       = @mileage_km,
		    daily_rate_cents = @daily_rate_cents,
		    is_available     = @is_available,
		    status           = @status
		WHERE id = @id
		RETURNING ` + carColumns

	args := pgx.NamedArgs{
		"id":               car.ID,
		"make":             car.Make,
		"model":            car.Model,
		"year":             car.Year,
		"license_plate":    car.LicensePlate,
		"mileage_km":       car.MileageKm,
		"daily_rate_cents": car.DailyRateCents,
		"is_available":     car.IsAvailable,
		"status":           car.Status,
	}

	result, err := scanCar(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Car{}, fmt.Errorf("repo.CarRepo.Update: plate taken: %w", domain.ErrConflict)
		}
		return domain.Car{}, fmt.Errorf("repo.CarRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgCarRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM cars WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		// Rentals keep their full history, so a referenced car cannot go away.
		if isForeignKeyViolation(err) {
			return fmt.Errorf("repo.CarRepo.Delete: car has rentals: %w", domain.ErrConflict)
		}
		return fmt.Errorf("repo.CarRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CarRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanCar maps a single database row into a domain.Car.
func scanCar(s scanner) (domain.Car, error) {
	var (
		c  domain.Car
		id pgtype.UUID
	)
	err := s.Scan(&id, &c.Make, &c.Model, &c.Year, &c.LicensePlate, &c.MileageKm,
		&c.DailyRateCents, &c.IsAvailable, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Car{}, domain.ErrNotFound
		}
		return domain.Car{}, err
	}
	c.ID = uuid.UUID(id.Bytes)
	return c, nil
}
