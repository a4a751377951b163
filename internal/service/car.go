package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/repo"
)

// CarService implements fleet management.
type CarService struct {
	cars repo.CarRepo
}

// NewCarService constructs a CarService backed by the provided CarRepo.
func NewCarService(cars repo.CarRepo) *CarService {
	return &CarService{cars: cars}
}

// Create validates and persists a new fleet unit.
// Returns domain.ErrValidation for invalid input and domain.ErrConflict for
// a duplicate license plate.
func (s *CarService) Create(ctx context.Context, car domain.Car) (domain.Car, error) {
	if err := validateCar(car); err != nil {
		return domain.Car{}, err
	}
	if car.Status == "" {
		car.Status = domain.CarStatusAvailable
	}
	created, err := s.cars.Create(ctx, car)
	if err != nil {
		return domain.Car{}, fmt.Errorf("service.CarService.Create: %w", err)
	}
	return created, nil
}

// GetByID returns a single car by ID.
func (s *CarService) GetByID(ctx context.Context, id uuid.UUID) (domain.Car, error) {
	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return domain.Car{}, fmt.Errorf("service.CarService.GetByID: %w", err)
	}
	return car, nil
}

// List returns the whole fleet. Always returns a non-nil slice.
func (s *CarService) List(ctx context.Context) ([]domain.Car, error) {
	cars, err := s.cars.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.CarService.List: %w", err)
	}
	if cars == nil {
		cars = []domain.Car{}
	}
	return cars, nil
}

// Update validates and persists changes to an existing car.
func (s *CarService) Update(ctx context.Context, car domain.Car) (domain.Car, error) {
	if err := validateCar(car); err != nil {
		return domain.Car{}, err
	}
	updated, err := s.cars.Update(ctx, car)
	if err != nil {
		return domain.Car{}, fmt.Errorf("service.CarService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes a car that has never been rented.
// Returns domain.ErrConflict while rentals still reference it.
func (s *CarService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.cars.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.CarService.Delete: %w", err)
	}
	return nil
}

// validateCar enforces the fleet input contract shared by Create and Update.
//   - Make, model, and license plate must be non-empty.
//   - Year must be within [1900, current year + 1].
//   - Daily rate must be positive; mileage must not be negative.
//   - A car marked RENTED must not also be marked available.
func validateCar(car domain.Car) error {
	if strings.TrimSpace(car.Make) == "" {
		return fmt.Errorf("%w: make is required", domain.ErrValidation)
	}
	if strings.TrimSpace(car.Model) == "" {
		return fmt.Errorf("%w: model is required", domain.ErrValidation)
	}
	if strings.TrimSpace(car.LicensePlate) == "" {
		return fmt.Errorf("%w: license plate is required", domain.ErrValidation)
	}
	if maxYear := time.Now().Year() + 1; car.Year < 1900 || car.Year > maxYear {
		return fmt.Errorf("%w: year must be between 1900 and %d", domain.ErrValidation, maxYear)
	}
	if car.DailyRateCents <= 0 {
		return fmt.Errorf("%w: daily rate must be positive", domain.ErrValidation)
	}
	if car.MileageKm < 0 {
		return fmt.Errorf("%w: mileage must not be negative", domain.ErrValidation)
	}
	if car.Status == domain.CarStatusRented && car.IsAvailable {
		return fmt.Errorf("%w: a rented car cannot be available", domain.ErrValidation)
	}
	return nil
}
