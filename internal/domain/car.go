package domain

import (
	"time"

	"github.com/google/uuid"
)

// CarStatus tracks the physical state of a fleet unit.
type CarStatus string

const (
	CarStatusAvailable   CarStatus = "AVAILABLE"
	CarStatusRented      CarStatus = "RENTED"
	CarStatusMaintenance CarStatus = "MAINTENANCE"
)

// Car is a single fleet unit.
// DailyRateCents is the rental price per day in the currency's minor unit.
// Invariant: Status == CarStatusRented implies IsAvailable == false; the
// rental lifecycle engine flips both together on handover and return.
type Car struct {
	ID             uuid.UUID `json:"id"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	LicensePlate   string    `json:"license_plate"`
	MileageKm      int       `json:"mileage_km"`
	DailyRateCents int64     `json:"daily_rate_cents"`
	IsAvailable    bool      `json:"is_available"`
	Status         CarStatus `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}
