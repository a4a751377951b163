package handler

import (
	"net/http"

	"github.com/berauto/backend/internal/domain"
)

type carRequest struct {
	Make           string           `json:"make"`
	Model          string           `json:"model"`
	Year           int              `json:"year"`
	LicensePlate   string           `json:"license_plate"`
	MileageKm      int              `json:"mileage_km"`
	DailyRateCents int64            `json:"daily_rate_cents"`
	Status         domain.CarStatus `json:"status,omitempty"`
}

func (req carRequest) toDomain() domain.Car {
	return domain.Car{
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		LicensePlate:   req.LicensePlate,
		MileageKm:      req.MileageKm,
		DailyRateCents: req.DailyRateCents,
		IsAvailable:    req.Status == "" || req.Status == domain.CarStatusAvailable,
		Status:         req.Status,
	}
}

// handleListCars implements GET /cars, the public fleet listing.
func (s *Server) handleListCars(w http.ResponseWriter, r *http.Request) {
	cars, err := s.cars.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cars)
}

// handleGetCar implements GET /cars/{id}.
func (s *Server) handleGetCar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	car, err := s.cars.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, car)
}

// handleCreateCar implements POST /admin/cars.
func (s *Server) handleCreateCar(w http.ResponseWriter, r *http.Request) {
	var req carRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	created, err := s.cars.Create(r.Context(), req.toDomain())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// handleUpdateCar implements PUT /admin/cars/{id}.
func (s *Server) handleUpdateCar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req carRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	car := req.toDomain()
	car.ID = id
	updated, err := s.cars.Update(r.Context(), car)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// handleDeleteCar implements DELETE /admin/cars/{id}. A car that still has
// rentals referencing it cannot be deleted; that comes back as 409.
func (s *Server) handleDeleteCar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.cars.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
