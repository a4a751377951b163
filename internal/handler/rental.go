package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/berauto/backend/internal/domain"
	"github.com/berauto/backend/internal/middleware"
	"github.com/berauto/backend/internal/service"
)

type rentalRequest struct {
	CarID      uuid.UUID `json:"car_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	GuestName  string    `json:"guest_name,omitempty"`
	GuestEmail string    `json:"guest_email,omitempty"`
	GuestPhone string    `json:"guest_phone,omitempty"`
}

type decisionRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes,omitempty"`
}

type mileageRequest struct {
	MileageKm int `json:"mileage_km"`
}

type rentalListResponse struct {
	Data       []domain.Rental `json:"data"`
	Pagination pagination      `json:"pagination"`
}

// handleRequestRental implements POST /rentals, open to guests and signed-in
// users alike. A session supplies the requester's user identity; guest
// contact fields from the body are passed through untouched, so sending
// both identities is rejected by the service as a validation error.
func (s *Server) handleRequestRental(w http.ResponseWriter, r *http.Request) {
	var req rentalRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	requester := service.Requester{
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: req.GuestPhone,
	}
	if session := middleware.SessionFromContext(r.Context()); session != nil {
		requester.UserID = &session.UserID
	}

	created, err := s.rentals.Request(r.Context(), req.CarID, requester, req.StartDate, req.EndDate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// handleMyRentals implements GET /dashboard/rentals: the signed-in user's
// own rentals, newest first.
func (s *Server) handleMyRentals(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}
	rentals, err := s.rentals.ListByUser(r.Context(), actor.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rentals)
}

// handleListRentals implements GET /agent/rentals.
// Supports ?status= to filter and ?page=/?limit= for paging
// (defaults: page=1, limit=20, max=100).
func (s *Server) handleListRentals(w http.ResponseWriter, r *http.Request) {
	var status *domain.RentalStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.RentalStatus(raw)
		status = &st
	}
	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	rentals, total, err := s.rentals.List(r.Context(), status, params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rentalListResponse{
		Data:       rentals,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// handleGetRental implements GET /agent/rentals/{id}.
func (s *Server) handleGetRental(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	rental, err := s.rentals.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rental)
}

// handleRentalEvents implements GET /agent/rentals/{id}/events: the rental's
// append-only audit trail, oldest first.
func (s *Server) handleRentalEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	events, err := s.rentals.Events(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, events)
}

// handleDecideRental implements POST /agent/rentals/{id}/decision.
// A rental that is no longer PENDING, including one a concurrent agent just
// decided, comes back as 409.
func (s *Server) handleDecideRental(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}
	var req decisionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	updated, err := s.rentals.Decide(r.Context(), id, actor, req.Approve, req.Notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// handleHandover implements POST /agent/rentals/{id}/handover.
func (s *Server) handleHandover(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}
	var req mileageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	updated, err := s.rentals.Handover(r.Context(), id, actor, req.MileageKm)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// handleReturn implements POST /agent/rentals/{id}/return.
func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}
	var req mileageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	updated, err := s.rentals.Return(r.Context(), id, actor, req.MileageKm)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// handleGetInvoice implements GET /agent/rentals/{id}/invoice.
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	inv, err := s.invoices.GetByRentalID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inv)
}

// handleIssueInvoice implements POST /agent/rentals/{id}/invoice: the retry
// path when invoicing failed after a return. Issuing twice is a 409.
func (s *Server) handleIssueInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := s.actorFromRequest(w, r)
	if !ok {
		return
	}
	inv, err := s.invoices.Issue(r.Context(), id, actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, inv)
}
