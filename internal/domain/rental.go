package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RentalStatus is the current position of a rental in its lifecycle.
//
// The only legal paths are:
//
//	PENDING → APPROVED → ACTIVE → CLOSED
//	PENDING → REJECTED
//
// REJECTED and CLOSED are terminal. No transition skips a state or moves
// backward.
type RentalStatus string

const (
	RentalStatusPending  RentalStatus = "PENDING"
	RentalStatusApproved RentalStatus = "APPROVED"
	RentalStatusRejected RentalStatus = "REJECTED"
	RentalStatusActive   RentalStatus = "ACTIVE"
	RentalStatusClosed   RentalStatus = "CLOSED"
)

// Terminal reports whether no further transition is possible from s.
func (s RentalStatus) Terminal() bool {
	return s == RentalStatusRejected || s == RentalStatusClosed
}

// NonTerminalStatuses lists the statuses that block a car from being
// requested again for an overlapping date range.
var NonTerminalStatuses = []RentalStatus{
	RentalStatusPending,
	RentalStatusApproved,
	RentalStatusActive,
}

// EventType identifies one kind of lifecycle event.
type EventType string

const (
	EventRequest  EventType = "REQUEST"
	EventApprove  EventType = "APPROVE"
	EventReject   EventType = "REJECT"
	EventHandover EventType = "HANDOVER"
	EventReturn   EventType = "RETURN"
)

// Rental is the central aggregate: one booking of one car, by either a
// registered user (UserID set) or a guest (the three Guest fields set).
// Exactly one of the two identities must be populated.
// A rental is mutated only through lifecycle transitions and is never deleted.
type Rental struct {
	ID         uuid.UUID    `json:"id"`
	CarID      uuid.UUID    `json:"car_id"`
	UserID     *uuid.UUID   `json:"user_id,omitempty"`
	GuestName  string       `json:"guest_name,omitempty"`
	GuestEmail string       `json:"guest_email,omitempty"`
	GuestPhone string       `json:"guest_phone,omitempty"`
	StartDate  time.Time    `json:"start_date"`
	EndDate    time.Time    `json:"end_date"`
	Status     RentalStatus `json:"status"`
	AgentID    *uuid.UUID   `json:"agent_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// DurationDays returns the rental length in whole days, partial days rounded
// up. A rental spanning any fraction of a day is billed for that day.
func (r Rental) DurationDays() int64 {
	d := r.EndDate.Sub(r.StartDate)
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// RentalEvent is one immutable entry in a rental's append-only audit log.
// Exactly one event is written per successful lifecycle transition.
type RentalEvent struct {
	ID        uuid.UUID  `json:"id"`
	RentalID  uuid.UUID  `json:"rental_id"`
	Type      EventType  `json:"event_type"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// eventOutcome maps each event type to the status it produces.
var eventOutcome = map[EventType]RentalStatus{
	EventRequest:  RentalStatusPending,
	EventApprove:  RentalStatusApproved,
	EventReject:   RentalStatusRejected,
	EventHandover: RentalStatusActive,
	EventReturn:   RentalStatusClosed,
}

// eventPrecondition maps each non-REQUEST event type to the status the rental
// must be in for that event to be legal.
var eventPrecondition = map[EventType]RentalStatus{
	EventApprove:  RentalStatusPending,
	EventReject:   RentalStatusPending,
	EventHandover: RentalStatusApproved,
	EventReturn:   RentalStatusActive,
}

// StatusFromEvents replays an ordered event log and returns the status it
// implies. The log is the source of truth: the status column on rentals is a
// derived cache, and tests validate the two against each other with this
// function.
//
// Returns an error if the log is empty, does not begin with REQUEST, or
// contains a transition the state machine does not allow.
func StatusFromEvents(events []RentalEvent) (RentalStatus, error) {
	if len(events) == 0 {
		return "", fmt.Errorf("empty event log")
	}
	if events[0].Type != EventRequest {
		return "", fmt.Errorf("event log must begin with %s, got %s", EventRequest, events[0].Type)
	}

	status := RentalStatusPending
	for _, ev := range events[1:] {
		want, ok := eventPrecondition[ev.Type]
		if !ok {
			return "", fmt.Errorf("unexpected %s event after start of log", ev.Type)
		}
		if status != want {
			return "", fmt.Errorf("%s event requires status %s, log implies %s", ev.Type, want, status)
		}
		status = eventOutcome[ev.Type]
	}
	return status, nil
}
