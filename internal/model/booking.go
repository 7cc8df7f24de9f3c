package model

import (
	"fmt"
	"time"
)

// Status represents booking status.
type Status string

const (
	StatusPending           Status = "pending"
	StatusConfirmed         Status = "confirmed"
	StatusCompleted         Status = "completed"
	StatusCancelledByClient Status = "cancelled_by_client"
	StatusCancelledBySalon  Status = "cancelled_by_salon"
	StatusNoShow            Status = "no_show"
)

// transitions is the closed set of allowed status changes.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelledByClient, StatusCancelledBySalon},
	StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCancelledByClient, StatusCancelledBySalon},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted,
		StatusCancelledByClient, StatusCancelledBySalon, StatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// IsLive reports whether the booking blocks its time range.
// Only pending and confirmed bookings count toward availability.
func (s Status) IsLive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransition checks the transition table.
func (s Status) CanTransition(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError is returned when a status change is not permitted
// from the booking's current state.
type InvalidTransitionError struct {
	BookingID int64
	From      Status
	To        Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %d: invalid transition %s -> %s", e.BookingID, e.From, e.To)
}

// Booking represents a client appointment with a master.
// Bookings are never deleted; cancellation is a status change.
type Booking struct {
	ID          int64     `json:"id"`
	MasterID    int64     `json:"master_id"`
	SalonID     int64     `json:"salon_id"`
	ServiceID   int64     `json:"service_id"`
	ClientID    int64     `json:"client_id"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	Status      Status    `json:"status"`
	Price       float64   `json:"price"`
	ClientNotes string    `json:"client_notes,omitempty"`
	SalonNotes  string    `json:"salon_notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Overlaps checks if this booking overlaps another in time.
// Uses half-open interval [start, end) semantics: two intervals
// [a,b) and [c,d) intersect iff a < d && c < b.
func (b *Booking) Overlaps(other *Booking) bool {
	return b.StartAt.Before(other.EndAt) && other.StartAt.Before(b.EndAt)
}

// OverlapsRange checks the booking against an arbitrary [start, end) range.
func (b *Booking) OverlapsRange(start, end time.Time) bool {
	return b.StartAt.Before(end) && start.Before(b.EndAt)
}
