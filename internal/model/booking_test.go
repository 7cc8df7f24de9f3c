package model

import (
	"testing"
	"time"
)

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled by client", StatusPending, StatusCancelledByClient, true},
		{"pending to cancelled by salon", StatusPending, StatusCancelledBySalon, true},
		{"pending cannot complete directly", StatusPending, StatusCompleted, false},
		{"pending cannot no-show", StatusPending, StatusNoShow, false},
		{"confirmed to completed", StatusConfirmed, StatusCompleted, true},
		{"confirmed to no-show", StatusConfirmed, StatusNoShow, true},
		{"confirmed to cancelled by client", StatusConfirmed, StatusCancelledByClient, true},
		{"confirmed cannot revert to pending", StatusConfirmed, StatusPending, false},
		{"completed is terminal", StatusCompleted, StatusConfirmed, false},
		{"cancelled by client is terminal", StatusCancelledByClient, StatusPending, false},
		{"cancelled by salon is terminal", StatusCancelledBySalon, StatusConfirmed, false},
		{"no-show is terminal", StatusNoShow, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.allowed {
				t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
			}
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusPending.IsLive() || !StatusConfirmed.IsLive() {
		t.Error("pending and confirmed must be live")
	}
	for _, s := range []Status{StatusCompleted, StatusCancelledByClient, StatusCancelledBySalon, StatusNoShow} {
		if s.IsLive() {
			t.Errorf("%s must not be live", s)
		}
		if !s.IsTerminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	if StatusPending.IsTerminal() || StatusConfirmed.IsTerminal() {
		t.Error("pending and confirmed are not terminal")
	}
	if Status("unknown").Valid() {
		t.Error("unknown status must not be valid")
	}
	if Status("unknown").IsTerminal() {
		t.Error("unknown status is not terminal, it is invalid")
	}
}

func TestBookingOverlapsRange(t *testing.T) {
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	b := &Booking{StartAt: at(10, 0), EndAt: at(10, 30)}

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		overlaps bool
	}{
		{"identical range", at(10, 0), at(10, 30), true},
		{"starts inside", at(10, 15), at(10, 45), true},
		{"ends inside", at(9, 45), at(10, 15), true},
		{"contains booking", at(9, 0), at(11, 0), true},
		{"back to back after", at(10, 30), at(11, 0), false},
		{"back to back before", at(9, 30), at(10, 0), false},
		{"disjoint", at(12, 0), at(12, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.OverlapsRange(tt.start, tt.end); got != tt.overlaps {
				t.Errorf("expected %v, got %v", tt.overlaps, got)
			}
			other := &Booking{StartAt: tt.start, EndAt: tt.end}
			if got := b.Overlaps(other); got != tt.overlaps {
				t.Errorf("Overlaps: expected %v, got %v", tt.overlaps, got)
			}
		})
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{BookingID: 7, From: StatusCompleted, To: StatusPending}
	want := "booking 7: invalid transition completed -> pending"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}
