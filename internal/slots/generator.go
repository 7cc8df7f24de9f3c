// Package slots computes bookable time slots from a master's effective
// day schedule and existing live bookings.
package slots

import (
	"context"
	"fmt"
	"time"

	"zapislon/internal/model"
	"zapislon/internal/schedule"
)

// DefaultGranularityMinutes is the step between candidate start times.
const DefaultGranularityMinutes = 15

// Slot is a candidate booking start time.
type Slot struct {
	StartTime time.Time
	EndTime   time.Time
	Available bool
	// BookingID annotates an unavailable slot with the live booking that
	// blocks it, when one does. Read-only hint for callers, not authoritative.
	BookingID int64
}

// SlotInfo is the wire representation of a slot.
type SlotInfo struct {
	Time      string `json:"time"` // "10:00"
	Available bool   `json:"available"`
	BookingID int64  `json:"booking_id,omitempty"`
}

// DayResolver resolves the effective schedule for a date.
type DayResolver interface {
	GetEffectiveDay(ctx context.Context, masterID int64, date time.Time) (*model.EffectiveDay, error)
}

// BookingLister returns live (pending/confirmed) bookings intersecting a date.
type BookingLister interface {
	ListLiveBookingsOnDate(ctx context.Context, masterID int64, date time.Time) ([]model.Booking, error)
}

// Calculator generates availability for a (master, date, service duration).
type Calculator struct {
	days     DayResolver
	bookings BookingLister
}

// NewCalculator creates a slot calculator.
func NewCalculator(days DayResolver, bookings BookingLister) *Calculator {
	return &Calculator{days: days, bookings: bookings}
}

// ComputeSlots returns candidate start times at granularity steps within the
// master's work window, each tagged available or not. A day-off or an
// undefined weekday yields an empty list: no working hours, no candidates.
//
// Past times on "today" are not filtered here; callers that need a
// "no past slots" view apply that on top.
func (c *Calculator) ComputeSlots(ctx context.Context, masterID int64, date time.Time, serviceDurationMinutes, granularityMinutes int) ([]Slot, error) {
	if serviceDurationMinutes <= 0 {
		return nil, fmt.Errorf("service duration must be positive, got %d", serviceDurationMinutes)
	}
	if granularityMinutes <= 0 {
		granularityMinutes = DefaultGranularityMinutes
	}

	day, err := c.days.GetEffectiveDay(ctx, masterID, date)
	if err != nil {
		return nil, fmt.Errorf("resolve effective day: %w", err)
	}
	if !day.IsWorkable() {
		return nil, nil
	}

	sched := day.Schedule
	workStart, err := clockOnDate(date, sched.WorkStart)
	if err != nil {
		return nil, fmt.Errorf("parse work_start: %w", err)
	}
	workEnd, err := clockOnDate(date, sched.WorkEnd)
	if err != nil {
		return nil, fmt.Errorf("parse work_end: %w", err)
	}

	var breakStart, breakEnd time.Time
	if sched.HasBreak() {
		if breakStart, err = clockOnDate(date, sched.BreakStart); err != nil {
			return nil, fmt.Errorf("parse break_start: %w", err)
		}
		if breakEnd, err = clockOnDate(date, sched.BreakEnd); err != nil {
			return nil, fmt.Errorf("parse break_end: %w", err)
		}
	}

	// Existing bookings count as busy even when they fall outside the
	// current work window; a schedule shrink leaves old bookings standing.
	busy, err := c.bookings.ListLiveBookingsOnDate(ctx, masterID, date)
	if err != nil {
		return nil, fmt.Errorf("list busy bookings: %w", err)
	}

	duration := time.Duration(serviceDurationMinutes) * time.Minute
	step := time.Duration(granularityMinutes) * time.Minute

	var result []Slot
	for cursor := workStart; !cursor.Add(duration).After(workEnd); cursor = cursor.Add(step) {
		slot := Slot{
			StartTime: cursor,
			EndTime:   cursor.Add(duration),
			Available: true,
		}

		if sched.HasBreak() && overlaps(slot.StartTime, slot.EndTime, breakStart, breakEnd) {
			slot.Available = false
		}
		for i := range busy {
			if busy[i].OverlapsRange(slot.StartTime, slot.EndTime) {
				slot.Available = false
				slot.BookingID = busy[i].ID
				break
			}
		}

		result = append(result, slot)
	}
	return result, nil
}

// ToSlotInfo converts slots to the wire representation.
func ToSlotInfo(in []Slot) []SlotInfo {
	out := make([]SlotInfo, len(in))
	for i, s := range in {
		out[i] = SlotInfo{
			Time:      s.StartTime.Format("15:04"),
			Available: s.Available,
			BookingID: s.BookingID,
		}
	}
	return out
}

// FilterPast marks slots starting before now as unavailable. Applied by the
// API layer for "today" queries.
func FilterPast(in []Slot, now time.Time) []Slot {
	out := make([]Slot, len(in))
	copy(out, in)
	for i := range out {
		if out[i].StartTime.Before(now) {
			out[i].Available = false
		}
	}
	return out
}

func clockOnDate(date time.Time, clock string) (time.Time, error) {
	minutes, err := schedule.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, date.Location()), nil
}

func overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}
