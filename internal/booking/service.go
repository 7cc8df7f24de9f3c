// Package booking governs the booking lifecycle: creation with an atomic
// availability re-check, and the status state machine.
package booking

import (
	"context"
	"fmt"
	"time"

	"zapislon/internal/metrics"
	"zapislon/internal/model"
	"zapislon/internal/schedule"

	"github.com/rs/zerolog"
)

// SlotConflictError is returned when the requested interval is no longer
// bookable. Expected under concurrent use; callers re-fetch availability
// and retry.
type SlotConflictError struct {
	MasterID  int64
	Start     time.Time
	End       time.Time
	BookingID int64 // conflicting booking, when one exists
	Reason    string
}

func (e *SlotConflictError) Error() string {
	if e.BookingID > 0 {
		return fmt.Sprintf("slot %s-%s for master %d conflicts with booking %d",
			e.Start.Format("15:04"), e.End.Format("15:04"), e.MasterID, e.BookingID)
	}
	return fmt.Sprintf("slot %s-%s for master %d unavailable: %s",
		e.Start.Format("15:04"), e.End.Format("15:04"), e.MasterID, e.Reason)
}

// Ledger provides booking persistence.
type Ledger interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status model.Status) error
	FindConflictingBooking(ctx context.Context, masterID int64, start, end time.Time) (*model.Booking, error)
}

// ServiceCatalog resolves services to size bookings.
type ServiceCatalog interface {
	GetService(ctx context.Context, id int64) (*model.Service, error)
}

// DayResolver resolves the effective schedule for a date.
type DayResolver interface {
	GetEffectiveDay(ctx context.Context, masterID int64, date time.Time) (*model.EffectiveDay, error)
}

// CacheInvalidator drops cached availability after a mutation. Optional.
type CacheInvalidator interface {
	InvalidateDay(ctx context.Context, masterID int64, date time.Time)
}

// Rules holds configurable booking constraints. Zero values disable a rule.
type Rules struct {
	MinAdvance time.Duration
	MaxAdvance time.Duration
}

// CreateRequest carries the inputs for a new booking.
type CreateRequest struct {
	MasterID    int64
	ServiceID   int64
	ClientID    int64
	StartAt     time.Time
	ClientNotes string
}

// Service is the booking lifecycle manager.
type Service struct {
	ledger  Ledger
	catalog ServiceCatalog
	days    DayResolver
	cache   CacheInvalidator
	locker  *masterLocker
	rules   Rules
	logger  *zerolog.Logger
	timeNow func() time.Time
}

// NewService creates a lifecycle manager. cache may be nil.
func NewService(ledger Ledger, catalog ServiceCatalog, days DayResolver, cache CacheInvalidator, rules Rules, lockWait time.Duration, logger *zerolog.Logger) *Service {
	return &Service{
		ledger:  ledger,
		catalog: catalog,
		days:    days,
		cache:   cache,
		locker:  newMasterLocker(lockWait),
		rules:   rules,
		logger:  logger,
		timeNow: time.Now,
	}
}

// Create validates the request, re-checks availability under the per-master
// lock and inserts the booking with status pending. The re-check at write
// time is mandatory even when the caller has just computed slots: the two
// calls are not atomic with each other.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	svc, err := s.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("lookup service %d: %w", req.ServiceID, err)
	}
	if !svc.IsActive {
		return nil, &model.ValidationError{Field: "service_id", Reason: "service is inactive"}
	}
	if svc.DurationMinutes <= 0 {
		return nil, &model.ValidationError{Field: "service_id", Reason: "service has non-positive duration"}
	}

	now := s.timeNow()
	if s.rules.MinAdvance > 0 && req.StartAt.Before(now.Add(s.rules.MinAdvance)) {
		return nil, &model.ValidationError{Field: "start_at", Reason: "booking starts too soon"}
	}
	if s.rules.MaxAdvance > 0 && req.StartAt.After(now.Add(s.rules.MaxAdvance)) {
		return nil, &model.ValidationError{Field: "start_at", Reason: "booking is too far in the future"}
	}

	endAt := req.StartAt.Add(svc.Duration())

	if err := s.locker.Acquire(ctx, req.MasterID); err != nil {
		if err == ErrBusy {
			metrics.IncLockTimeout()
		}
		return nil, err
	}
	defer s.locker.Release(req.MasterID)

	if err := s.checkInterval(ctx, req.MasterID, req.StartAt, endAt); err != nil {
		return nil, err
	}

	b := &model.Booking{
		MasterID:    req.MasterID,
		SalonID:     svc.SalonID,
		ServiceID:   svc.ID,
		ClientID:    req.ClientID,
		StartAt:     req.StartAt,
		EndAt:       endAt,
		Status:      model.StatusPending,
		Price:       svc.Price,
		ClientNotes: req.ClientNotes,
	}
	if err := s.ledger.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.IncBookingCreated(string(b.Status))
	s.invalidate(ctx, b.MasterID, b.StartAt)
	s.logger.Info().
		Int64("booking_id", b.ID).
		Int64("master_id", b.MasterID).
		Time("start_at", b.StartAt).
		Msg("booking created")
	return b, nil
}

// checkInterval re-derives busy state for [start, end) the same way the
// availability calculator does, and rejects on any intersection.
func (s *Service) checkInterval(ctx context.Context, masterID int64, start, end time.Time) error {
	day, err := s.days.GetEffectiveDay(ctx, masterID, start)
	if err != nil {
		return fmt.Errorf("resolve effective day: %w", err)
	}
	if day.DayOff != nil {
		metrics.IncSlotConflict("day_off")
		return &SlotConflictError{MasterID: masterID, Start: start, End: end, Reason: "day off"}
	}
	if day.Schedule == nil {
		metrics.IncSlotConflict("no_schedule")
		return &SlotConflictError{MasterID: masterID, Start: start, End: end, Reason: "no working hours defined"}
	}

	sched := day.Schedule
	workStart, err := clockOnDate(start, sched.WorkStart)
	if err != nil {
		return fmt.Errorf("parse work_start: %w", err)
	}
	workEnd, err := clockOnDate(start, sched.WorkEnd)
	if err != nil {
		return fmt.Errorf("parse work_end: %w", err)
	}
	if start.Before(workStart) || end.After(workEnd) {
		metrics.IncSlotConflict("outside_hours")
		return &SlotConflictError{MasterID: masterID, Start: start, End: end, Reason: "outside working hours"}
	}

	if sched.HasBreak() {
		breakStart, err := clockOnDate(start, sched.BreakStart)
		if err != nil {
			return fmt.Errorf("parse break_start: %w", err)
		}
		breakEnd, err := clockOnDate(start, sched.BreakEnd)
		if err != nil {
			return fmt.Errorf("parse break_end: %w", err)
		}
		if start.Before(breakEnd) && breakStart.Before(end) {
			metrics.IncSlotConflict("break")
			return &SlotConflictError{MasterID: masterID, Start: start, End: end, Reason: "intersects break window"}
		}
	}

	conflict, err := s.ledger.FindConflictingBooking(ctx, masterID, start, end)
	if err != nil {
		return fmt.Errorf("conflict check: %w", err)
	}
	if conflict != nil {
		metrics.IncSlotConflict("booking")
		return &SlotConflictError{MasterID: masterID, Start: start, End: end, BookingID: conflict.ID, Reason: "already booked"}
	}
	return nil
}

// Confirm moves a pending booking to confirmed.
func (s *Service) Confirm(ctx context.Context, id int64) (*model.Booking, error) {
	return s.transition(ctx, id, model.StatusConfirmed)
}

// Cancel moves a pending or confirmed booking to the matching cancelled state.
func (s *Service) Cancel(ctx context.Context, id int64, byClient bool) (*model.Booking, error) {
	to := model.StatusCancelledBySalon
	if byClient {
		to = model.StatusCancelledByClient
	}
	return s.transition(ctx, id, to)
}

// Complete moves a confirmed booking to completed. A pending booking cannot
// be completed without confirmation.
func (s *Service) Complete(ctx context.Context, id int64) (*model.Booking, error) {
	return s.transition(ctx, id, model.StatusCompleted)
}

// MarkNoShow moves a confirmed booking to no_show.
func (s *Service) MarkNoShow(ctx context.Context, id int64) (*model.Booking, error) {
	return s.transition(ctx, id, model.StatusNoShow)
}

// Transition applies an arbitrary requested status change, routing through
// the transition table. Used by the status-only PATCH path.
func (s *Service) Transition(ctx context.Context, id int64, to model.Status) (*model.Booking, error) {
	if !to.Valid() {
		return nil, &model.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", to)}
	}
	return s.transition(ctx, id, to)
}

func (s *Service) transition(ctx context.Context, id int64, to model.Status) (*model.Booking, error) {
	b, err := s.ledger.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.locker.Acquire(ctx, b.MasterID); err != nil {
		if err == ErrBusy {
			metrics.IncLockTimeout()
		}
		return nil, err
	}
	defer s.locker.Release(b.MasterID)

	// Re-read under the lock: a concurrent transition may have landed
	// between the first read and lock acquisition.
	b, err = s.ledger.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransition(to) {
		return nil, &model.InvalidTransitionError{BookingID: id, From: b.Status, To: to}
	}
	if err := s.ledger.UpdateBookingStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}

	from := b.Status
	b.Status = to
	b.UpdatedAt = s.timeNow()
	metrics.IncTransition(string(from), string(to))
	s.invalidate(ctx, b.MasterID, b.StartAt)
	s.logger.Info().
		Int64("booking_id", id).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("booking transitioned")
	return b, nil
}

func (s *Service) invalidate(ctx context.Context, masterID int64, date time.Time) {
	if s.cache != nil {
		s.cache.InvalidateDay(ctx, masterID, date)
	}
}

func clockOnDate(date time.Time, clock string) (time.Time, error) {
	minutes, err := schedule.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, date.Location()), nil
}
