// Package schedule manages masters' recurring weekly schedules and day-off
// exceptions. Validation happens here, before anything touches the database.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"zapislon/internal/db"
	"zapislon/internal/model"

	"github.com/rs/zerolog"
)

// Store validates and persists weekly schedules and day-offs.
type Store struct {
	db     *db.DB
	logger *zerolog.Logger
}

// NewStore creates a schedule store.
func NewStore(database *db.DB, logger *zerolog.Logger) *Store {
	return &Store{db: database, logger: logger}
}

// UpsertWeeklyEntry validates and replaces the active entry for the
// entry's (master, weekday). No partial writes: validation errors leave
// the stored schedule untouched.
func (s *Store) UpsertWeeklyEntry(ctx context.Context, entry *model.WeeklySchedule) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	if err := s.db.UpsertSchedule(ctx, entry); err != nil {
		return fmt.Errorf("upsert weekly entry: %w", err)
	}
	s.logger.Info().
		Int64("master_id", entry.MasterID).
		Int("day_of_week", entry.DayOfWeek).
		Str("hours", entry.WorkStart+"-"+entry.WorkEnd).
		Msg("weekly schedule entry replaced")
	return nil
}

// DeactivateWeeklyEntry soft-deletes a weekly entry by ID.
func (s *Store) DeactivateWeeklyEntry(ctx context.Context, id int64) error {
	return s.db.DeactivateSchedule(ctx, id)
}

// ListWeek returns a master's active entries ordered by weekday.
func (s *Store) ListWeek(ctx context.Context, masterID int64) ([]model.WeeklySchedule, error) {
	return s.db.ListActiveSchedules(ctx, masterID)
}

// AddDayOff records an exception date with zero availability.
func (s *Store) AddDayOff(ctx context.Context, masterID int64, date time.Time, reason string) (*model.DayOff, error) {
	today := truncateToDay(time.Now())
	if truncateToDay(date).Before(today) {
		return nil, &model.ValidationError{Field: "date", Reason: "day off cannot be in the past"}
	}
	if _, err := s.db.GetDayOff(ctx, masterID, date); err == nil {
		return nil, &model.ValidationError{Field: "date", Reason: "day off already exists for this date"}
	} else if err != db.ErrNotFound {
		return nil, fmt.Errorf("check existing day off: %w", err)
	}

	off := &model.DayOff{MasterID: masterID, Date: truncateToDay(date), Reason: reason}
	if err := s.db.CreateDayOff(ctx, off); err != nil {
		return nil, fmt.Errorf("add day off: %w", err)
	}
	return off, nil
}

// RemoveDayOff deletes a day-off by ID.
func (s *Store) RemoveDayOff(ctx context.Context, id int64) error {
	return s.db.DeleteDayOff(ctx, id)
}

// ListDayOffs returns a master's day-offs within [from, to].
func (s *Store) ListDayOffs(ctx context.Context, masterID int64, from, to time.Time) ([]model.DayOff, error) {
	return s.db.ListDayOffs(ctx, masterID, from, to)
}

// GetEffectiveDay resolves the schedule that applies to (master, date).
// A day-off wins over the weekly entry; a missing entry means the day is
// fully unavailable.
func (s *Store) GetEffectiveDay(ctx context.Context, masterID int64, date time.Time) (*model.EffectiveDay, error) {
	day := &model.EffectiveDay{Date: truncateToDay(date)}

	off, err := s.db.GetDayOff(ctx, masterID, date)
	if err != nil && err != db.ErrNotFound {
		return nil, fmt.Errorf("resolve day off: %w", err)
	}
	if off != nil {
		day.DayOff = off
		return day, nil
	}

	entry, err := s.db.GetActiveScheduleByDay(ctx, masterID, int(date.Weekday()))
	if err == db.ErrNotFound {
		return day, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve weekly entry: %w", err)
	}
	day.Schedule = entry
	return day, nil
}

func validateEntry(entry *model.WeeklySchedule) error {
	if entry.MasterID <= 0 {
		return &model.ValidationError{Field: "master_id", Reason: "must be positive"}
	}
	if entry.DayOfWeek < 0 || entry.DayOfWeek > 6 {
		return &model.ValidationError{Field: "day_of_week", Reason: "must be in range 0-6"}
	}

	workStart, err := ParseClock(entry.WorkStart)
	if err != nil {
		return &model.ValidationError{Field: "work_start", Reason: err.Error()}
	}
	workEnd, err := ParseClock(entry.WorkEnd)
	if err != nil {
		return &model.ValidationError{Field: "work_end", Reason: err.Error()}
	}
	if workStart >= workEnd {
		return &model.ValidationError{Field: "work_start", Reason: "work_start must be before work_end"}
	}

	hasBreakStart := entry.BreakStart != ""
	hasBreakEnd := entry.BreakEnd != ""
	if hasBreakStart != hasBreakEnd {
		return &model.ValidationError{Field: "break_start", Reason: "break_start and break_end must be set together"}
	}
	if hasBreakStart {
		breakStart, err := ParseClock(entry.BreakStart)
		if err != nil {
			return &model.ValidationError{Field: "break_start", Reason: err.Error()}
		}
		breakEnd, err := ParseClock(entry.BreakEnd)
		if err != nil {
			return &model.ValidationError{Field: "break_end", Reason: err.Error()}
		}
		if breakStart >= breakEnd {
			return &model.ValidationError{Field: "break_start", Reason: "break_start must be before break_end"}
		}
		if breakStart < workStart || breakEnd > workEnd {
			return &model.ValidationError{Field: "break_start", Reason: "break must lie inside the work window"}
		}
	}
	return nil
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
