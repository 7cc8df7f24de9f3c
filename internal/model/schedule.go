package model

import "time"

// WeeklySchedule is a master's recurring work window for one weekday.
// Times are wall-clock "HH:MM" strings; DayOfWeek follows time.Weekday
// numbering (0 = Sunday).
type WeeklySchedule struct {
	ID         int64     `json:"id"`
	MasterID   int64     `json:"master_id"`
	DayOfWeek  int       `json:"day_of_week"`
	WorkStart  string    `json:"work_start"`            // "09:00"
	WorkEnd    string    `json:"work_end"`              // "18:00"
	BreakStart string    `json:"break_start,omitempty"` // optional
	BreakEnd   string    `json:"break_end,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasBreak reports whether the entry carries a break window.
func (s *WeeklySchedule) HasBreak() bool {
	return s.BreakStart != "" && s.BreakEnd != ""
}

// DayOff is an exception date on which a master has zero availability
// regardless of the weekly schedule.
type DayOff struct {
	ID        int64     `json:"id"`
	MasterID  int64     `json:"master_id"`
	Date      time.Time `json:"date"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EffectiveDay is the resolved schedule for a (master, date) pair.
// Exactly one of the three shapes applies: a day off, an active weekly
// entry, or nothing defined (treated as fully unavailable).
type EffectiveDay struct {
	Date     time.Time
	DayOff   *DayOff
	Schedule *WeeklySchedule
}

// IsWorkable reports whether the day has any working hours at all.
func (d *EffectiveDay) IsWorkable() bool {
	return d.DayOff == nil && d.Schedule != nil
}
