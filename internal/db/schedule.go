package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zapislon/internal/model"
)

// GetActiveScheduleByDay returns the active weekly entry for (master, weekday).
func (db *DB) GetActiveScheduleByDay(ctx context.Context, masterID int64, dayOfWeek int) (*model.WeeklySchedule, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, master_id, day_of_week, work_start, work_end,
		       break_start, break_end, is_active, created_at, updated_at
		FROM weekly_schedules
		WHERE master_id = ? AND day_of_week = ? AND is_active = 1
		LIMIT 1`,
		masterID, dayOfWeek,
	)
	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule by day: %w", err)
	}
	return s, nil
}

// GetScheduleEntry returns a weekly entry by ID, active or not.
func (db *DB) GetScheduleEntry(ctx context.Context, id int64) (*model.WeeklySchedule, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, master_id, day_of_week, work_start, work_end,
		       break_start, break_end, is_active, created_at, updated_at
		FROM weekly_schedules WHERE id = ?`, id)
	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule entry %d: %w", id, err)
	}
	return s, nil
}

// ListActiveSchedules returns a master's active weekly entries ordered by weekday.
func (db *DB) ListActiveSchedules(ctx context.Context, masterID int64) ([]model.WeeklySchedule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, master_id, day_of_week, work_start, work_end,
		       break_start, break_end, is_active, created_at, updated_at
		FROM weekly_schedules
		WHERE master_id = ? AND is_active = 1
		ORDER BY day_of_week`,
		masterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var entries []model.WeeklySchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *s)
	}
	return entries, rows.Err()
}

// UpsertSchedule replaces the active entry for (master, weekday) in one
// transaction: any previous active entry is deactivated, then the new one
// inserted. Weekly schedules are mutable config, not an event log.
func (db *DB) UpsertSchedule(ctx context.Context, s *model.WeeklySchedule) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert schedule: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE weekly_schedules SET is_active = 0, updated_at = ?
		WHERE master_id = ? AND day_of_week = ? AND is_active = 1`,
		now, s.MasterID, s.DayOfWeek,
	); err != nil {
		return fmt.Errorf("deactivate previous entry: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO weekly_schedules (master_id, day_of_week, work_start, work_end,
			break_start, break_end, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		s.MasterID, s.DayOfWeek, s.WorkStart, s.WorkEnd,
		nullable(s.BreakStart), nullable(s.BreakEnd), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert schedule entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert schedule: %w", err)
	}
	s.ID = id
	s.IsActive = true
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// DeactivateSchedule soft-deletes a weekly entry.
func (db *DB) DeactivateSchedule(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx,
		"UPDATE weekly_schedules SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDayOff returns the day-off for (master, date), if any.
func (db *DB) GetDayOff(ctx context.Context, masterID int64, date time.Time) (*model.DayOff, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, master_id, date, reason, created_at
		FROM day_offs
		WHERE master_id = ? AND date(date) = date(?)
		LIMIT 1`,
		masterID, date,
	)
	d, err := scanDayOff(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get day off: %w", err)
	}
	return d, nil
}

// CreateDayOff inserts a day-off. The UNIQUE(master_id, date) constraint
// rejects duplicates.
func (db *DB) CreateDayOff(ctx context.Context, d *model.DayOff) error {
	now := time.Now()
	res, err := db.ExecContext(ctx,
		"INSERT INTO day_offs (master_id, date, reason, created_at) VALUES (?, ?, ?, ?)",
		d.MasterID, d.Date, nullable(d.Reason), now,
	)
	if err != nil {
		return fmt.Errorf("insert day off: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = id
	d.CreatedAt = now
	return nil
}

// DeleteDayOff removes a day-off by ID.
func (db *DB) DeleteDayOff(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM day_offs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete day off: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDayOffs returns a master's day-offs within [from, to], ordered by date.
func (db *DB) ListDayOffs(ctx context.Context, masterID int64, from, to time.Time) ([]model.DayOff, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, master_id, date, reason, created_at
		FROM day_offs
		WHERE master_id = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		masterID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list day offs: %w", err)
	}
	defer rows.Close()

	var offs []model.DayOff
	for rows.Next() {
		d, err := scanDayOff(rows)
		if err != nil {
			return nil, err
		}
		offs = append(offs, *d)
	}
	return offs, rows.Err()
}

func scanSchedule(row rowScanner) (*model.WeeklySchedule, error) {
	var s model.WeeklySchedule
	var breakStart, breakEnd sql.NullString
	err := row.Scan(
		&s.ID, &s.MasterID, &s.DayOfWeek, &s.WorkStart, &s.WorkEnd,
		&breakStart, &breakEnd, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if breakStart.Valid {
		s.BreakStart = breakStart.String
	}
	if breakEnd.Valid {
		s.BreakEnd = breakEnd.String
	}
	return &s, nil
}

func scanDayOff(row rowScanner) (*model.DayOff, error) {
	var d model.DayOff
	var reason sql.NullString
	err := row.Scan(&d.ID, &d.MasterID, &d.Date, &reason, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		d.Reason = reason.String
	}
	return &d, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
