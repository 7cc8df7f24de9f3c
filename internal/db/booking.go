package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zapislon/internal/model"
)

// liveStatuses is the SQL fragment for statuses that block availability.
const liveStatuses = `('pending', 'confirmed')`

// CreateBooking inserts a booking and populates its ID and timestamps.
// Callers are responsible for running the conflict check first; the insert
// itself does not re-verify overlap.
func (db *DB) CreateBooking(ctx context.Context, b *model.Booking) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO bookings (master_id, salon_id, service_id, client_id,
			start_at, end_at, status, price, client_notes, salon_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.MasterID, b.SalonID, b.ServiceID, b.ClientID,
		b.StartAt, b.EndAt, string(b.Status), b.Price, b.ClientNotes, b.SalonNotes, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// GetBooking returns a booking by ID.
func (db *DB) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, master_id, salon_id, service_id, client_id,
		       start_at, end_at, status, price, client_notes, salon_notes, created_at, updated_at
		FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

// UpdateBookingStatus sets a booking's status. The lifecycle manager owns
// the transition check; this is a plain write.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status model.Status) error {
	res, err := db.ExecContext(ctx,
		"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
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

// UpdateSalonNotes sets the salon-side notes on a booking.
func (db *DB) UpdateSalonNotes(ctx context.Context, id int64, notes string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE bookings SET salon_notes = ?, updated_at = ? WHERE id = ?",
		notes, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update salon notes: %w", err)
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

// ListLiveBookingsOnDate returns pending/confirmed bookings that intersect
// the given local calendar date, ordered by start time. A booking created
// under an older, wider schedule still shows up here and blocks slots.
func (db *DB) ListLiveBookingsOnDate(ctx context.Context, masterID int64, date time.Time) ([]model.Booking, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	rows, err := db.QueryContext(ctx, `
		SELECT id, master_id, salon_id, service_id, client_id,
		       start_at, end_at, status, price, client_notes, salon_notes, created_at, updated_at
		FROM bookings
		WHERE master_id = ?
		AND start_at < ? AND end_at > ?
		AND status IN `+liveStatuses+`
		ORDER BY start_at`,
		masterID, endOfDay, startOfDay,
	)
	if err != nil {
		return nil, fmt.Errorf("list live bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// FindConflictingBooking returns the first pending/confirmed booking whose
// [start_at, end_at) intersects [start, end), or nil if the range is free.
func (db *DB) FindConflictingBooking(ctx context.Context, masterID int64, start, end time.Time) (*model.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, master_id, salon_id, service_id, client_id,
		       start_at, end_at, status, price, client_notes, salon_notes, created_at, updated_at
		FROM bookings
		WHERE master_id = ?
		AND start_at < ? AND end_at > ?
		AND status IN `+liveStatuses+`
		ORDER BY start_at
		LIMIT 1`,
		masterID, end, start,
	)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find conflicting booking: %w", err)
	}
	return b, nil
}

// BookingFilter narrows ListBookings results.
type BookingFilter struct {
	MasterID int64
	SalonID  int64
	ClientID int64
	Status   model.Status
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
	Offset   int
}

// ListBookings returns bookings matching the filter, newest first.
func (db *DB) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	query := `
		SELECT id, master_id, salon_id, service_id, client_id,
		       start_at, end_at, status, price, client_notes, salon_notes, created_at, updated_at
		FROM bookings WHERE 1=1`
	var args []interface{}

	if filter.MasterID > 0 {
		query += " AND master_id = ?"
		args = append(args, filter.MasterID)
	}
	if filter.SalonID > 0 {
		query += " AND salon_id = ?"
		args = append(args, filter.SalonID)
	}
	if filter.ClientID > 0 {
		query += " AND client_id = ?"
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if !filter.DateFrom.IsZero() {
		query += " AND start_at >= ?"
		args = append(args, filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		query += " AND start_at < ?"
		args = append(args, filter.DateTo)
	}

	query += " ORDER BY start_at DESC"
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var status string
	var clientNotes, salonNotes sql.NullString
	err := row.Scan(
		&b.ID, &b.MasterID, &b.SalonID, &b.ServiceID, &b.ClientID,
		&b.StartAt, &b.EndAt, &status, &b.Price, &clientNotes, &salonNotes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = model.Status(status)
	if clientNotes.Valid {
		b.ClientNotes = clientNotes.String
	}
	if salonNotes.Valid {
		b.SalonNotes = salonNotes.String
	}
	return &b, nil
}
