package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zapislon/internal/model"
)

// GetService returns a service by ID.
func (db *DB) GetService(ctx context.Context, id int64) (*model.Service, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, salon_id, title, duration_minutes, price, is_active, created_at, updated_at
		FROM services WHERE id = ?`, id)

	var s model.Service
	err := row.Scan(&s.ID, &s.SalonID, &s.Title, &s.DurationMinutes, &s.Price,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}
	return &s, nil
}

// CreateService inserts a service.
func (db *DB) CreateService(ctx context.Context, s *model.Service) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO services (salon_id, title, duration_minutes, price, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.SalonID, s.Title, s.DurationMinutes, s.Price, s.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// ListActiveServices returns active services for a salon.
func (db *DB) ListActiveServices(ctx context.Context, salonID int64) ([]model.Service, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, salon_id, title, duration_minutes, price, is_active, created_at, updated_at
		FROM services
		WHERE salon_id = ? AND is_active = 1
		ORDER BY title`,
		salonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.SalonID, &s.Title, &s.DurationMinutes, &s.Price,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
