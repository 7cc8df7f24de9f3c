package model

import "time"

// Service is a salon service. Only duration and price are consumed by the
// scheduling engine; the rest is carried for listings and reports.
type Service struct {
	ID              int64     `json:"id"`
	SalonID         int64     `json:"salon_id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           float64   `json:"price"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Duration returns the service length as a time.Duration.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
