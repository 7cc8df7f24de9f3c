package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps sql.DB for the scheduling engine.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// New opens the database at path and runs migrations.
func New(path string, logger *zerolog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, ":memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(conn); err != nil {
		return nil, err
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: conn, logger: logger}, nil
}

func createTables(conn *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS services (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			salon_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			price REAL NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS weekly_schedules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			master_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			work_start TEXT NOT NULL,
			work_end TEXT NOT NULL,
			break_start TEXT,
			break_end TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS day_offs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			master_id INTEGER NOT NULL,
			date DATETIME NOT NULL,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(master_id, date)
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			master_id INTEGER NOT NULL,
			salon_id INTEGER NOT NULL,
			service_id INTEGER NOT NULL,
			client_id INTEGER NOT NULL,
			start_at DATETIME NOT NULL,
			end_at DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			price REAL NOT NULL,
			client_notes TEXT,
			salon_notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (service_id) REFERENCES services(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_schedules_master_day ON weekly_schedules(master_id, day_of_week, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_day_offs_master_date ON day_offs(master_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_master_times ON bookings(master_id, start_at, end_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_client ON bookings(client_id)`,
	}

	for _, q := range queries {
		if _, err := conn.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
