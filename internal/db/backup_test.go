package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupSnapshot(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	database, err := New(dbPath, &logger)
	require.NoError(t, err)
	defer database.Close()

	storage := filepath.Join(dir, "backups")
	b := NewBackupper(dbPath, BackupOptions{StoragePath: storage, RetentionDays: 7}, &logger)

	require.NoError(t, b.Snapshot())

	files, err := os.ReadDir(storage)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Name(), "backup_")

	info, err := files[0].Info()
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestBackupPrune(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()
	storage := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(storage, 0o755))

	old := filepath.Join(storage, "backup_20200101_000000.db")
	require.NoError(t, os.WriteFile(old, []byte("stale"), 0o644))
	stale := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, stale, stale))

	fresh := filepath.Join(storage, "backup_recent.db")
	require.NoError(t, os.WriteFile(fresh, []byte("fresh"), 0o644))

	b := NewBackupper(filepath.Join(dir, "test.db"), BackupOptions{StoragePath: storage, RetentionDays: 7}, &logger)
	b.prune()

	files, err := os.ReadDir(storage)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "backup_recent.db", files[0].Name())
}
