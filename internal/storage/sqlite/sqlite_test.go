package sqlitestorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/matatu-hustle/simcore/internal/config"
	"github.com/matatu-hustle/simcore/internal/database"
	"github.com/matatu-hustle/simcore/internal/progression"
	"github.com/matatu-hustle/simcore/internal/storage"
	"github.com/matatu-hustle/simcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.TripLister = (*Backend)(nil)
)

func TestProfileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "hustle.db")

	b, err := New(config.SQLiteConfig{Path: path}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	s := progression.Default("player-1")
	s.BankBalance = 31000
	require.NoError(t, b.SaveProfile(s))
	require.NoError(t, b.RecordTrip(core.TripRecord{ID: "t1", ProfileID: "player-1"}))
	require.NoError(t, b.Close())

	reopened, err := New(config.SQLiteConfig{Path: path}, nil)
	require.NoError(t, err)
	require.NoError(t, reopened.Init())
	defer reopened.Close()

	got, err := reopened.LoadProfile("player-1")
	require.NoError(t, err)
	assert.Equal(t, 31000.0, got.BankBalance)

	trips, err := reopened.ListTrips("player-1", 0)
	require.NoError(t, err)
	assert.Len(t, trips, 1)
}

func TestBackup_WritesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(dir, "backups")

	b, err := New(config.SQLiteConfig{
		Path:        filepath.Join(dir, "hustle.db"),
		BackupDir:   backups,
		BackupEvery: time.Hour,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.SaveProfile(progression.Default("player-1")))

	path, err := b.Backup()
	require.NoError(t, err)
	assert.FileExists(t, path)

	copyDB, err := database.GetSqliteDBStandalone(path)
	require.NoError(t, err)
	var count int64
	require.NoError(t, copyDB.Table("profiles").Count(&count).Error)
	assert.Equal(t, int64(1), count)
	if sqlDB, err := copyDB.DB(); err == nil {
		sqlDB.Close()
	}
}

func TestBackup_RequiresDir(t *testing.T) {
	b, err := New(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "x.db")}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	_, err = b.Backup()
	assert.Error(t, err)
}

func TestBackupLoop_CallsHook(t *testing.T) {
	dir := t.TempDir()
	b, err := New(config.SQLiteConfig{
		Path:        filepath.Join(dir, "hustle.db"),
		BackupDir:   filepath.Join(dir, "backups"),
		BackupEvery: 20 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	paths := make(chan string, 16)
	b.OnBackup(func(path string) {
		select {
		case paths <- path:
		default:
		}
	})
	require.NoError(t, b.Init())
	defer b.Close()

	select {
	case path := <-paths:
		assert.FileExists(t, path)
	case <-time.After(3 * time.Second):
		t.Fatal("backup hook was not called")
	}
}
