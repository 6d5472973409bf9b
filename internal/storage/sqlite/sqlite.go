// Package sqlitestorage implements storage.Backend on a local SQLite file.
// It wraps the GORM backend and adds periodic point-in-time backups taken
// with VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matatu-hustle/simcore/internal/config"
	"github.com/matatu-hustle/simcore/internal/database"
	gormstorage "github.com/matatu-hustle/simcore/internal/storage/gorm"

	"gorm.io/gorm"
)

// keepBackups is how many backup files survive pruning.
const keepBackups = 5

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      config.SQLiteConfig
	log      *slog.Logger
	onBackup func(path string)
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New opens the database file. An empty path uses an in-memory database.
func New(cfg config.SQLiteConfig, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := database.GetSqliteDBStandalone(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend:  gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
		db:       db,
		cfg:      cfg,
		log:      logger,
		stopChan: make(chan struct{}),
	}, nil
}

// OnBackup registers fn to run after each scheduled backup. Set it before Init.
func (b *Backend) OnBackup(fn func(path string)) {
	b.onBackup = fn
}

// Init initializes the embedded GORM backend and starts the backup goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.BackupDir != "" && b.cfg.BackupEvery > 0 {
		if err := os.MkdirAll(b.cfg.BackupDir, 0755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
		b.wg.Add(1)
		go b.backupLoop()
	}

	return nil
}

// Close stops the backup goroutine, flushes the GORM backend and closes the file.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() { close(b.stopChan) })
	b.wg.Wait()

	err := b.Backend.Close()
	if sqlDB, dbErr := b.db.DB(); dbErr == nil {
		if cerr := sqlDB.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Backup writes a snapshot of the database into the backup directory and
// prunes old ones. It returns the new file's path.
func (b *Backend) Backup() (string, error) {
	if b.cfg.BackupDir == "" {
		return "", fmt.Errorf("backup directory not set")
	}
	if err := b.Flush(); err != nil {
		b.log.Warn("Backing up with unflushed trips", "error", err)
	}
	path := filepath.Join(b.cfg.BackupDir, database.BackupFileName(time.Now()))
	if err := database.DumpMemoryDBToDisk(b.db, path); err != nil {
		return "", err
	}
	if err := database.PruneBackups(b.cfg.BackupDir, keepBackups); err != nil {
		b.log.Warn("Failed to prune old backups", "error", err)
	}
	return path, nil
}

func (b *Backend) backupLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.BackupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			path, err := b.Backup()
			if err != nil {
				b.log.Error("Error backing up database", "error", err)
				continue
			}
			b.log.Debug("Backed up database", "path", path, "duration", time.Since(start))
			if b.onBackup != nil {
				b.onBackup(path)
			}
		}
	}
}
