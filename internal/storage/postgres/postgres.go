// Package postgres implements storage.Backend on PostgreSQL. When the server
// cannot be reached the database manager falls back to a local SQLite file,
// so the game keeps saving progress either way.
package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/matatu-hustle/simcore/internal/database"
	gormstorage "github.com/matatu-hustle/simcore/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Dependencies holds what the postgres backend needs to connect.
type Dependencies struct {
	// DBLogger receives connection diagnostics from the database manager.
	DBLogger zerolog.Logger
	Logger   *slog.Logger
	// FallbackPath is the SQLite file used when Postgres is unavailable.
	// Empty means an in-memory database.
	FallbackPath string
}

// Backend is the GORM backend bound to a managed connection.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
}

// New connects using the db.* configuration keys.
func New(deps Dependencies) (*Backend, error) {
	m := database.NewManager(deps.DBLogger)
	m.SqliteFilePath = deps.FallbackPath
	if err := m.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: m.DB, Logger: deps.Logger}),
		manager: m,
	}, nil
}

// Init migrates the schema and starts the trip writer.
func (b *Backend) Init() error {
	if err := b.manager.Setup(); err != nil {
		return err
	}
	return b.Backend.Init()
}

// Close flushes queued trips and closes the connection pool.
func (b *Backend) Close() error {
	return errors.Join(b.Backend.Close(), b.manager.Close())
}

// Local reports whether the backend fell back to SQLite.
func (b *Backend) Local() bool {
	return b.manager.ShouldSaveLocal
}

// Dialect names the connected database, "postgres" or "sqlite".
func (b *Backend) Dialect() string {
	return b.manager.DB.Dialector.Name()
}
