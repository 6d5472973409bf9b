package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/matatu-hustle/simcore/internal/api"
	"github.com/matatu-hustle/simcore/internal/config"
	"github.com/matatu-hustle/simcore/internal/storage"
	"github.com/matatu-hustle/simcore/internal/storage/memory"
	pgstorage "github.com/matatu-hustle/simcore/internal/storage/postgres"
	sqlitestorage "github.com/matatu-hustle/simcore/internal/storage/sqlite"
	wsstorage "github.com/matatu-hustle/simcore/internal/storage/websocket"
)

func createStorageBackend(storageCfg config.StorageConfig, logger *slog.Logger, dbLog zerolog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		backend, err := pgstorage.New(pgstorage.Dependencies{
			DBLogger:     dbLog,
			Logger:       logger,
			FallbackPath: storageCfg.SQLite.Path,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres backend: %w", err)
		}
		if backend.Local() {
			logger.Warn("Postgres unavailable, profiles are stored in SQLite", "path", storageCfg.SQLite.Path)
		} else {
			logger.Info("Postgres storage backend initialized")
		}
		return backend, nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return backend, nil

	case "memory", "":
		logger.Info("Memory storage backend initialized", "dir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// syncPath is where the sync service accepts mirror connections.
const syncPath = "/api/sync"

// createSyncMirror connects the remote profile mirror. It returns nil when
// sync is disabled or the service cannot be reached.
func createSyncMirror(syncCfg config.SyncConfig, client *api.Client, logger *slog.Logger) storage.Backend {
	if !syncCfg.Enabled || client == nil {
		return nil
	}
	if err := client.Healthcheck(); err != nil {
		logger.Warn("Sync service unavailable, continuing without mirror", "url", client.BaseURL(), "error", err)
		return nil
	}

	hostname, _ := os.Hostname()
	wsURL := httpToWS(client.BaseURL()) + syncPath
	mirror := wsstorage.New(wsstorage.Config{
		URL:      wsURL,
		Secret:   syncCfg.Secret,
		ServerID: hostname,
		Version:  Version,
	}, logger)
	if err := mirror.Init(); err != nil {
		logger.Warn("Sync mirror failed to connect, continuing without it", "url", wsURL, "error", err)
		_ = mirror.Close()
		return nil
	}
	logger.Info("Sync mirror connected", "url", wsURL)
	return mirror
}

// uploadBackups ships every scheduled SQLite backup to the sync service.
func uploadBackups(primary storage.Backend, client *api.Client, logger *slog.Logger) bool {
	backend, ok := primary.(*sqlitestorage.Backend)
	if !ok || client == nil {
		return false
	}
	hostname, _ := os.Hostname()
	backend.OnBackup(func(path string) {
		meta := api.BackupMetadata{ServerID: hostname, Version: Version, TakenAt: time.Now()}
		if err := client.UploadBackup(path, meta); err != nil {
			logger.Warn("Failed to upload backup", "path", path, "error", err)
			return
		}
		logger.Debug("Uploaded backup", "path", path)
	})
	return true
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
