package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/matatu-hustle/simcore/internal/api"
	"github.com/matatu-hustle/simcore/internal/config"
	"github.com/matatu-hustle/simcore/internal/dispatcher"
	"github.com/matatu-hustle/simcore/internal/handlers"
	"github.com/matatu-hustle/simcore/internal/influx"
	"github.com/matatu-hustle/simcore/internal/logging"
	"github.com/matatu-hustle/simcore/internal/monitor"
	intOtel "github.com/matatu-hustle/simcore/internal/otel"
	"github.com/matatu-hustle/simcore/internal/server"
	"github.com/matatu-hustle/simcore/internal/storage"
	"github.com/matatu-hustle/simcore/internal/worker"
)

// Version and BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const (
	serviceName     = "hustle-server"
	shutdownTimeout = 10 * time.Second
)

func main() {
	configDir := pflag.StringP("config", "c", ".", "directory containing "+config.FileName)
	showVersion := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (built %s)\n", serviceName, Version, BuildDate)
		return
	}

	if err := run(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	startedAt := time.Now()
	bootLog := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := config.Load(configDir); err != nil {
		bootLog.Warn("Failed to load config, using defaults!", "error", err)
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	logPath := logging.LogFilePath(logsDir, serviceName, startedAt)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	// OTel writes its structured records next to the text log.
	otelCfg := config.GetOTelConfig()
	var otelProvider *intOtel.Provider
	var otelLogProvider *sdklog.LoggerProvider
	if otelCfg.Enabled {
		var metricFile io.Writer
		if otelCfg.Metrics {
			f, err := os.OpenFile(filepath.Join(logsDir, "metrics.jsonl"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
			if err != nil {
				bootLog.Warn("Metrics file unavailable", "error", err)
			} else {
				defer f.Close()
				metricFile = f
			}
		}
		otelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      logFile,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
			MetricWriter:   metricFile,
			MetricInterval: otelCfg.MetricInterval,
		})
		if err != nil {
			bootLog.Error("Failed to initialize OTel provider", "error", err)
			otelProvider = nil
		} else {
			otelLogProvider = otelProvider.LoggerProvider()
		}
	}

	level := config.GetString("logLevel")
	slogManager := logging.NewSlogManager()
	slogManager.Setup(io.MultiWriter(os.Stdout, logFile), level, otelLogProvider)
	logger := slogManager.Logger()
	logger.Info("Starting up", "version", Version, "buildDate", BuildDate, "log", logPath)

	// storage
	primary, err := createStorageBackend(config.GetStorageConfig(),
		logger.With("component", "storage"),
		logging.NewZerolog(logFile, level, "database"))
	if err != nil {
		return err
	}

	// remote sync
	syncCfg := config.GetSyncConfig()
	syncLog := logger.With("component", "sync")
	var syncClient *api.Client
	if syncCfg.Enabled {
		syncClient = api.New(syncCfg.ServerURL, syncCfg.Secret)
	}
	if syncCfg.UploadBackups && uploadBackups(primary, syncClient, syncLog) {
		logger.Info("SQLite backups will be uploaded", "url", syncCfg.ServerURL)
	}

	if err := primary.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}

	var mirrors []storage.Backend
	if mirror := createSyncMirror(syncCfg, syncClient, syncLog); mirror != nil {
		mirrors = append(mirrors, mirror)
	}

	// telemetry
	var telemetry worker.TripWriter
	var influxManager *influx.Manager
	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		influxManager = influx.NewManager(
			logging.NewZerolog(logFile, level, "influx"),
			influxCfg,
			filepath.Join(logsDir, "influx_backup.log.gz"))
		if err := influxManager.Connect(context.Background()); err != nil {
			logger.Warn("Trip telemetry disabled", "error", err)
			_ = influxManager.Close()
			influxManager = nil
		} else {
			telemetry = influxManager
		}
	}

	// command routing
	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(logging.NewZerolog(logFile, level, "dispatcher")))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	workerManager, err := worker.NewManager(worker.Dependencies{
		Primary:   primary,
		Mirrors:   mirrors,
		Telemetry: telemetry,
		Logger:    logger.With("component", "worker"),
	})
	if err != nil {
		return err
	}
	workerManager.RegisterHandlers(eventDispatcher)

	handlerService := handlers.NewService(handlers.Dependencies{Trips: workerManager})
	handlerService.RegisterHandlers(eventDispatcher)

	srv, err := server.New(server.Dependencies{
		Dispatcher: eventDispatcher,
		Registry:   handlerService.Registry(),
		Profiles:   workerManager,
		Persister:  workerManager.Persister(),
		Game:       config.GetGameConfig(),
		Logger:     logger.With("component", "server"),
	})
	if err != nil {
		return err
	}

	mirrorsAny := make([]any, 0, len(mirrors))
	for _, m := range mirrors {
		mirrorsAny = append(mirrorsAny, m)
	}
	statusMonitor, err := monitor.NewService(monitor.Dependencies{
		Sessions:   srv,
		Storage:    primary,
		Mirrors:    mirrorsAny,
		StatusFile: filepath.Join(logsDir, "status.json"),
		Logger:     logger.With("component", "monitor"),
	})
	if err != nil {
		return err
	}
	statusMonitor.Start()

	serverCfg := config.GetServerConfig()
	httpServer := &http.Server{
		Addr:              serverCfg.Address,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", "address", serverCfg.Address)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Sessions first so their last saves reach the dispatcher, then drain
	// the dispatcher into storage.
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	srv.Close()
	statusMonitor.Stop()
	if err := eventDispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("Dispatcher did not drain", "error", err)
	}
	for _, m := range mirrors {
		if err := m.Close(); err != nil {
			logger.Warn("Failed to close sync mirror", "error", err)
		}
	}
	if err := primary.Close(); err != nil {
		logger.Error("Failed to close storage backend", "error", err)
	}
	if influxManager != nil {
		if err := influxManager.Close(); err != nil {
			logger.Warn("Failed to close InfluxDB client", "error", err)
		}
	}

	logger.Info("Stopped")
	if err := slogManager.Flush(shutdownCtx); err != nil {
		bootLog.Warn("Failed to flush OTel logs", "error", err)
	}
	if otelProvider != nil {
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			bootLog.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	return nil
}
