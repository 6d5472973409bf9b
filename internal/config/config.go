package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "hustle.cfg.json"

// MemoryConfig holds file-based profile storage settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage settings
type SQLiteConfig struct {
	Path        string        `json:"path" mapstructure:"path"`
	BackupDir   string        `json:"backupDir" mapstructure:"backupDir"`
	BackupEvery time.Duration `json:"backupEvery" mapstructure:"backupEvery"`
}

// StorageConfig selects and configures the primary persistence backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// SyncConfig configures the remote profile mirror
type SyncConfig struct {
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	ServerURL     string `json:"serverUrl" mapstructure:"serverUrl"`
	Secret        string `json:"secret" mapstructure:"secret"`
	UploadBackups bool   `json:"uploadBackups" mapstructure:"uploadBackups"`
}

// InfluxConfig configures trip telemetry
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// OTelConfig configures the OpenTelemetry log provider
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`

	// Metrics dumps counters and gauges to logsDir every MetricInterval.
	Metrics        bool          `json:"metrics" mapstructure:"metrics"`
	MetricInterval time.Duration `json:"metricInterval" mapstructure:"metricInterval"`
}

// GameConfig holds the simulation loop timings
type GameConfig struct {
	FrameInterval     time.Duration `json:"frameInterval" mapstructure:"frameInterval"`
	BroadcastInterval time.Duration `json:"broadcastInterval" mapstructure:"broadcastInterval"`
	CrashPause        time.Duration `json:"crashPause" mapstructure:"crashPause"`
	RespawnDelay      time.Duration `json:"respawnDelay" mapstructure:"respawnDelay"`
}

// ServerConfig configures the client-facing HTTP listener
type ServerConfig struct {
	Address string `json:"address" mapstructure:"address"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./saves")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "./hustle.db")
	viper.SetDefault("storage.sqlite.backupDir", "")
	viper.SetDefault("storage.sqlite.backupEvery", "10m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "hustle")

	viper.SetDefault("sync.enabled", false)
	viper.SetDefault("sync.serverUrl", "http://localhost:5000")
	viper.SetDefault("sync.secret", "")
	viper.SetDefault("sync.uploadBackups", false)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "hustle-metrics")
	viper.SetDefault("influx.bucket", "trips")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "hustle-sim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
	viper.SetDefault("otel.metrics", false)
	viper.SetDefault("otel.metricInterval", "1m")

	viper.SetDefault("game.frameInterval", "16ms")
	viper.SetDefault("game.broadcastInterval", "100ms")
	viper.SetDefault("game.crashPause", "2s")
	viper.SetDefault("game.respawnDelay", "3s")

	viper.SetDefault("server.address", ":8080")

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetStorageConfig returns the primary storage backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:        viper.GetString("storage.sqlite.path"),
			BackupDir:   viper.GetString("storage.sqlite.backupDir"),
			BackupEvery: viper.GetDuration("storage.sqlite.backupEvery"),
		},
	}
}

func GetSyncConfig() SyncConfig {
	return SyncConfig{
		Enabled:       viper.GetBool("sync.enabled"),
		ServerURL:     viper.GetString("sync.serverUrl"),
		Secret:        viper.GetString("sync.secret"),
		UploadBackups: viper.GetBool("sync.uploadBackups"),
	}
}

func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
		Metrics:        viper.GetBool("otel.metrics"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
	}
}

// GetGameConfig returns the loop timings. Non-positive intervals are
// replaced by their defaults.
func GetGameConfig() GameConfig {
	cfg := GameConfig{
		FrameInterval:     viper.GetDuration("game.frameInterval"),
		BroadcastInterval: viper.GetDuration("game.broadcastInterval"),
		CrashPause:        viper.GetDuration("game.crashPause"),
		RespawnDelay:      viper.GetDuration("game.respawnDelay"),
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 16 * time.Millisecond
	}
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = 100 * time.Millisecond
	}
	return cfg
}

func GetServerConfig() ServerConfig {
	return ServerConfig{Address: viper.GetString("server.address")}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
