package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all tool configuration. The descriptor itself is not part of
// it; it is loaded separately and passed explicitly to whatever consumes it.
type Config struct {
	Log      LogConfig
	Runner   RunnerConfig
	Hub      HubConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Server   ServerConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// RunnerConfig holds external runner process configuration.
type RunnerConfig struct {
	Binary  string
	Args    []string
	WorkDir string
	Env     []string
}

// HubConfig holds remote endpoint probe configuration.
type HubConfig struct {
	Probe        bool
	ProbeTimeout time.Duration
}

// DatabaseConfig holds run history database configuration.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int // 0 means unlimited, or 1 for sqlite
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// StorageConfig holds artifact storage configuration.
type StorageConfig struct {
	Enabled         bool
	Type            string        // "local" or "s3"
	BaseDir         string        // For local: "./.e2erun/artifacts"
	S3Bucket        string        // For S3: bucket name
	S3Region        string        // For S3: AWS region
	S3Prefix        string        // For S3: key prefix
	S3PresignExpiry time.Duration // Presigned URL expiration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("e2erun")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("E2ERUN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("runner.binary", "protractor")
	v.SetDefault("runner.args", []string{})
	v.SetDefault("runner.work_dir", "")
	v.SetDefault("runner.env", []string{})

	v.SetDefault("hub.probe", true)
	v.SetDefault("hub.probe_timeout", "5s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".e2erun/history.db")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "0s")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", ".e2erun/artifacts")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_prefix", "e2erun")
	v.SetDefault("storage.s3_presign_expiry", "15m")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults
	}

	var config Config

	config.Log.Level = v.GetString("log.level")
	config.Log.Format = v.GetString("log.format")

	config.Runner.Binary = v.GetString("runner.binary")
	config.Runner.Args = v.GetStringSlice("runner.args")
	config.Runner.WorkDir = v.GetString("runner.work_dir")
	config.Runner.Env = v.GetStringSlice("runner.env")

	config.Hub.Probe = v.GetBool("hub.probe")
	config.Hub.ProbeTimeout = v.GetDuration("hub.probe_timeout")

	config.Database.Driver = v.GetString("database.driver")
	config.Database.DSN = v.GetString("database.dsn")
	config.Database.MaxOpenConns = v.GetInt("database.max_open_conns")
	config.Database.MaxIdleConns = v.GetInt("database.max_idle_conns")
	config.Database.ConnMaxLifetime = v.GetDuration("database.conn_max_lifetime")
	config.Database.AutoMigrate = v.GetBool("database.auto_migrate")

	config.Storage.Enabled = v.GetBool("storage.enabled")
	config.Storage.Type = v.GetString("storage.type")
	config.Storage.BaseDir = v.GetString("storage.base_dir")
	config.Storage.S3Bucket = v.GetString("storage.s3_bucket")
	config.Storage.S3Region = v.GetString("storage.s3_region")
	config.Storage.S3Prefix = v.GetString("storage.s3_prefix")
	config.Storage.S3PresignExpiry = v.GetDuration("storage.s3_presign_expiry")

	config.Server.Host = v.GetString("server.host")
	config.Server.Port = v.GetInt("server.port")
	config.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	config.Server.WriteTimeout = v.GetDuration("server.write_timeout")

	if config.Runner.Binary == "" {
		return nil, fmt.Errorf("runner.binary must not be empty")
	}

	return &config, nil
}
