package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hairizuan-noorazman/e2erun/database"
	"github.com/hairizuan-noorazman/e2erun/descriptor"
	"github.com/hairizuan-noorazman/e2erun/logger"
	"github.com/hairizuan-noorazman/e2erun/storage"
	"github.com/hairizuan-noorazman/e2erun/testrun"
	"gorm.io/gorm"
)

// app bundles the collaborators shared by the commands that touch run history.
type app struct {
	cfg       *Config
	log       logger.Logger
	db        *gorm.DB
	runs      testrun.Store
	artifacts testrun.ArtifactStore
	blobs     storage.BlobStorage
}

func newLogger(cfg *Config) logger.Logger {
	return logger.NewLogrusLoggerWithOutput(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

// loadDescriptor reads the descriptor named by --descriptor and logs its
// warnings.
func loadDescriptor(ctx context.Context, log logger.Logger) (*descriptor.Descriptor, error) {
	d, err := descriptor.LoadFile(descriptorFile)
	if err != nil {
		return nil, err
	}
	for _, warning := range d.Warnings() {
		log.Warn(ctx, warning, map[string]interface{}{
			"descriptor_path": descriptorFile,
		})
	}
	return d, nil
}

func databaseConfig(cfg *Config) database.Config {
	return database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogQueries:      strings.EqualFold(cfg.Log.Level, "debug"),
	}
}

// ensureDatabaseDir creates the parent directory of a sqlite database file.
func ensureDatabaseDir(cfg *Config) error {
	if !strings.EqualFold(cfg.Database.Driver, database.DriverSQLite) && cfg.Database.Driver != "" {
		return nil
	}
	dsn := cfg.Database.DSN
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func openDatabase(cfg *Config) (*gorm.DB, error) {
	if err := ensureDatabaseDir(cfg); err != nil {
		return nil, err
	}
	db, err := database.Connect(databaseConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newApp loads the tool config, opens the history database and artifact
// storage. Callers must call close.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := newLogger(cfg)

	if cfg.Database.AutoMigrate {
		if err := ensureDatabaseDir(cfg); err != nil {
			return nil, err
		}
		if err := database.RunMigrations(databaseConfig(cfg)); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		runs:      testrun.NewSQLStore(db, log),
		artifacts: testrun.NewSQLArtifactStore(db, log),
	}

	if cfg.Storage.Enabled {
		blobs, err := storage.New(ctx, storage.Config{
			Type:            cfg.Storage.Type,
			BaseDir:         cfg.Storage.BaseDir,
			S3Bucket:        cfg.Storage.S3Bucket,
			S3Region:        cfg.Storage.S3Region,
			S3Prefix:        cfg.Storage.S3Prefix,
			S3PresignExpiry: cfg.Storage.S3PresignExpiry,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.blobs = blobs
	}

	log.Debug(ctx, "run history opened", map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"storage": cfg.Storage.Type,
	})
	return a, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
