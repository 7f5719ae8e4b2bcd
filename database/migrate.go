package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrationFiles embed.FS

// newMigrate opens a connection dedicated to migrations. The mysql driver
// pins one connection for its advisory lock, so sharing the application pool
// would starve it. Callers must Close the returned Migrate, which also closes
// that connection.
func newMigrate(cfg Config) (*migrate.Migrate, error) {
	var (
		sqlDriver string
		dir       string
		name      string
	)
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite, "":
		sqlDriver, dir, name = "sqlite3", "migrations/sqlite", DriverSQLite
	case DriverMySQL:
		sqlDriver, dir, name = "mysql", "migrations/mysql", DriverMySQL
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := sql.Open(sqlDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	var instance migratedb.Driver
	if name == DriverMySQL {
		instance, err = mysql.WithInstance(db, &mysql.Config{})
	} else {
		instance, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, dir)
	if err != nil {
		instance.Close()
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, name, instance)
	if err != nil {
		source.Close()
		instance.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate, err error) error {
	srcErr, dbErr := m.Close()
	if err != nil {
		return err
	}
	if srcErr != nil {
		return fmt.Errorf("failed to close migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close migration connection: %w", dbErr)
	}
	return nil
}

// RunMigrations applies all pending migrations to the database cfg points at.
func RunMigrations(cfg Config) error {
	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return closeMigrate(m, fmt.Errorf("failed to apply migrations: %w", err))
	}
	return closeMigrate(m, nil)
}

// RollbackMigration rolls back the most recent migration.
func RollbackMigration(cfg Config) error {
	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	if err := m.Steps(-1); err != nil {
		return closeMigrate(m, fmt.Errorf("failed to rollback migration: %w", err))
	}
	return closeMigrate(m, nil)
}

// Version reports the current schema version and whether it is dirty.
// A database without migrations reports version 0.
func Version(cfg Config) (uint, bool, error) {
	m, err := newMigrate(cfg)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, closeMigrate(m, nil)
	}
	if err != nil {
		return 0, false, closeMigrate(m, fmt.Errorf("failed to read schema version: %w", err))
	}
	return version, dirty, closeMigrate(m, nil)
}
