package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

// MigrationsDir is the golang-migrate source URL. Tests outside the module
// root point it at a relative path.
var MigrationsDir = "file://migrations"

// ErrDirtySchema is returned when an earlier migration failed halfway and the
// schema needs manual repair before the service can start.
var ErrDirtySchema = errors.New("database schema is dirty")

func withMigrator(databaseURL string, fn func(m *migrate.Migrate) error) error {
	m, err := migrate.New(MigrationsDir, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()
	return fn(m)
}

func RunMigrations(databaseURL string) error {
	return withMigrator(databaseURL, func(m *migrate.Migrate) error {
		if _, dirty, err := m.Version(); err == nil && dirty {
			return ErrDirtySchema
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}

		version, _, _ := m.Version()
		log.Info().Uint("schema_version", version).Msg("payout schema up to date")
		return nil
	})
}

func RollbackMigrations(databaseURL string) error {
	return withMigrator(databaseURL, func(m *migrate.Migrate) error {
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("rollback migrations: %w", err)
		}
		log.Info().Msg("payout schema rolled back")
		return nil
	})
}

// SchemaVersion reports the applied migration version. A database with no
// migrations applied reports version 0.
func SchemaVersion(databaseURL string) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := withMigrator(databaseURL, func(m *migrate.Migrate) error {
		var err error
		version, dirty, err = m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			version, dirty, err = 0, false, nil
		}
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}
