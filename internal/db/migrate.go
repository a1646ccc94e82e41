package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrateUp applies all pending migrations found under dir.
func MigrateUp(dsn, dir string) error {
	return runMigrations(dsn, dir, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back the given number of migration steps.
func MigrateDown(dsn, dir string, steps int) error {
	if steps < 1 {
		return errors.New("steps must be positive")
	}
	return runMigrations(dsn, dir, func(m *migrate.Migrate) error { return m.Steps(-steps) })
}

func runMigrations(dsn, dir string, apply func(*migrate.Migrate) error) error {
	migrator, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := apply(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate failed: %w", err)
	}
	return nil
}
