package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embeddedMigrations embed.FS

// Migrate applies every pending up migration for the open driver.
func (db *DB) Migrate() error {
	switch db.Driver {
	case DriverPostgres:
		driver, err := postgres.WithInstance(stdlib.OpenDBFromPool(db.Pool), &postgres.Config{})
		if err != nil {
			return fmt.Errorf("create migration driver: %w", err)
		}
		// The wrapper handle is private to the driver; the pool stays open.
		defer driver.Close()
		return runMigrations("migrations/postgres", DriverPostgres, driver)
	case DriverSQLite:
		driver, err := sqlite.WithInstance(db.SQL, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("create migration driver: %w", err)
		}
		return runMigrations("migrations/sqlite", DriverSQLite, driver)
	}
	return fmt.Errorf("unsupported database driver %q", db.Driver)
}

// MigrateSQLite is the entry point for callers holding a bare handle, such
// as tests.
func MigrateSQLite(sqlDB *sql.DB) error {
	return (&DB{Driver: DriverSQLite, SQL: sqlDB}).Migrate()
}

func runMigrations(dir string, name string, driver database.Driver) error {
	sub, err := fs.Sub(embeddedMigrations, dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, name, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Closing the migrator would close the sqlite handle the store shares.

	version, dirty, _ := migrator.Version()
	slog.Info("database schema ensured", "driver", name, "version", version, "dirty", dirty)
	return nil
}
