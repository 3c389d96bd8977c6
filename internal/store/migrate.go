package store

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/nexuscore/nexus/internal/apperr"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies every pending up migration using the real
// golang-migrate/migrate/v4 library (source/iofs over the embedded SQL
// files, database/postgres as the target driver) rather than a hand-rolled
// //go:embed-and-exec loop.
func runMigrations(db *sqlx.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return apperr.Wrap(apperr.KindDependency, err, "opening embedded migration source")
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return apperr.Wrap(apperr.KindDependency, err, "creating postgres migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return apperr.Wrap(apperr.KindDependency, err, "constructing migrate instance")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperr.Wrap(apperr.KindDependency, err, "applying migrations")
	}
	return nil
}
