package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
)

// MigrationsTable records the applied migration version.
const MigrationsTable = "schema_migrations"

// MigrateAction brings a PostgreSQL database to the newest versioned
// migration in Dir. Files follow the VERSION_name.up.sql pattern.
type MigrateAction struct {
	DSN string
	Dir string
}

func (a *MigrateAction) source() (source.Driver, error) {
	src, err := iofs.New(os.DirFS(a.Dir), ".")
	if err != nil {
		return nil, fmt.Errorf("open migrations %s: %w", a.Dir, err)
	}
	return src, nil
}

// latest returns the highest version in Dir. Zero means Dir holds no
// migrations.
func (a *MigrateAction) latest() (uint, error) {
	src, err := a.source()
	if err != nil {
		return 0, err
	}
	defer src.Close() //nolint:errcheck // read-only source

	v, err := src.First()
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, err
		}
		v = next
	}
}

// open connects to the database. The caller closes db; m must not be
// closed as it would close the connection a second time.
func (a *MigrateAction) open(ctx context.Context) (*migrate.Migrate, *sql.DB, error) {
	db, err := sql.Open("pgx", a.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	m, err := a.migrator(ctx, db)
	if err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, nil, err
	}
	return m, db, nil
}

func (a *MigrateAction) migrator(ctx context.Context, db *sql.DB) (*migrate.Migrate, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// version returns the database version. A database that never ran a
// migration is at version zero.
func (a *MigrateAction) version(ctx context.Context) (uint, bool, error) {
	m, db, err := a.open(ctx)
	if err != nil {
		return 0, false, err
	}
	defer db.Close() //nolint:errcheck // read-only use

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (a *MigrateAction) Applied(ctx context.Context) (bool, error) {
	want, err := a.latest()
	if err != nil {
		return false, err
	}
	if want == 0 {
		return true, nil
	}
	v, dirty, err := a.version(ctx)
	if err != nil {
		return false, err
	}
	return v == want && !dirty, nil
}

// Apply runs the pending up migrations. Concurrent runners are serialized
// by the advisory lock the postgres driver takes.
func (a *MigrateAction) Apply(ctx context.Context) error {
	m, db, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // nothing left to flush
	defer stopOnCancel(ctx, m)()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (a *MigrateAction) Verify(ctx context.Context) error {
	want, err := a.latest()
	if err != nil {
		return err
	}
	v, dirty, err := a.version(ctx)
	if err != nil {
		return err
	}
	switch {
	case dirty:
		return &VerificationError{Mismatch: fmt.Sprintf("database is dirty at version %d", v)}
	case v != want:
		return &VerificationError{Mismatch: fmt.Sprintf("database at version %d, want %d", v, want)}
	}
	return nil
}

// stopOnCancel asks m to stop after the current migration when ctx ends.
// The returned func releases the watch.
func stopOnCancel(ctx context.Context, m *migrate.Migrate) func() bool {
	return context.AfterFunc(ctx, func() {
		select {
		case m.GracefulStop <- true:
		default:
		}
	})
}
