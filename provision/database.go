package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// sqlStateDuplicateDatabase is raised by CREATE DATABASE when another client
// created the database first.
const sqlStateDuplicateDatabase = "42P04"

// DatabaseAction ensures a PostgreSQL database exists. DSN must point at a
// database that already exists, usually "postgres".
type DatabaseAction struct {
	DSN  string
	Name string
}

func (a *DatabaseAction) connect(ctx context.Context) (*pgx.Conn, error) {
	cfg, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	return pgx.ConnectConfig(ctx, cfg)
}

func (a *DatabaseAction) exists(ctx context.Context) (bool, error) {
	conn, err := a.connect(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", a.Name).Scan(&exists)
	return exists, err
}

func (a *DatabaseAction) Applied(ctx context.Context) (bool, error) {
	return a.exists(ctx)
}

func (a *DatabaseAction) Apply(ctx context.Context) error {
	conn, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	_, err = conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{a.Name}.Sanitize())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateDuplicateDatabase {
		return nil
	}
	return err
}

func (a *DatabaseAction) Verify(ctx context.Context) error {
	ok, err := a.exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return &VerificationError{Mismatch: fmt.Sprintf("database %q does not exist after create", a.Name)}
	}
	return nil
}
