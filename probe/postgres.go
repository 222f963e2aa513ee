package probe

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// sqlStateCannotConnectNow is returned while the server is starting up or
// recovering. It means "slow", not "broken".
const sqlStateCannotConnectNow = "57P03"

// PostgresChecker is ready when a connection with the target DSN can be
// opened and pinged.
type PostgresChecker struct{}

// NewPostgresChecker returns a PostgresChecker.
func NewPostgresChecker() *PostgresChecker {
	return &PostgresChecker{}
}

// Check opens one connection, pings and closes it.
func (c *PostgresChecker) Check(ctx context.Context, target string) error {
	cfg, err := pgx.ParseConfig(target)
	if err != nil {
		return Unhealthy("invalid dsn: %v", err)
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return classifyPgError(err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if err := conn.Ping(ctx); err != nil {
		return classifyPgError(err)
	}
	return nil
}

// classifyPgError turns server-side rejections (bad credentials, missing
// database) into unhealthy answers. Network errors and startup rejections
// stay plain so they count as "not reachable yet".
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code != sqlStateCannotConnectNow {
		return Unhealthy("postgres %s: %s", pgErr.Code, pgErr.Message)
	}
	return err
}
