package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/rhizo"
)

// ValidatePostgresConfig performs basic sanity checks on Postgres sink settings.
func ValidatePostgresConfig(cfg rhizo.PostgresConfig) error {
	if cfg.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if cfg.Table == "" {
		return fmt.Errorf("postgres.table is required")
	}
	if cfg.UseIAMAuth && cfg.Region == "" {
		return fmt.Errorf("postgres.region is required with IAM auth")
	}
	return nil
}

type pingExecer interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresHealthCheck pings the pool and runs a trivial query.
// timeout may be 0 to use a sensible default (5s).
func PostgresHealthCheck(ctx context.Context, pool pingExecer, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkUnavailable, "postgres ping failed").WithCause(err)
	}
	// Best-effort simple query to validate basic SQL execution.
	if _, err := pool.Exec(ctx, "SELECT 1"); err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkUnavailable, "postgres simple query failed").WithCause(err)
	}
	return nil
}
