package internal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/lychee-technology/rhizo"
	"go.uber.org/zap"
)

// ValidateDuckDBConfig performs basic sanity checks on DuckDB sink settings.
func ValidateDuckDBConfig(cfg rhizo.DuckDBConfig) error {
	if cfg.Table == "" {
		return fmt.Errorf("duckdb table must not be empty")
	}
	// DBPath may be empty (in-memory), so no strict check here
	return nil
}

// OpenDuckDB opens a DuckDB database for the sink. An empty DBPath opens an
// in-memory database.
func OpenDuckDB(ctx context.Context, cfg rhizo.DuckDBConfig) (*sql.DB, error) {
	if err := ValidateDuckDBConfig(cfg); err != nil {
		return nil, err
	}
	dsn := cfg.DBPath
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// DuckDB typically uses a single connection
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	zap.S().Infow("duckdb opened", "path", dsn)
	return db, nil
}
