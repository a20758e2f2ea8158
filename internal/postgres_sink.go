package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/rhizo"
	"go.uber.org/zap"
)

type recordSinkPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Close()
}

// PostgresSink upserts records as JSONB rows keyed by (model_type, id) and
// keeps the latest meta model of each model type in a companion table.
type PostgresSink struct {
	pool      recordSinkPool
	table     string
	metaTable string
	batchSize int
	nowFunc   func() time.Time
	tablesMu  sync.Mutex
	tablesOK  bool
}

var _ rhizo.RecordSink = (*PostgresSink)(nil)

func NewPostgresSink(pool recordSinkPool, table string, batchSize int) *PostgresSink {
	return &PostgresSink{
		pool:      pool,
		table:     table,
		metaTable: table + "_meta",
		batchSize: batchSize,
		nowFunc:   time.Now,
	}
}

func (s *PostgresSink) withClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.nowFunc = now
}

func (s *PostgresSink) nowMillis() int64 {
	return s.nowFunc().UnixMilli()
}

func (s *PostgresSink) createTableStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL,
			model_type TEXT NOT NULL,
			attributes JSONB NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (model_type, id))`, sanitizeIdentifier(s.table)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			model_type TEXT PRIMARY KEY,
			meta_model JSONB NOT NULL,
			updated_at BIGINT NOT NULL)`, sanitizeIdentifier(s.metaTable)),
	}
}

func (s *PostgresSink) upsertRecordStatement() string {
	return fmt.Sprintf(
		`INSERT INTO %s (id, model_type, attributes, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (model_type, id)
			DO UPDATE SET attributes = EXCLUDED.attributes, updated_at = EXCLUDED.updated_at`,
		sanitizeIdentifier(s.table),
	)
}

func (s *PostgresSink) upsertMetaStatement() string {
	return fmt.Sprintf(
		`INSERT INTO %s (model_type, meta_model, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (model_type)
			DO UPDATE SET meta_model = EXCLUDED.meta_model, updated_at = EXCLUDED.updated_at`,
		sanitizeIdentifier(s.metaTable),
	)
}

func (s *PostgresSink) ensureTables(ctx context.Context) error {
	s.tablesMu.Lock()
	defer s.tablesMu.Unlock()
	if s.tablesOK {
		return nil
	}
	for _, ddl := range s.createTableStatements() {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return rhizo.NewStorageError(rhizo.ErrCodeSinkUnavailable, "failed to create postgres tables").
				WithField(s.table).WithCause(err)
		}
	}
	s.tablesOK = true
	return nil
}

func (s *PostgresSink) Write(ctx context.Context, ds *rhizo.Dataset) error {
	if ds == nil || ds.Len() == 0 {
		return nil
	}
	if err := s.ensureTables(ctx); err != nil {
		return err
	}

	metaJSON, err := json.Marshal(ds.MetaModel)
	if err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "failed to encode meta model").
			WithModel(ds.ModelType).WithCause(err)
	}

	for _, chunk := range ds.Chunk(s.batchSize) {
		if err := s.writeChunk(ctx, chunk, string(metaJSON)); err != nil {
			return err
		}
	}
	zap.S().Infow("postgres sink wrote dataset", "table", s.table, "model", ds.ModelType, "records", ds.Len())
	return nil
}

func (s *PostgresSink) writeChunk(ctx context.Context, ds *rhizo.Dataset, metaJSON string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkUnavailable, "failed to begin transaction").WithCause(err)
	}
	defer tx.Rollback(ctx)

	now := s.nowMillis()
	if _, err := tx.Exec(ctx, s.upsertMetaStatement(), ds.ModelType, metaJSON, now); err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "failed to upsert meta model").
			WithModel(ds.ModelType).WithCause(err)
	}

	upsert := s.upsertRecordStatement()
	for _, rec := range ds.Records {
		id := recordID(rec)
		if id == "" {
			return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "record has no id").WithModel(ds.ModelType)
		}
		attrs, err := json.Marshal(rec)
		if err != nil {
			return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "failed to encode record").
				WithModel(ds.ModelType).WithField(id).WithCause(err)
		}
		if _, err := tx.Exec(ctx, upsert, id, ds.ModelType, string(attrs), now); err != nil {
			return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "failed to upsert record").
				WithModel(ds.ModelType).WithField(id).WithCause(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "failed to commit transaction").WithCause(err)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
