package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/lychee-technology/rhizo"
	"go.uber.org/zap"
)

// DuckDBSink writes each model type into its own table, one column per meta
// model attribute plus a JSON column for the remaining visible fields.
type DuckDBSink struct {
	db        *sql.DB
	baseTable string
	batchSize int

	mu      sync.Mutex
	created map[string]bool
}

var _ rhizo.RecordSink = (*DuckDBSink)(nil)

func NewDuckDBSink(db *sql.DB, baseTable string, batchSize int) *DuckDBSink {
	return &DuckDBSink{
		db:        db,
		baseTable: baseTable,
		batchSize: batchSize,
		created:   make(map[string]bool),
	}
}

func (s *DuckDBSink) Write(ctx context.Context, ds *rhizo.Dataset) error {
	if ds == nil || ds.Len() == 0 {
		return nil
	}
	if err := checkRecordIDs(ds); err != nil {
		return err
	}
	table := tableNameFor(s.baseTable, ds.ModelType)
	columns := sinkColumns(ds.MetaModel)

	if err := s.ensureTable(ctx, table, columns, ds.MetaModel); err != nil {
		return err
	}

	insert := buildDuckDBInsert(table, columns)
	for _, chunk := range ds.Chunk(s.batchSize) {
		if err := s.insertChunk(ctx, insert, columns, chunk); err != nil {
			return err
		}
	}
	zap.S().Infow("duckdb sink wrote dataset", "table", table, "records", ds.Len())
	return nil
}

func (s *DuckDBSink) ensureTable(ctx context.Context, table string, columns []string, mm rhizo.MetaModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[table] {
		return nil
	}
	ddl := buildDuckDBCreateTable(table, columns, mm)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkUnavailable, "failed to create duckdb table").
			WithField(table).WithCause(err)
	}
	s.created[table] = true
	return nil
}

func (s *DuckDBSink) insertChunk(ctx context.Context, insert string, columns []string, ds *rhizo.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkUnavailable, "failed to begin duckdb transaction").WithCause(err)
	}
	defer tx.Rollback()

	for _, rec := range ds.Records {
		args, err := duckDBArgs(rec, ds.ModelType, columns, ds.MetaModel)
		if err != nil {
			return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "failed to convert record").
				WithModel(ds.ModelType).WithField(recordID(rec)).WithCause(err)
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "failed to insert record").
				WithModel(ds.ModelType).WithField(recordID(rec)).WithCause(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, "failed to commit duckdb transaction").WithCause(err)
	}
	return nil
}

func (s *DuckDBSink) Close() error {
	return s.db.Close()
}

func buildDuckDBCreateTable(table string, columns []string, mm rhizo.MetaModel) string {
	defs := make([]string, 0, len(columns)+3)
	defs = append(defs,
		quoteIdent(columnID)+" VARCHAR PRIMARY KEY",
		quoteIdent(columnModelType)+" VARCHAR")
	for _, c := range columns {
		defs = append(defs, quoteIdent(c)+" "+MapKindToDuckDBType(mm[c].Kind()))
	}
	defs = append(defs, quoteIdent(columnExtra)+" VARCHAR")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func buildDuckDBInsert(table string, columns []string) string {
	names := make([]string, 0, len(columns)+3)
	names = append(names, quoteIdent(columnID), quoteIdent(columnModelType))
	for _, c := range columns {
		names = append(names, quoteIdent(c))
	}
	names = append(names, quoteIdent(columnExtra))
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(names, ", "), placeholders)
}

func duckDBArgs(rec rhizo.NativeRecord, modelType string, columns []string, mm rhizo.MetaModel) ([]any, error) {
	values, extra := splitRecord(rec, columns)
	args := make([]any, 0, len(columns)+3)
	args = append(args, recordID(rec), modelType)
	for _, c := range columns {
		v, err := ToDuckDBParam(values[c], mm[c].Kind())
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c, err)
		}
		args = append(args, v)
	}
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("extra fields: %w", err)
	}
	return append(args, string(extraJSON)), nil
}
