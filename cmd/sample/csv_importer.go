package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// ImportError represents an error that occurred while importing a single CSV row.
type ImportError struct {
	RowNumber int    // CSV row number (1-based, including header)
	CSVColumn string // CSV column name that caused the error
	Field     string // Target model field
	RawValue  string // Original CSV value
	Reason    string // Error description
}

func (e *ImportError) Error() string {
	if e.CSVColumn == "" {
		return fmt.Sprintf("row %d: %s", e.RowNumber, e.Reason)
	}
	return fmt.Sprintf("row %d, column %q -> field %q: value %q - %s",
		e.RowNumber, e.CSVColumn, e.Field, e.RawValue, e.Reason)
}

// ImportResult contains the results of a CSV import operation.
type ImportResult struct {
	TotalRows    int            // Total number of data rows in CSV (excluding header)
	SuccessCount int            // Number of rows turned into models
	FailedCount  int            // Number of failed rows
	Errors       []*ImportError // Detailed error information for failed rows
	Duration     time.Duration  // Total import duration
}

// Summary returns a human-readable summary of the import result.
func (r *ImportResult) Summary() string {
	return fmt.Sprintf("Import completed: %d/%d rows successful, %d failed, duration: %v",
		r.SuccessCount, r.TotalRows, r.FailedCount, r.Duration)
}

// ImportOptions provides additional configuration for import operations.
type ImportOptions struct {
	// Delimiter is the CSV field delimiter (default: comma)
	Delimiter rune
	// Comment is the character that starts a comment line (default: none)
	Comment rune
	// LazyQuotes allows lazy quotes in CSV parsing
	LazyQuotes bool
}

// DefaultImportOptions returns the default import options.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		Delimiter: ',',
	}
}

// CSVImporter turns CSV rows into models of type T. Rows that fail to map
// are reported in the ImportResult and skipped.
type CSVImporter[T any] struct {
	mapper  CSVRowMapper
	build   func(values map[string]any) T
	options ImportOptions
	logger  *zap.SugaredLogger
}

// NewCSVImporter creates a new CSVImporter. build constructs a model from
// the field values produced by mapper.
func NewCSVImporter[T any](mapper CSVRowMapper, build func(values map[string]any) T) *CSVImporter[T] {
	return &CSVImporter[T]{
		mapper:  mapper,
		build:   build,
		options: DefaultImportOptions(),
		logger:  zap.S().Named("CSVImporter"),
	}
}

// SetLogger sets a custom logger for the importer.
func (i *CSVImporter[T]) SetLogger(logger *zap.SugaredLogger) {
	i.logger = logger
}

// SetOptions replaces the CSV parsing options.
func (i *CSVImporter[T]) SetOptions(opts ImportOptions) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	i.options = opts
}

// ImportFromFile imports CSV data from a file.
func (i *CSVImporter[T]) ImportFromFile(ctx context.Context, filePath string) ([]T, *ImportResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return i.ImportFromReader(ctx, file)
}

// ImportFromReader imports CSV data from an io.Reader.
func (i *CSVImporter[T]) ImportFromReader(ctx context.Context, reader io.Reader) ([]T, *ImportResult, error) {
	startTime := time.Now()

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.Comma = i.options.Delimiter
	csvReader.Comment = i.options.Comment
	csvReader.LazyQuotes = i.options.LazyQuotes
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	result := &ImportResult{
		Errors: make([]*ImportError, 0),
	}
	models := make([]T, 0)
	rowNum := 1 // Header is row 1

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		rowNum++
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			i.logger.Errorw("CSV parsing error", "row", rowNum, "error", err)
			result.FailedCount++
			result.Errors = append(result.Errors, &ImportError{
				RowNumber: rowNum,
				Reason:    fmt.Sprintf("CSV parsing error: %v", err),
			})
			continue
		}

		result.TotalRows++

		csvRecord := make(map[string]string, len(header))
		for idx, col := range header {
			if idx < len(record) {
				csvRecord[col] = record[idx]
			}
		}

		values, err := i.mapper.MapRecord(csvRecord)
		if err != nil {
			importErr := &ImportError{RowNumber: rowNum, Reason: err.Error()}
			var mappingErr *MappingError
			if errors.As(err, &mappingErr) {
				importErr.CSVColumn = mappingErr.CSVColumn
				importErr.Field = mappingErr.Field
				importErr.RawValue = mappingErr.RawValue
				importErr.Reason = mappingErr.Reason
			}
			i.logger.Errorw("row mapping failed", "model", i.mapper.ModelName(), "error", importErr.Error())
			result.Errors = append(result.Errors, importErr)
			result.FailedCount++
			continue
		}

		models = append(models, i.build(values))
		result.SuccessCount++
	}

	result.Duration = time.Since(startTime)
	i.logger.Infow(result.Summary(), "model", i.mapper.ModelName())

	return models, result, nil
}
