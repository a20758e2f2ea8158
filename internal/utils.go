package internal

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/lychee-technology/rhizo"
)

// Reserved sink columns.
const (
	columnID        = "id"
	columnModelType = "model_type"
	columnExtra     = "extra"
)

// sanitizeIdentifier quotes a possibly schema-qualified identifier for Postgres.
func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.Trim(part, " \"")
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		clean = []string{name}
	}
	return pgx.Identifier(clean).Sanitize()
}

// quoteIdent quotes a single identifier.
func quoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

// modelTypeSlug turns a Go type name such as "*sample.BookReview" into
// "book_review".
func modelTypeSlug(modelType string) string {
	name := strings.TrimLeft(modelType, "*[]")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return toSnakeCase(name)
}

// tableNameFor returns the per-model table name derived from base.
func tableNameFor(base, modelType string) string {
	slug := modelTypeSlug(modelType)
	if slug == "" {
		return base
	}
	return base + "_" + slug
}

// toSnakeCase converts PascalCase or camelCase to snake_case, keeping
// acronyms together (HTTPServer -> http_server).
func toSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			r = '_'
		}
		if i > 0 && unicode.IsUpper(r) {
			prevUpper := unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !prevUpper || nextLower {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// recordID renders the record id as text, or "" when it has none.
func recordID(rec rhizo.NativeRecord) string {
	id, ok := rec.ID()
	if !ok {
		return ""
	}
	if s, ok := id.(string); ok {
		return s
	}
	return fmt.Sprint(id)
}

// checkRecordIDs fails on the first record without an id. Sinks keyed by id
// would otherwise store every id-less record under the same empty key.
func checkRecordIDs(ds *rhizo.Dataset) error {
	for i, rec := range ds.Records {
		if recordID(rec) == "" {
			return rhizo.NewStorageError(rhizo.ErrCodeSinkWriteFailed, fmt.Sprintf("record %d has no id", i)).
				WithModel(ds.ModelType).WithDetail("record", i)
		}
	}
	return nil
}

// splitRecord separates values of meta model columns from the remaining
// visible fields, which sinks keep as JSON.
func splitRecord(rec rhizo.NativeRecord, columns []string) (map[string]any, map[string]any) {
	fields := rec.Fields()
	delete(fields, columnID)
	values := make(map[string]any, len(columns))
	for _, c := range columns {
		values[c] = fields[c]
		delete(fields, c)
	}
	return values, fields
}

var reservedColumns = NewSet(columnID, columnModelType, columnExtra)

// sinkColumns returns the meta model attribute names usable as columns.
func sinkColumns(mm rhizo.MetaModel) []string {
	names := mm.Names()
	out := names[:0]
	for _, n := range names {
		if reservedColumns.Contains(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}
