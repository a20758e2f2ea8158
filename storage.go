package rhizo

import (
	"context"
)

// RecordSink persists datasets produced by a mapping
type RecordSink interface {
	// Write stores every record of the dataset together with its meta model.
	// Writing the same record id twice replaces the earlier copy.
	Write(ctx context.Context, dataset *Dataset) error
	Close() error
}

// NopSink discards datasets
type NopSink struct{}

func (NopSink) Write(context.Context, *Dataset) error { return nil }

func (NopSink) Close() error { return nil }
