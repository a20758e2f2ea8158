package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/rhizo"
	"github.com/lychee-technology/rhizo/internal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	newConverter func() rhizo.Converter
}

// Option customizes NewMappingRegistry.
type Option func(*options)

// WithConverter makes generated mappings build records with converters from
// newConverter instead of the default rhizo.RecordBuilder. The converter
// must provide converters for any and []any.
func WithConverter(newConverter func() rhizo.Converter) Option {
	return func(o *options) {
		o.newConverter = newConverter
	}
}

// NewMappingRegistry creates the registry that generates model mappings.
// This is the primary way for external projects to obtain mappings.
//
// Usage:
//
//	import (
//	    "github.com/lychee-technology/rhizo"
//	    "github.com/lychee-technology/rhizo/factory"
//	)
//
//	config := rhizo.DefaultConfig()
//	registry, err := factory.NewMappingRegistry(config)
//	if err != nil {
//	    // handle error
//	}
//	mapping, err := rhizo.MappingOf[*Person](registry)
func NewMappingRegistry(config *rhizo.Config, opts ...Option) (rhizo.MappingRegistry, error) {
	if config == nil {
		config = rhizo.DefaultConfig()
	}
	o := options{newConverter: rhizo.NewRecordBuilder}
	for _, opt := range opts {
		opt(&o)
	}

	caps, err := internal.NewBridgeCapabilities(o.newConverter)
	if err != nil {
		return nil, err
	}
	return internal.NewMappingCache(caps, internal.MappingOptions{
		CacheEnabled:       config.Mapping.CacheEnabled,
		GenerateMissingIDs: config.Mapping.GenerateMissingIDs,
	}), nil
}

// NewJSONObjectBridge returns a bridge for models that already are
// map[string]any objects.
func NewJSONObjectBridge(config *rhizo.Config) rhizo.ModelBridge {
	return internal.NewJSONObjectBridge(generateIDs(config))
}

// NewJSONStringBridge returns a bridge for models given as JSON object text.
func NewJSONStringBridge(config *rhizo.Config) rhizo.ModelBridge {
	return internal.NewJSONStringBridge(generateIDs(config))
}

func generateIDs(config *rhizo.Config) bool {
	if config == nil {
		return rhizo.DefaultConfig().Mapping.GenerateMissingIDs
	}
	return config.Mapping.GenerateMissingIDs
}

// NewRecordSink opens the sink selected by config.Export.Sink.
func NewRecordSink(ctx context.Context, config *rhizo.Config) (rhizo.RecordSink, error) {
	if config == nil {
		config = rhizo.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	batch := config.Export.BatchSize

	switch config.Export.Sink {
	case rhizo.SinkNone, "":
		return rhizo.NopSink{}, nil
	case rhizo.SinkDuckDB:
		db, err := internal.OpenDuckDB(ctx, config.DuckDB)
		if err != nil {
			return nil, err
		}
		return internal.NewDuckDBSink(db, config.DuckDB.Table, batch), nil
	case rhizo.SinkPostgres:
		pool, err := internal.OpenPostgresPool(ctx, config.Postgres)
		if err != nil {
			return nil, err
		}
		return internal.NewPostgresSink(pool, config.Postgres.Table, batch), nil
	case rhizo.SinkS3:
		client, err := internal.NewS3Client(ctx, config.S3)
		if err != nil {
			return nil, err
		}
		if err := internal.S3HealthCheck(ctx, client, config.S3.Bucket); err != nil {
			zap.S().Warnw("s3 bucket check failed, uploads may fail", "bucket", config.S3.Bucket, "error", err)
		}
		return internal.NewS3SinkFromClient(client, config.S3.Bucket, config.S3.Prefix, batch), nil
	default:
		return nil, fmt.Errorf("unknown sink %q", config.Export.Sink)
	}
}

// Exporter validates datasets when configured and writes them to a sink.
type Exporter interface {
	Export(ctx context.Context, ds *rhizo.Dataset) error
	Close() error
}

// NewExporter opens the configured sink and wraps it in an Exporter. Sink
// writes are guarded by a circuit breaker unless export.failureThreshold
// is zero.
func NewExporter(ctx context.Context, config *rhizo.Config) (Exporter, error) {
	if config == nil {
		config = rhizo.DefaultConfig()
	}
	sink, err := NewRecordSink(ctx, config)
	if err != nil {
		return nil, err
	}
	return newExporter(sink, config), nil
}

func newExporter(sink rhizo.RecordSink, config *rhizo.Config) *internal.Exporter {
	breaker := internal.NewCircuitBreaker(config.Export.FailureThreshold,
		time.Duration(config.Export.FailureWindowSeconds)*time.Second,
		time.Duration(config.Export.OpenSeconds)*time.Second)
	return internal.NewExporter(sink, config.Validation.Enabled).WithCircuitBreaker(breaker)
}

// JSONSchema describes the records of ds as a JSON Schema.
func JSONSchema(ds *rhizo.Dataset) *jsonschema.Schema {
	return internal.MetaModelToJSONSchema(ds.ModelType, ds.MetaModel)
}

// ValidateDataset checks every record of ds against the JSON Schema of its
// meta model.
func ValidateDataset(ds *rhizo.Dataset) error {
	return internal.ValidateDataset(ds)
}

// NewLogger builds a zap logger from the logging settings. The console
// format uses the development encoder.
func NewLogger(config rhizo.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}
	var zcfg zap.Config
	if config.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
