package factory

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lychee-technology/rhizo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rating struct{}

func (rating) MinRange() float64 { return 1 }
func (rating) MaxRange() float64 { return 5 }
func (rating) Stepping() float64 { return 1 }
func (rating) Steps() float64    { return 0 }

type review struct {
	id     string
	title  string
	stars  float64
	posted time.Time
}

func (r *review) ID() string        { return r.id }
func (r *review) GetTitle() string  { return r.title }
func (r *review) Stars() float64    { return r.stars }
func (r *review) Posted() time.Time { return r.posted }
func (r *review) IsFeatured() bool  { return r.stars >= 4.5 }

func (r *review) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{
		"ID":         {ModelID: true},
		"GetTitle":   {},
		"Stars":      {Descriptor: func() rhizo.AttributeDescriptor { return rating{} }},
		"Posted":     {Label: "Posted on"},
		"IsFeatured": {},
	}
}

func reviews() []*review {
	posted := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []*review{
		{id: "r-1", title: "Great", stars: 5, posted: posted},
		{id: "r-2", title: "Fine", stars: 3, posted: posted.Add(time.Hour)},
	}
}

func TestNewMappingRegistry_EndToEnd(t *testing.T) {
	registry, err := NewMappingRegistry(nil)
	require.NoError(t, err)

	mapping, err := rhizo.MappingOf[*review](registry)
	require.NoError(t, err)
	again, err := registry.MappingFor(reflect.TypeFor[*review]())
	require.NoError(t, err)
	assert.Same(t, mapping, again)

	ds, err := rhizo.BuildDataset(mapping, reviews())
	require.NoError(t, err)

	assert.Equal(t, []string{"featured", "posted", "stars", "title"}, ds.MetaModel.Names())
	assert.Equal(t, rhizo.KindDecimal, ds.MetaModel["stars"].Kind())
	assert.Equal(t, "Posted on", ds.MetaModel["posted"].Label())
	assert.Equal(t, "r-1", ds.Records[0][rhizo.RecordIDKey])
	assert.Equal(t, true, ds.Records[0]["featured"])

	require.NoError(t, ValidateDataset(ds))

	schema := JSONSchema(ds)
	require.Contains(t, schema.Properties, "stars")
	assert.Equal(t, 5.0, *schema.Properties["stars"].Maximum)
}

func TestNewMappingRegistry_InvalidConverter(t *testing.T) {
	_, err := NewMappingRegistry(rhizo.DefaultConfig(), WithConverter(func() rhizo.Converter { return nil }))
	require.Error(t, err)
	assert.True(t, rhizo.IsConfigurationError(err))
}

func TestNewMappingRegistry_CacheDisabled(t *testing.T) {
	cfg := rhizo.DefaultConfig()
	cfg.Mapping.CacheEnabled = false
	registry, err := NewMappingRegistry(cfg)
	require.NoError(t, err)

	first, err := rhizo.MappingOf[*review](registry)
	require.NoError(t, err)
	second, err := rhizo.MappingOf[*review](registry)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestJSONBridges(t *testing.T) {
	cfg := rhizo.DefaultConfig()
	cfg.Mapping.GenerateMissingIDs = false

	rec, err := NewJSONStringBridge(cfg).Bridge(`{"title":"x"}`)
	require.NoError(t, err)
	_, ok := rec.ID()
	assert.False(t, ok)

	rec, err = NewJSONObjectBridge(nil).Bridge(map[string]any{"title": "y"})
	require.NoError(t, err)
	_, ok = rec.ID()
	assert.True(t, ok)
}

func TestNewRecordSink(t *testing.T) {
	ctx := context.Background()

	sink, err := NewRecordSink(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, rhizo.NopSink{}, sink)

	cfg := rhizo.DefaultConfig()
	cfg.Export.Sink = "kafka"
	_, err = NewRecordSink(ctx, cfg)
	var cfgErr *rhizo.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "export.sink", cfgErr.Field)

	cfg = rhizo.DefaultConfig()
	cfg.Export.Sink = rhizo.SinkPostgres
	_, err = NewRecordSink(ctx, cfg)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "postgres.dsn", cfgErr.Field)
}

type failingSink struct {
	writes int
}

func (s *failingSink) Write(context.Context, *rhizo.Dataset) error {
	s.writes++
	return errors.New("unreachable")
}

func (s *failingSink) Close() error { return nil }

func TestNewExporter_CircuitBreakerFromConfig(t *testing.T) {
	registry, err := NewMappingRegistry(nil)
	require.NoError(t, err)
	mapping, err := rhizo.MappingOf[*review](registry)
	require.NoError(t, err)
	ds, err := rhizo.BuildDataset(mapping, reviews())
	require.NoError(t, err)

	cfg := rhizo.DefaultConfig()
	cfg.Export.FailureThreshold = 2
	sink := &failingSink{}
	exporter := newExporter(sink, cfg)
	ctx := context.Background()

	for range 3 {
		assert.Error(t, exporter.Export(ctx, ds))
	}
	assert.Equal(t, 2, sink.writes, "third export is short-circuited")

	cfg.Export.FailureThreshold = 0
	sink = &failingSink{}
	exporter = newExporter(sink, cfg)
	for range 3 {
		assert.Error(t, exporter.Export(ctx, ds))
	}
	assert.Equal(t, 3, sink.writes)
}

func TestNewExporter_DefaultsToNopSink(t *testing.T) {
	exporter, err := NewExporter(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, exporter.Close())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(rhizo.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(rhizo.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = NewLogger(rhizo.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
