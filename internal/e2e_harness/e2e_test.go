package e2e_harness

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lychee-technology/rhizo"
	"github.com/lychee-technology/rhizo/factory"
	"github.com/lychee-technology/rhizo/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type city struct {
	name       string
	population int64
	founded    time.Time
	coastal    bool
	districts  []string
}

func (c *city) GetName() string     { return c.name }
func (c *city) Population() int64   { return c.population }
func (c *city) Founded() time.Time  { return c.founded }
func (c *city) IsCoastal() bool     { return c.coastal }
func (c *city) Districts() []string { return c.districts }

func (c *city) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{
		"GetName":    {ModelID: true},
		"Population": {},
		"Founded":    {},
		"IsCoastal":  {Label: "On the coast"},
		"Districts":  {},
	}
}

func cityDataset(t *testing.T) *rhizo.Dataset {
	t.Helper()
	registry, err := factory.NewMappingRegistry(nil)
	require.NoError(t, err)
	mapping, err := rhizo.MappingOf[*city](registry)
	require.NoError(t, err)

	cities := []*city{
		{name: "Lisbon", population: 545000, founded: time.Date(1179, 1, 1, 0, 0, 0, 0, time.UTC), coastal: true, districts: []string{"Alfama", "Belem"}},
		{name: "Madrid", population: 3300000, founded: time.Date(865, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "Porto", population: 232000, coastal: true},
	}
	ds, err := rhizo.BuildDataset(mapping, cities)
	require.NoError(t, err)
	require.NoError(t, factory.ValidateDataset(ds))
	return ds
}

func TestE2EPostgresSink(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E harness in -short mode")
	}
	ctx := context.Background()
	h := &TestHarness{}

	_, err := h.StartPostgres(ctx)
	require.NoError(t, err)
	defer h.StopPostgres(ctx)

	cfg := h.Config(rhizo.SinkPostgres, 2)

	exporter, err := factory.NewExporter(ctx, cfg)
	require.NoError(t, err)
	defer exporter.Close()

	ds := cityDataset(t)
	require.NoError(t, exporter.Export(ctx, ds))
	// exporting again upserts the same rows
	require.NoError(t, exporter.Export(ctx, ds))

	n, err := CountRows(ctx, h.PGDB, `SELECT COUNT(*) FROM rhizo_records WHERE model_type = $1`, ds.ModelType)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var name string
	require.NoError(t, h.PGDB.QueryRowContext(ctx,
		`SELECT attributes->>'name' FROM rhizo_records WHERE model_type = $1 AND id = $2`, ds.ModelType, "Lisbon").Scan(&name))
	assert.Equal(t, "Lisbon", name)

	n, err = CountRows(ctx, h.PGDB, `SELECT COUNT(*) FROM rhizo_records_meta WHERE model_type = $1`, ds.ModelType)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestE2ES3Sink(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E harness in -short mode")
	}
	ctx := context.Background()
	h := &TestHarness{}

	_, err := h.StartS3(ctx)
	require.NoError(t, err)
	defer h.StopS3(ctx)

	const bucket = "rhizo-datasets"
	client, err := h.NewS3Client(ctx, bucket)
	require.NoError(t, err)
	require.NoError(t, EnsureBucket(ctx, client, bucket))
	require.NoError(t, internal.S3HealthCheck(ctx, client, bucket))

	cfg := h.Config(rhizo.SinkS3, 2)
	cfg.S3 = h.S3Config(bucket, "e2e")

	exporter, err := factory.NewExporter(ctx, cfg)
	require.NoError(t, err)
	defer exporter.Close()

	ds := cityDataset(t)
	require.NoError(t, exporter.Export(ctx, ds))

	keys, err := ListObjectKeys(ctx, client, bucket, "e2e/city/")
	require.NoError(t, err)
	require.Len(t, keys, 2)

	total := 0
	for _, key := range keys {
		assert.True(t, strings.HasSuffix(key, ".json"), key)
		got, err := DownloadDataset(ctx, client, bucket, key)
		require.NoError(t, err)
		assert.Equal(t, ds.ModelType, got.ModelType)
		assert.Equal(t, rhizo.KindBoolean, got.MetaModel["coastal"].Kind())
		total += got.Len()
	}
	assert.Equal(t, 3, total)
}

func TestE2EDuckDBSink(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E harness in -short mode")
	}
	ctx := context.Background()
	h := &TestHarness{}

	dbPath := t.TempDir() + "/rhizo.duckdb"
	require.NoError(t, h.StartDuckDB(ctx, rhizo.DuckDBConfig{DBPath: dbPath, Table: "rhizo_records"}))
	defer h.StopDuckDB()

	sink := internal.NewDuckDBSink(h.Duck, "rhizo_records", 2)
	exporter := internal.NewExporter(sink, true)

	ds := cityDataset(t)
	require.NoError(t, exporter.Export(ctx, ds))

	n, err := CountRows(ctx, h.Duck, `SELECT COUNT(*) FROM "rhizo_records_city" WHERE "coastal"`)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var districts string
	require.NoError(t, h.Duck.QueryRowContext(ctx,
		`SELECT "districts" FROM "rhizo_records_city" WHERE "id" = ?`, "Lisbon").Scan(&districts))
	assert.JSONEq(t, `["Alfama","Belem"]`, districts)
}
