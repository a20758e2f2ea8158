package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lychee-technology/rhizo"
	"github.com/lychee-technology/rhizo/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) rhizo.MappingRegistry {
	t.Helper()
	registry, err := factory.NewMappingRegistry(rhizo.DefaultConfig())
	require.NoError(t, err)
	return registry
}

func TestImportDataset_Employees(t *testing.T) {
	ds, result, err := importDataset(context.Background(), newRegistry(t), NewEmployeeMapper(), newEmployee,
		"testdata/employees.csv", DefaultImportOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)

	assert.Equal(t, "*main.Employee", ds.ModelType)
	assert.Equal(t, []string{"active", "age", "department", "hired", "manager", "name", "salary", "tags"}, ds.MetaModel.Names())
	assert.Equal(t, rhizo.KindCategory, ds.MetaModel["department"].Kind())
	assert.Equal(t, departments, ds.MetaModel["department"].Categories())
	assert.Equal(t, rhizo.KindLogarithmRange, ds.MetaModel["salary"].Kind())
	assert.Equal(t, rhizo.KindDate, ds.MetaModel["hired"].Kind())
	assert.Equal(t, "Hire date", ds.MetaModel["hired"].Label())
	assert.Equal(t, "Reports to", ds.MetaModel["manager"].Label())
	linkKey, _ := ds.MetaModel["manager"].Get(rhizo.AttrKeyLinkKey)
	assert.Equal(t, rhizo.RecordIDKey, linkKey)

	require.Equal(t, 2, ds.Len())
	first := ds.Records[0]
	assert.Equal(t, "e-1", first[rhizo.RecordIDKey])
	assert.Equal(t, "mh@example.com", first["email"])
	model, ok := first.Model()
	require.True(t, ok)
	assert.Equal(t, "Margaret Hamilton", model.(*Employee).GetName())

	require.NoError(t, factory.ValidateDataset(ds))
}

func TestImportDataset_Books(t *testing.T) {
	ds, _, err := importDataset(context.Background(), newRegistry(t), NewBookMapper(), newBook,
		"testdata/books.csv", DefaultImportOptions())
	require.NoError(t, err)

	assert.Equal(t, "main.Book", ds.ModelType)
	assert.Equal(t, []string{"authors", "genres", "price", "published", "title"}, ds.MetaModel.Names())
	assert.Equal(t, "Year published", ds.MetaModel["published"].Label())

	dune := ds.Records[0]
	assert.Equal(t, "978-0441013593", dune["isbn"])
	assert.Equal(t, "978-0441013593", dune[rhizo.RecordIDKey])
	assert.Equal(t, 2, dune["genreCount"])
	assert.Equal(t, true, dune["priced"])

	require.NoError(t, factory.ValidateDataset(ds))
}

func TestImportDataset_GeneratesMissingIDs(t *testing.T) {
	ds, _, err := importDataset(context.Background(), newRegistry(t), NewPersonMapper(), newPerson,
		"testdata/people.csv", DefaultImportOptions())
	require.NoError(t, err)

	require.Equal(t, 3, ds.Len())
	id, ok := ds.Records[2].ID()
	require.True(t, ok)
	assert.NotEmpty(t, id)
	assert.NotContains(t, ds.MetaModel, "email")
}

func TestPrintDataset(t *testing.T) {
	ds, _, err := importDataset(context.Background(), newRegistry(t), NewPersonMapper(), newPerson,
		"testdata/people.csv", DefaultImportOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printDataset(&buf, ds, 1))

	var out struct {
		ModelType string                    `json:"modelType"`
		MetaModel map[string]map[string]any `json:"metaModel"`
		Schema    map[string]any            `json:"schema"`
		Records   []map[string]any          `json:"records"`
		Total     int                       `json:"total"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "*main.Person", out.ModelType)
	assert.Equal(t, "RANGE", out.MetaModel["age"]["kind"])
	assert.Equal(t, "object", out.Schema["type"])
	require.Len(t, out.Records, 1)
	assert.Equal(t, "Ada Lovelace", out.Records[0]["name"])
	assert.NotContains(t, out.Records[0], rhizo.ModelRefKey)
	assert.Equal(t, 3, out.Total)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"RHIZO_SINK":        "Postgres",
		"DATABASE_URL":      "postgres://localhost:5432/rhizo",
		"RHIZO_S3_ENDPOINT": "",
		"AWS_REGION":        "eu-west-1",
	}
	config := rhizo.DefaultConfig()
	applyEnv(config, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	assert.Equal(t, rhizo.SinkPostgres, config.Export.Sink)
	assert.Equal(t, "postgres://localhost:5432/rhizo", config.Postgres.DSN)
	assert.Equal(t, "eu-west-1", config.S3.Region)
	assert.Empty(t, config.S3.Endpoint, "empty values do not override")
	assert.Empty(t, config.S3.Bucket)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RHIZO_SINK=duckdb\nRHIZO_DUCKDB_PATH=sample.duckdb\n"), 0o600))
	t.Setenv("RHIZO_SINK", "")
	t.Setenv("RHIZO_DUCKDB_PATH", "")
	os.Unsetenv("RHIZO_SINK")
	os.Unsetenv("RHIZO_DUCKDB_PATH")

	config, err := loadConfig("", envFile)
	require.NoError(t, err)
	assert.Equal(t, rhizo.SinkDuckDB, config.Export.Sink)
	assert.Equal(t, "sample.duckdb", config.DuckDB.DBPath)

	_, err = loadConfig("", filepath.Join(dir, "absent.env"))
	assert.NoError(t, err, "a missing env file is not an error")
}
