package rhizo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.True(t, config.Mapping.CacheEnabled)
	assert.True(t, config.Mapping.GenerateMissingIDs)
	assert.False(t, config.Validation.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)

	assert.Equal(t, SinkNone, config.Export.Sink)
	assert.Equal(t, 500, config.Export.BatchSize)
	assert.Equal(t, 3, config.Export.FailureThreshold)
	assert.Equal(t, 60, config.Export.FailureWindowSeconds)
	assert.Equal(t, 30, config.Export.OpenSeconds)

	assert.Equal(t, "rhizo_records", config.DuckDB.Table)
	assert.Equal(t, "rhizo_records", config.Postgres.Table)
	assert.Equal(t, "rhizo", config.S3.Prefix)
	assert.Equal(t, "us-east-1", config.S3.Region)

	require.NoError(t, config.Validate())
}

func TestConfigValidationDetailed(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(c *Config)
		errorField string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:       "unknown log level",
			mutate:     func(c *Config) { c.Logging.Level = "trace" },
			errorField: "logging.level",
		},
		{
			name:   "log level is case insensitive",
			mutate: func(c *Config) { c.Logging.Level = "DEBUG" },
		},
		{
			name:       "unknown log format",
			mutate:     func(c *Config) { c.Logging.Format = "xml" },
			errorField: "logging.format",
		},
		{
			name:       "invalid batch size",
			mutate:     func(c *Config) { c.Export.BatchSize = 0 },
			errorField: "export.batchSize",
		},
		{
			name:       "negative failure threshold",
			mutate:     func(c *Config) { c.Export.FailureThreshold = -1 },
			errorField: "export.failureThreshold",
		},
		{
			name:       "breaker without window",
			mutate:     func(c *Config) { c.Export.FailureWindowSeconds = 0 },
			errorField: "export.openSeconds",
		},
		{
			name:       "breaker without open duration",
			mutate:     func(c *Config) { c.Export.OpenSeconds = 0 },
			errorField: "export.openSeconds",
		},
		{
			name: "disabled breaker ignores durations",
			mutate: func(c *Config) {
				c.Export.FailureThreshold = 0
				c.Export.FailureWindowSeconds = 0
				c.Export.OpenSeconds = 0
			},
		},
		{
			name:       "unknown sink",
			mutate:     func(c *Config) { c.Export.Sink = "kafka" },
			errorField: "export.sink",
		},
		{
			name: "duckdb sink without table",
			mutate: func(c *Config) {
				c.Export.Sink = SinkDuckDB
				c.DuckDB.Table = ""
			},
			errorField: "duckdb.table",
		},
		{
			name:   "duckdb sink in memory",
			mutate: func(c *Config) { c.Export.Sink = SinkDuckDB },
		},
		{
			name:       "postgres sink without dsn",
			mutate:     func(c *Config) { c.Export.Sink = SinkPostgres },
			errorField: "postgres.dsn",
		},
		{
			name: "postgres sink without table",
			mutate: func(c *Config) {
				c.Export.Sink = SinkPostgres
				c.Postgres.DSN = "postgres://localhost/rhizo"
				c.Postgres.Table = ""
			},
			errorField: "postgres.table",
		},
		{
			name: "postgres iam auth without region",
			mutate: func(c *Config) {
				c.Export.Sink = SinkPostgres
				c.Postgres.DSN = "postgres://admin@cluster.dsql.us-east-1.on.aws/postgres"
				c.Postgres.UseIAMAuth = true
			},
			errorField: "postgres.region",
		},
		{
			name:       "s3 sink without bucket",
			mutate:     func(c *Config) { c.Export.Sink = SinkS3 },
			errorField: "s3.bucket",
		},
		{
			name: "s3 access key without secret",
			mutate: func(c *Config) {
				c.Export.Sink = SinkS3
				c.S3.Bucket = "exports"
				c.S3.AccessKey = "key"
			},
			errorField: "s3.accessKey",
		},
		{
			name: "s3 sink with static credentials",
			mutate: func(c *Config) {
				c.Export.Sink = SinkS3
				c.S3.Bucket = "exports"
				c.S3.AccessKey = "key"
				c.S3.SecretKey = "secret"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.errorField == "" {
				assert.NoError(t, err)
				return
			}
			var configErr *ConfigError
			require.True(t, errors.As(err, &configErr), "expected ConfigError, got %T", err)
			assert.Equal(t, tt.errorField, configErr.Field)
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "test.field",
		Message: "test message",
	}
	assert.Equal(t, "config validation error for field 'test.field': test message", err.Error())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml overrides defaults", func(t *testing.T) {
		path := filepath.Join(dir, "rhizo.yaml")
		content := `
mapping:
  cacheEnabled: false
logging:
  level: debug
  format: console
export:
  sink: s3
  batchSize: 50
s3:
  bucket: exports
  usePathStyle: true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.False(t, config.Mapping.CacheEnabled)
		assert.True(t, config.Mapping.GenerateMissingIDs)
		assert.Equal(t, "debug", config.Logging.Level)
		assert.Equal(t, "console", config.Logging.Format)
		assert.Equal(t, SinkS3, config.Export.Sink)
		assert.Equal(t, 50, config.Export.BatchSize)
		assert.Equal(t, 3, config.Export.FailureThreshold)
		assert.Equal(t, "exports", config.S3.Bucket)
		assert.Equal(t, "rhizo", config.S3.Prefix)
		assert.True(t, config.S3.UsePathStyle)
	})

	t.Run("json by extension", func(t *testing.T) {
		path := filepath.Join(dir, "rhizo.json")
		content := `{"validation": {"enabled": true}, "export": {"sink": "duckdb", "failureThreshold": 0}, "duckdb": {"dbPath": "out.duckdb"}}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.True(t, config.Validation.Enabled)
		assert.Equal(t, SinkDuckDB, config.Export.Sink)
		assert.Equal(t, 0, config.Export.FailureThreshold)
		assert.Equal(t, "out.duckdb", config.DuckDB.DBPath)
		assert.Equal(t, "rhizo_records", config.DuckDB.Table)
	})

	t.Run("invalid settings are rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yml")
		require.NoError(t, os.WriteFile(path, []byte("export:\n  sink: postgres\n"), 0o600))

		_, err := LoadConfig(path)
		var configErr *ConfigError
		require.True(t, errors.As(err, &configErr))
		assert.Equal(t, "postgres.dsn", configErr.Field)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
