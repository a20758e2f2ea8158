package rhizo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config consolidates mapping, validation, logging and export settings
type Config struct {
	Mapping    MappingConfig    `json:"mapping" yaml:"mapping"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
	Export     ExportConfig     `json:"export" yaml:"export"`
	DuckDB     DuckDBConfig     `json:"duckdb" yaml:"duckdb"`
	Postgres   PostgresConfig   `json:"postgres" yaml:"postgres"`
	S3         S3Config         `json:"s3" yaml:"s3"`
}

// MappingConfig controls mapping generation
type MappingConfig struct {
	// CacheEnabled keeps one generated mapping per model type.
	CacheEnabled bool `json:"cacheEnabled" yaml:"cacheEnabled"`
	// GenerateMissingIDs assigns a UUIDv7 when a model id is empty.
	GenerateMissingIDs bool `json:"generateMissingIds" yaml:"generateMissingIds"`
}

// ValidationConfig controls record validation against the JSON Schema
// derived from a meta model
type ValidationConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// SinkType names a record sink implementation
type SinkType string

const (
	SinkNone     SinkType = "none"
	SinkDuckDB   SinkType = "duckdb"
	SinkPostgres SinkType = "postgres"
	SinkS3       SinkType = "s3"
)

// ExportConfig selects where datasets are written
type ExportConfig struct {
	Sink      SinkType `json:"sink" yaml:"sink"`
	BatchSize int      `json:"batchSize" yaml:"batchSize"`

	// FailureThreshold consecutive sink failures within FailureWindowSeconds
	// open the circuit breaker for OpenSeconds. Zero disables the breaker.
	FailureThreshold     int `json:"failureThreshold" yaml:"failureThreshold"`
	FailureWindowSeconds int `json:"failureWindowSeconds" yaml:"failureWindowSeconds"`
	OpenSeconds          int `json:"openSeconds" yaml:"openSeconds"`
}

// DuckDBConfig contains DuckDB sink settings
type DuckDBConfig struct {
	DBPath string `json:"dbPath" yaml:"dbPath"`
	Table  string `json:"table" yaml:"table"`
}

// PostgresConfig contains Postgres sink settings
type PostgresConfig struct {
	DSN   string `json:"dsn" yaml:"dsn"`
	Table string `json:"table" yaml:"table"`
	// UseIAMAuth replaces the DSN password with an IAM auth token, for
	// Aurora DSQL endpoints.
	UseIAMAuth bool   `json:"useIamAuth" yaml:"useIamAuth"`
	Region     string `json:"region" yaml:"region"`
}

// S3Config contains S3 sink settings
type S3Config struct {
	Bucket       string `json:"bucket" yaml:"bucket"`
	Prefix       string `json:"prefix" yaml:"prefix"`
	Region       string `json:"region" yaml:"region"`
	Endpoint     string `json:"endpoint" yaml:"endpoint"`
	AccessKey    string `json:"accessKey" yaml:"accessKey"`
	SecretKey    string `json:"secretKey" yaml:"secretKey"`
	UsePathStyle bool   `json:"usePathStyle" yaml:"usePathStyle"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Mapping: MappingConfig{
			CacheEnabled:       true,
			GenerateMissingIDs: true,
		},
		Validation: ValidationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Export: ExportConfig{
			Sink:                 SinkNone,
			BatchSize:            500,
			FailureThreshold:     3,
			FailureWindowSeconds: 60,
			OpenSeconds:          30,
		},
		DuckDB: DuckDBConfig{
			DBPath: "",
			Table:  "rhizo_records",
		},
		Postgres: PostgresConfig{
			Table: "rhizo_records",
		},
		S3: S3Config{
			Prefix: "rhizo",
			Region: "us-east-1",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: "must be one of debug, info, warn, error"}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be json or console"}
	}

	if c.Export.BatchSize <= 0 {
		return &ConfigError{Field: "export.batchSize", Message: "must be greater than 0"}
	}
	if c.Export.FailureThreshold < 0 {
		return &ConfigError{Field: "export.failureThreshold", Message: "must not be negative"}
	}
	if c.Export.FailureThreshold > 0 && (c.Export.FailureWindowSeconds <= 0 || c.Export.OpenSeconds <= 0) {
		return &ConfigError{Field: "export.openSeconds", Message: "failureWindowSeconds and openSeconds must be greater than 0 when the breaker is enabled"}
	}

	switch c.Export.Sink {
	case SinkNone, "":
	case SinkDuckDB:
		if c.DuckDB.Table == "" {
			return &ConfigError{Field: "duckdb.table", Message: "is required for the duckdb sink"}
		}
	case SinkPostgres:
		if c.Postgres.DSN == "" {
			return &ConfigError{Field: "postgres.dsn", Message: "is required for the postgres sink"}
		}
		if c.Postgres.Table == "" {
			return &ConfigError{Field: "postgres.table", Message: "is required for the postgres sink"}
		}
		if c.Postgres.UseIAMAuth && c.Postgres.Region == "" {
			return &ConfigError{Field: "postgres.region", Message: "is required when useIamAuth is set"}
		}
	case SinkS3:
		if c.S3.Bucket == "" {
			return &ConfigError{Field: "s3.bucket", Message: "is required for the s3 sink"}
		}
		if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
			return &ConfigError{Field: "s3.accessKey", Message: "accessKey and secretKey must be set together"}
		}
	default:
		return &ConfigError{Field: "export.sink", Message: fmt.Sprintf("unknown sink %q", c.Export.Sink)}
	}

	return nil
}

// LoadConfig reads a YAML or JSON file on top of DefaultConfig. The format
// is chosen by extension; anything other than .json is parsed as YAML.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
