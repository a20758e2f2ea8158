package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lychee-technology/rhizo"
	"github.com/lychee-technology/rhizo/factory"
	"go.uber.org/zap"
)

func main() {
	// Command line flags
	csvFile := flag.String("csv", "", "Path to CSV file to import (required)")
	modelName := flag.String("model", "person", "Sample model the rows describe: person, employee or book")
	configFile := flag.String("config", "", "Path to a YAML or JSON config file (defaults are used when empty)")
	envFile := flag.String("env", ".env", "Optional .env file loaded before reading environment overrides")
	delimiter := flag.String("delimiter", ",", "CSV field delimiter")
	preview := flag.Int("preview", 3, "Number of records printed after the meta model and schema")
	validate := flag.Bool("validate", false, "Validate records against the meta model schema before exporting")
	dryRun := flag.Bool("dry-run", false, "Import and print the dataset without exporting it")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	if *csvFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -csv flag is required")
		flag.Usage()
		os.Exit(1)
	}

	config, err := loadConfig(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		config.Logging.Level = "debug"
		config.Logging.Format = "console"
	}
	if *validate {
		config.Validation.Enabled = true
	}

	// Setup logging
	logger, err := factory.NewLogger(config.Logging)
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	mapper, err := mapperFor(*modelName)
	if err != nil {
		sugar.Fatalf("%v", err)
	}
	opts := DefaultImportOptions()
	if d := []rune(*delimiter); len(d) == 1 {
		opts.Delimiter = d[0]
	} else {
		sugar.Fatalf("Delimiter must be a single character, got %q", *delimiter)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry, err := factory.NewMappingRegistry(config)
	if err != nil {
		sugar.Fatalf("Failed to create mapping registry: %v", err)
	}

	sugar.Infof("Importing %s rows from: %s", mapper.ModelName(), *csvFile)
	startTime := time.Now()
	var (
		ds     *rhizo.Dataset
		result *ImportResult
	)
	switch *modelName {
	case "person":
		ds, result, err = importDataset(ctx, registry, mapper, newPerson, *csvFile, opts)
	case "employee":
		ds, result, err = importDataset(ctx, registry, mapper, newEmployee, *csvFile, opts)
	case "book":
		ds, result, err = importDataset(ctx, registry, mapper, newBook, *csvFile, opts)
	}
	if err != nil {
		sugar.Fatalf("Import failed: %v", err)
	}
	sugar.Infof("Import completed in %v", time.Since(startTime))
	printResult(result, sugar)

	if err := printDataset(os.Stdout, ds, *preview); err != nil {
		sugar.Fatalf("Failed to print dataset: %v", err)
	}

	if *dryRun {
		if config.Validation.Enabled {
			if err := factory.ValidateDataset(ds); err != nil {
				sugar.Fatalf("Validation failed: %v", err)
			}
			sugar.Infof("All %d records match the meta model", ds.Len())
		}
		sugar.Infof("Dry run mode: skipping export")
		exitOnFailures(result)
		return
	}

	sugar.Infof("Exporting %d records to sink %q", ds.Len(), config.Export.Sink)
	exporter, err := factory.NewExporter(ctx, config)
	if err != nil {
		sugar.Fatalf("Failed to open sink: %v", err)
	}
	exportErr := exporter.Export(ctx, ds)
	if err := exporter.Close(); err != nil {
		sugar.Warnw("Failed to close sink", "error", err)
	}
	if exportErr != nil {
		sugar.Fatalf("Export failed [%s]: %v", rhizo.ErrorCode(exportErr), exportErr)
	}
	sugar.Infof("Export completed successfully")
	exitOnFailures(result)
}

// loadConfig reads the config file, when given, and applies environment
// overrides. Variables from envFile never replace ones already set.
func loadConfig(configFile, envFile string) (*rhizo.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	config := rhizo.DefaultConfig()
	if configFile != "" {
		loaded, err := rhizo.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	applyEnv(config, os.LookupEnv)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv overrides sink settings from the environment.
func applyEnv(config *rhizo.Config, lookup func(string) (string, bool)) {
	set := func(key string, target *string) {
		if v, ok := lookup(key); ok && v != "" {
			*target = v
		}
	}
	var sink string
	set("RHIZO_SINK", &sink)
	if sink != "" {
		config.Export.Sink = rhizo.SinkType(strings.ToLower(sink))
	}
	set("RHIZO_DUCKDB_PATH", &config.DuckDB.DBPath)
	set("DATABASE_URL", &config.Postgres.DSN)
	set("RHIZO_S3_BUCKET", &config.S3.Bucket)
	set("RHIZO_S3_ENDPOINT", &config.S3.Endpoint)
	set("AWS_REGION", &config.S3.Region)
}

// importDataset reads the CSV file into models and bridges them into a dataset.
func importDataset[T any](ctx context.Context, registry rhizo.MappingRegistry, mapper CSVRowMapper,
	build func(values map[string]any) T, csvFile string, opts ImportOptions) (*rhizo.Dataset, *ImportResult, error) {
	importer := NewCSVImporter(mapper, build)
	importer.SetOptions(opts)
	importer.SetLogger(zap.S().Named("Import"))

	models, result, err := importer.ImportFromFile(ctx, csvFile)
	if err != nil {
		return nil, nil, err
	}
	mapping, err := rhizo.MappingOf[T](registry)
	if err != nil {
		return nil, nil, err
	}
	ds, err := rhizo.BuildDataset(mapping, models)
	if err != nil {
		return nil, nil, err
	}
	return ds, result, nil
}

// printDataset writes the meta model, its JSON schema and the first
// preview records as one JSON document.
func printDataset(w io.Writer, ds *rhizo.Dataset, preview int) error {
	records := ds.Records
	if preview >= 0 && len(records) > preview {
		records = records[:preview]
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"modelType": ds.ModelType,
		"metaModel": ds.MetaModel,
		"schema":    factory.JSONSchema(ds),
		"records":   records,
		"total":     ds.Len(),
	})
}

// printResult prints the import result summary.
func printResult(result *ImportResult, logger *zap.SugaredLogger) {
	logger.Info(strings.Repeat("=", 52))
	logger.Info("Import Summary")
	logger.Info(strings.Repeat("=", 52))
	logger.Infof("  Total rows:     %d", result.TotalRows)
	logger.Infof("  Successful:     %d", result.SuccessCount)
	logger.Infof("  Failed:         %d", result.FailedCount)
	logger.Infof("  Duration:       %v", result.Duration)

	if result.FailedCount > 0 && result.TotalRows > 0 {
		successRate := float64(result.SuccessCount) / float64(result.TotalRows) * 100
		logger.Infof("  Success rate:   %.2f%%", successRate)
	}

	if len(result.Errors) > 0 {
		logger.Info("")
		logger.Infof("First %d errors:", min(10, len(result.Errors)))
		for i, err := range result.Errors {
			if i >= 10 {
				logger.Infof("  ... and %d more errors", len(result.Errors)-10)
				break
			}
			logger.Infof("  [%d] %s", i+1, err.Error())
		}
	}
}

// exitOnFailures exits with a non-zero code if any row failed to import.
func exitOnFailures(result *ImportResult) {
	if result.FailedCount > 0 {
		os.Exit(1)
	}
}
