package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/lychee-technology/rhizo"
	"github.com/lychee-technology/rhizo/internal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16"
	s3Image       = "rustfs/rustfs:latest"

	startupTimeout = 30 * time.Second
	readyTimeout   = 20 * time.Second
)

// TestHarness runs the sink backends exercised by the E2E tests. Each
// backend is started on demand and stopped by its Stop method.
type TestHarness struct {
	PGContainer testcontainers.Container
	PGDSN       string
	PGDB        *sql.DB
	S3Container testcontainers.Container
	S3Endpoint  string
	Duck        *sql.DB
	DuckPath    string
}

// backend describes a single-port container.
type backend struct {
	image string
	port  nat.Port
	env   map[string]string
}

// start runs b and returns the container with its host:port address.
func (b backend) start(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        b.image,
			ExposedPorts: []string{string(b.port)},
			Env:          b.env,
			WaitingFor:   wait.ForListeningPort(b.port).WithStartupTimeout(startupTimeout),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("start %s: %w", b.image, err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, "", err
	}
	mapped, err := container.MappedPort(ctx, b.port)
	if err != nil {
		container.Terminate(ctx)
		return nil, "", err
	}
	return container, fmt.Sprintf("%s:%s", host, mapped.Port()), nil
}

// StartPostgres starts Postgres and waits until it accepts queries.
func (h *TestHarness) StartPostgres(ctx context.Context) (string, error) {
	container, addr, err := backend{
		image: postgresImage,
		port:  "5432/tcp",
		env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "postgres",
		},
	}.start(ctx)
	if err != nil {
		return "", err
	}
	h.PGContainer = container
	h.PGDSN = fmt.Sprintf("postgres://postgres:password@%s/postgres?sslmode=disable", addr)

	db, err := sql.Open("postgres", h.PGDSN)
	if err != nil {
		return "", err
	}
	// The port opens before initdb finishes.
	deadline := time.Now().Add(readyTimeout)
	for {
		err := db.PingContext(ctx)
		if err == nil {
			h.PGDB = db
			return h.PGDSN, nil
		}
		if time.Now().After(deadline) {
			db.Close()
			return "", fmt.Errorf("postgres did not become ready: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// StopPostgres closes the DB handle and terminates the container.
func (h *TestHarness) StopPostgres(ctx context.Context) error {
	if h.PGDB != nil {
		h.PGDB.Close()
		h.PGDB = nil
	}
	return terminate(ctx, &h.PGContainer)
}

// StartS3 starts an S3-compatible store and returns its endpoint URL.
func (h *TestHarness) StartS3(ctx context.Context) (string, error) {
	container, addr, err := backend{
		image: s3Image,
		port:  "9000/tcp",
		env: map[string]string{
			"RUSTFS_ACCESS_KEY": S3AccessKey,
			"RUSTFS_SECRET_KEY": S3SecretKey,
		},
	}.start(ctx)
	if err != nil {
		return "", err
	}
	h.S3Container = container
	h.S3Endpoint = "http://" + addr
	return h.S3Endpoint, nil
}

// StopS3 terminates the S3 container.
func (h *TestHarness) StopS3(ctx context.Context) error {
	return terminate(ctx, &h.S3Container)
}

// StartDuckDB opens the DuckDB file at cfg.DBPath so tests can inspect
// what the sink wrote.
func (h *TestHarness) StartDuckDB(ctx context.Context, cfg rhizo.DuckDBConfig) error {
	db, err := internal.OpenDuckDB(ctx, cfg)
	if err != nil {
		return err
	}
	h.Duck = db
	h.DuckPath = cfg.DBPath
	return nil
}

// StopDuckDB closes the DuckDB handle.
func (h *TestHarness) StopDuckDB() error {
	if h.Duck == nil {
		return nil
	}
	err := h.Duck.Close()
	h.Duck = nil
	return err
}

// Config returns a validating export config for sink that points at the
// started backends, writing in batches of batchSize.
func (h *TestHarness) Config(sink rhizo.SinkType, batchSize int) *rhizo.Config {
	cfg := rhizo.DefaultConfig()
	cfg.Export.Sink = sink
	cfg.Export.BatchSize = batchSize
	cfg.Validation.Enabled = true
	cfg.Postgres.DSN = h.PGDSN
	cfg.DuckDB.DBPath = h.DuckPath
	return cfg
}

func terminate(ctx context.Context, container *testcontainers.Container) error {
	if *container == nil {
		return nil
	}
	if err := (*container).Terminate(ctx); err != nil {
		return err
	}
	*container = nil
	return nil
}
