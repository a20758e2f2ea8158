package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lychee-technology/rhizo"
	"github.com/lychee-technology/rhizo/factory"
	"go.uber.org/zap"
)

// Server exposes the JSON bridges and the dataset exporter over HTTP.
type Server struct {
	texts    rhizo.ModelBridge
	objects  rhizo.ModelBridge
	exporter factory.Exporter
	mux      *http.ServeMux
}

// NewServer creates a new Server instance
func NewServer(config *rhizo.Config, exporter factory.Exporter) *Server {
	return &Server{
		texts:    factory.NewJSONStringBridge(config),
		objects:  factory.NewJSONObjectBridge(config),
		exporter: exporter,
		mux:      http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/v1/bridge", s.handleBridge)
	s.mux.HandleFunc("/api/v1/schema", s.handleSchema)
	s.mux.HandleFunc("/api/v1/datasets", s.handleExport)
}

// ServeHTTP makes Server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start serves on the given port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.S().Warnw("server shutdown failed", "error", err)
		}
	}()

	zap.S().Infow("starting server", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	config := rhizo.DefaultConfig()
	if path := os.Getenv("RHIZO_CONFIG"); path != "" {
		loaded, err := rhizo.LoadConfig(path)
		if err != nil {
			panic(err)
		}
		config = loaded
	}

	logger, err := factory.NewLogger(config.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter, err := factory.NewExporter(ctx, config)
	if err != nil {
		sugar.Fatalf("failed to open sink: %v", err)
	}
	defer exporter.Close()

	server := NewServer(config, exporter)
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(ctx, port); err != nil {
		sugar.Errorf("server error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
