package internal

import (
	"context"
	"sync"
)

// Telemetry hooks for the export path. The default emitter is a no-op;
// hosts register a metrics-backed emitter (or a test stub) through
// RegisterTelemetryEmitter.

type telemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

const (
	metricExportLatency = "rhizo_export_latency_ms"
	metricRecordCount   = "rhizo_export_record_count"
	metricExportFailure = "rhizo_export_failure"
)

var (
	teleMu   sync.Mutex
	teleImpl telemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {}
)

// RegisterTelemetryEmitter registers a custom emitter function. A nil fn
// restores the no-op emitter.
func RegisterTelemetryEmitter(fn telemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func emit(ctx context.Context, name string, labels map[string]string, value any) {
	teleMu.Lock()
	fn := teleImpl
	teleMu.Unlock()
	fn(ctx, name, labels, value)
}

// EmitLatency records the latency in milliseconds of an export stage
// ("validate" or "write").
func EmitLatency(ctx context.Context, stage, model string, ms int64) {
	emit(ctx, metricExportLatency, map[string]string{"stage": stage, "model": model}, ms)
}

// EmitRecordCount records how many records of a model reached the sink.
func EmitRecordCount(ctx context.Context, model string, records int64) {
	emit(ctx, metricRecordCount, map[string]string{"model": model}, records)
}

// EmitFailure records a failed export with the error code as reason.
func EmitFailure(ctx context.Context, model, reason string) {
	emit(ctx, metricExportFailure, map[string]string{"model": model, "reason": reason}, 1)
}
