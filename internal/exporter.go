package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/lychee-technology/rhizo"
	"go.uber.org/zap"
)

// Exporter validates datasets when enabled and hands them to a sink. A
// circuit breaker short-circuits writes while the sink keeps failing.
type Exporter struct {
	sink     rhizo.RecordSink
	validate bool
	breaker  *CircuitBreaker
}

func NewExporter(sink rhizo.RecordSink, validate bool) *Exporter {
	if sink == nil {
		sink = rhizo.NopSink{}
	}
	return &Exporter{sink: sink, validate: validate}
}

// WithCircuitBreaker guards sink writes with cb. A nil cb disables the guard.
func (e *Exporter) WithCircuitBreaker(cb *CircuitBreaker) *Exporter {
	e.breaker = cb
	return e
}

func (e *Exporter) Export(ctx context.Context, ds *rhizo.Dataset) error {
	if ds == nil {
		return rhizo.NewConversionError(rhizo.ErrCodeInvalidModel, "dataset is nil")
	}
	if e.validate {
		start := time.Now()
		err := ValidateDataset(ds)
		EmitLatency(ctx, "validate", ds.ModelType, time.Since(start).Milliseconds())
		if err != nil {
			zap.S().Warnw("dataset failed validation", "model", ds.ModelType, "error", err)
			EmitFailure(ctx, ds.ModelType, rhizo.ErrorCode(err))
			return err
		}
	}

	if e.breaker.IsOpen() {
		EmitFailure(ctx, ds.ModelType, "circuit_open")
		return rhizo.NewStorageError(rhizo.ErrCodeSinkUnavailable, "sink circuit breaker is open").
			WithModel(ds.ModelType).WithDetail("openUntil", e.breaker.OpenUntil())
	}

	start := time.Now()
	err := e.sink.Write(ctx, ds)
	EmitLatency(ctx, "write", ds.ModelType, time.Since(start).Milliseconds())
	if err != nil {
		e.breaker.RecordFailure()
		EmitFailure(ctx, ds.ModelType, rhizo.ErrorCode(err))
		return fmt.Errorf("export %s: %w", ds.ModelType, err)
	}
	e.breaker.RecordSuccess()
	EmitRecordCount(ctx, ds.ModelType, int64(ds.Len()))
	return nil
}

func (e *Exporter) Close() error {
	return e.sink.Close()
}
