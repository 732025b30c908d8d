package observe

import (
	"context"
	"time"
)

// ExecuteFunc runs one check and returns its derived status.
type ExecuteFunc func(ctx context.Context, meta CheckMeta) (status string, err error)

// Middleware wraps check execution with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a function safe for concurrent use.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware from its components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// NoopMiddleware returns a Middleware that only runs the wrapped function.
func NoopMiddleware() *Middleware {
	return NewMiddleware(newNoopTracer(), &noopMetrics{}, &noopLogger{})
}

// Wrap wraps fn with a span, execution metrics and a completion log line.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta CheckMeta) (string, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		status, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, status, err)
		m.metrics.RecordExecution(ctx, meta, duration, err)

		log := m.logger.WithCheck(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
			{Key: "status", Value: status},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			log.Error(ctx, "check execution failed", fields...)
		} else {
			log.Info(ctx, "check execution completed", fields...)
		}
		return status, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
