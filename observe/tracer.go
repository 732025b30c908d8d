package observe

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CheckMeta describes one check run for telemetry purposes.
type CheckMeta struct {
	Kind        string // Canonical check kind (required)
	Description string // Human label from configuration (optional)
	Index       int    // Position in the registry
	Target      string // Pool key or endpoint identity (optional)
	Trigger     string // sweep, single or daemon (optional)
}

// SpanName returns the deterministic span name for this check.
// Format: check.exec.<kind>
func (m CheckMeta) SpanName() string {
	return "check.exec." + m.Kind
}

// CheckID returns <kind>#<index>.
func (m CheckMeta) CheckID() string {
	return m.Kind + "#" + strconv.Itoa(m.Index)
}

// Validate reports whether the metadata can label telemetry.
func (m CheckMeta) Validate() error {
	if m.Kind == "" {
		return ErrMissingCheckKind
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with check-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a check run.
	StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the resulting status and any error.
	EndSpan(span trace.Span, status string, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a span with check metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("check.id", meta.CheckID()),
		attribute.String("check.kind", meta.Kind),
		attribute.Int("check.index", meta.Index),
		attribute.Bool("check.error", false),
	}
	if meta.Description != "" {
		attrs = append(attrs, attribute.String("check.description", meta.Description))
	}
	if meta.Target != "" {
		attrs = append(attrs, attribute.String("check.target", meta.Target))
	}
	if meta.Trigger != "" {
		attrs = append(attrs, attribute.String("check.trigger", meta.Trigger))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span and records the status and error if present.
func (t *tracerImpl) EndSpan(span trace.Span, status string, err error) {
	if status != "" {
		span.SetAttributes(attribute.String("check.status", status))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("check.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ string, _ error) {
	span.End()
}
