package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records execution metrics for checks.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordExecution records one check run with its duration and error.
	RecordExecution(ctx context.Context, meta CheckMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"check.exec.total",
		metric.WithDescription("Total number of check executions"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"check.exec.errors",
		metric.WithDescription("Total number of check executions ending in Error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"check.exec.duration_ms",
		metric.WithDescription("Check execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordExecution records metrics for a check run.
func (m *metricsImpl) RecordExecution(ctx context.Context, meta CheckMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("check.kind", meta.Kind))

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

type noopMetrics struct{}

func (m *noopMetrics) RecordExecution(context.Context, CheckMeta, time.Duration, error) {}

// SummaryFunc reports the current number of checks per outcome bucket,
// e.g. {"successful": 3, "failed": 1, "pending": 0, "other": 0}.
type SummaryFunc func() map[string]int64

// RegisterSummaryGauges publishes fn as the check.summary.count gauge with
// one series per bucket. Unregister the returned registration on shutdown.
func RegisterSummaryGauges(meter metric.Meter, fn SummaryFunc) (metric.Registration, error) {
	gauge, err := meter.Int64ObservableGauge(
		"check.summary.count",
		metric.WithDescription("Number of checks per outcome bucket"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for bucket, n := range fn() {
			o.ObserveInt64(gauge, n, metric.WithAttributes(attribute.String("bucket", bucket)))
		}
		return nil
	}, gauge)
}
