package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics records counts and latencies of key vault and migration operations.
type BusinessMetrics interface {
	// RecordOperation counts one operation. Domain is "migration" or "kms";
	// status is "success" or "error".
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration observes an operation's latency in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)
}

// RunMetrics adds the per-run series a batch job exports for alerting.
type RunMetrics interface {
	BusinessMetrics

	// RecordMismatches counts each field of table that failed round-trip verification.
	RecordMismatches(ctx context.Context, table string, fields []string)

	// RecordRunFinished sets the completion time of the last run ending in state.
	RecordRunFinished(ctx context.Context, state string, finishedAt time.Time)
}

type recorder struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
	mismatches metric.Int64Counter
	lastRun    metric.Float64Gauge
}

// NewBusinessMetrics builds a RunMetrics on meterProvider. Metric names are
// prefixed with namespace (e.g. "colkeys_operations_total").
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (RunMetrics, error) {
	meter := meterProvider.Meter(namespace)
	r := &recorder{}
	var err error

	r.operations, err = meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of key vault and migration operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	r.durations, err = meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of key vault and migration operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	r.mismatches, err = meter.Int64Counter(
		fmt.Sprintf("%s_verification_mismatches_total", namespace),
		metric.WithDescription("Fields that did not read back unchanged through the encrypted connection"),
		metric.WithUnit("{field}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mismatch counter: %w", err)
	}

	r.lastRun, err = meter.Float64Gauge(
		fmt.Sprintf("%s_last_run_timestamp_seconds", namespace),
		metric.WithDescription("Unix time the last migration run finished, by final state"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create last run gauge: %w", err)
	}

	return r, nil
}

func operationAttributes(domain, operation, status string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
}

func (r *recorder) RecordOperation(ctx context.Context, domain, operation, status string) {
	r.operations.Add(ctx, 1, operationAttributes(domain, operation, status))
}

func (r *recorder) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	r.durations.Record(ctx, duration.Seconds(), operationAttributes(domain, operation, status))
}

func (r *recorder) RecordMismatches(ctx context.Context, table string, fields []string) {
	for _, field := range fields {
		r.mismatches.Add(ctx, 1, metric.WithAttributes(
			attribute.String("table", table),
			attribute.String("field", field),
		))
	}
}

func (r *recorder) RecordRunFinished(ctx context.Context, state string, finishedAt time.Time) {
	seconds := float64(finishedAt.UnixNano()) / float64(time.Second)
	r.lastRun.Record(ctx, seconds, metric.WithAttributes(attribute.String("state", state)))
}

// NoOpBusinessMetrics discards everything. Used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op RunMetrics.
func NewNoOpBusinessMetrics() RunMetrics {
	return &NoOpBusinessMetrics{}
}

// RecordOperation does nothing.
func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {}

// RecordDuration does nothing.
func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}

// RecordMismatches does nothing.
func (n *NoOpBusinessMetrics) RecordMismatches(ctx context.Context, table string, fields []string) {}

// RecordRunFinished does nothing.
func (n *NoOpBusinessMetrics) RecordRunFinished(ctx context.Context, state string, finishedAt time.Time) {}
