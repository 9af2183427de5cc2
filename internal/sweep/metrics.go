package sweep

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names recorded by a Runner.
const (
	CallablesMetricName    = "fms_sweep_callables_total"
	FileDurationMetricName = "fms_sweep_file_duration_seconds"

	AttrKind    = "kind"
	AttrOutcome = "outcome"
)

// sweepMetrics counts outcomes per kind and times each file.
type sweepMetrics struct {
	callables    metric.Int64Counter
	fileDuration metric.Float64Histogram
}

func newSweepMetrics(provider metric.MeterProvider) (*sweepMetrics, error) {
	meter := provider.Meter("github.com/kyrylo/fast-method-source/internal/sweep")

	callables, err := meter.Int64Counter(
		CallablesMetricName,
		metric.WithDescription("Callables resolved by sweeps, by kind and outcome"),
	)
	if err != nil {
		return nil, err
	}

	fileDuration, err := meter.Float64Histogram(
		FileDurationMetricName,
		metric.WithDescription("Time spent parsing and resolving one file"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &sweepMetrics{callables: callables, fileDuration: fileDuration}, nil
}

func (m *sweepMetrics) recordEntry(ctx context.Context, e Entry) {
	m.callables.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrKind, string(e.Callable.Kind)),
		attribute.String(AttrOutcome, string(e.Outcome)),
	))
}

func (m *sweepMetrics) recordFile(ctx context.Context, d time.Duration) {
	m.fileDuration.Record(ctx, d.Seconds())
}
