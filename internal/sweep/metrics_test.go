package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kyrylo/fast-method-source/internal/navigation"
)

// TestRunner_Metrics checks that outcomes are counted per kind and that
// every swept file is timed.
func TestRunner_Metrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	parser := fakeParser{callables: map[string][]navigation.Callable{
		"a.rb": {
			{Name: "ok", Kind: navigation.KindMethod, File: "a.rb", Line: 1, EndLine: 2},
			{Name: "shifted", Kind: navigation.KindMethod, File: "a.rb", Line: 4, EndLine: 5},
		},
		"b.rb": {
			{Kind: navigation.KindLambda, File: "b.rb", Line: 7, EndLine: 8},
		},
	}}

	ctx := context.Background()
	_, err := NewRunner(fakeResolver{}, parser, WithMeterProvider(provider)).Run(ctx, []string{"a.rb", "b.rb"})
	require.NoError(t, err)

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &data))

	counts := make(map[[2]string]int64)
	var fileSamples uint64
	for _, scopeMetrics := range data.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			switch m.Name {
			case CallablesMetricName:
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "Expected Sum[int64] data type")
				for _, dp := range sum.DataPoints {
					kind, _ := dp.Attributes.Value(attribute.Key(AttrKind))
					outcome, _ := dp.Attributes.Value(attribute.Key(AttrOutcome))
					counts[[2]string{kind.AsString(), outcome.AsString()}] += dp.Value
				}
			case FileDurationMetricName:
				hist, ok := m.Data.(metricdata.Histogram[float64])
				require.True(t, ok, "Expected Histogram[float64] data type")
				for _, dp := range hist.DataPoints {
					fileSamples += dp.Count
				}
			}
		}
	}

	assert.Equal(t, map[[2]string]int64{
		{"method", "match"}:    1,
		{"method", "mismatch"}: 1,
		{"lambda", "match"}:    1,
	}, counts)
	assert.Equal(t, uint64(2), fileSamples)
}
