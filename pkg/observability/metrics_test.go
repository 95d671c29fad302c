package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/arbored/weft"
	"github.com/arbored/weft/pkg/dsl"
	"github.com/arbored/weft/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountsRunsAndNodes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	eng := weft.New(weft.WithLifecycleHooks(metrics.Hooks()))

	b := dsl.New("observed")
	b.Add("a", func(_ context.Context, _ weft.Snapshot) (weft.Delta, error) {
		return weft.Delta{"x": 1}, nil
	})
	b.Add("b", func(_ context.Context, _ weft.Snapshot) (weft.Delta, error) {
		return nil, errors.New("boom")
	}).After("a").Then(weft.End)
	g, err := b.Build()
	require.NoError(t, err)

	_, err = eng.Run(context.Background(), g, nil)
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "weft_runs_total")
	assert.Contains(t, names, "weft_node_executions_total")
	assert.Contains(t, names, "weft_run_duration_seconds")
}

func TestMetrics_LabelsReflectOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	eng := weft.New(weft.WithLifecycleHooks(metrics.Hooks()))

	b := dsl.New("happy")
	b.Add("only", func(_ context.Context, _ weft.Snapshot) (weft.Delta, error) {
		return nil, nil
	}).Then(weft.End)
	g, err := b.Build()
	require.NoError(t, err)

	_, err = eng.Run(context.Background(), g, nil)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "weft_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChain_FansOutToAllHookSets(t *testing.T) {
	var first, second int
	chained := observability.Chain(
		weft.LifecycleHooks{OnRunEnd: func(_ context.Context, _ *weft.RunEvent) { first++ }},
		weft.LifecycleHooks{OnRunEnd: func(_ context.Context, _ *weft.RunEvent) { second++ }},
	)

	chained.OnRunEnd(context.Background(), &weft.RunEvent{})
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}
