package weft_test

import (
	"context"
	"errors"
	"testing"

	"github.com/arbored/weft"
	"github.com/arbored/weft/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPipeline(t *testing.T) *weft.Graph {
	t.Helper()

	b := dsl.New("pipeline")
	b.Add("fetch", func(_ context.Context, _ weft.Snapshot) (weft.Delta, error) {
		return weft.Delta{"raw": []int{3, 1, 2}}, nil
	})
	b.Add("count", func(_ context.Context, snap weft.Snapshot) (weft.Delta, error) {
		return weft.Delta{"count": len(snap["raw"].([]int))}, nil
	}).After("fetch").Then(weft.End)

	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestEngine_RunPipeline(t *testing.T) {
	final, err := weft.New().Run(context.Background(), buildPipeline(t), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, final["count"])
}

func TestEngine_InitialStateFlowsThrough(t *testing.T) {
	b := dsl.New("echo")
	b.Add("shout", func(_ context.Context, snap weft.Snapshot) (weft.Delta, error) {
		return weft.Delta{"echo": snap["word"]}, nil
	}).Then(weft.End)
	g, err := b.Build()
	require.NoError(t, err)

	final, err := weft.New().Run(context.Background(), g, map[string]any{"word": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", final["echo"])
}

func TestEngine_FailureSurfacesPartialState(t *testing.T) {
	boom := errors.New("upstream unavailable")

	b := dsl.New("flaky")
	b.Add("seed", func(_ context.Context, _ weft.Snapshot) (weft.Delta, error) {
		return weft.Delta{"seeded": true}, nil
	})
	b.Add("explode", func(_ context.Context, _ weft.Snapshot) (weft.Delta, error) {
		return nil, boom
	}).After("seed").Then(weft.End)
	g, err := b.Build()
	require.NoError(t, err)

	_, err = weft.New().Run(context.Background(), g, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var wfErr *weft.WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, "explode", wfErr.Node)
	assert.Equal(t, true, wfErr.Partial["seeded"])
}

func TestEngine_HooksObserveRun(t *testing.T) {
	seen := make(chan string, 16)
	eng := weft.New(weft.WithLifecycleHooks(weft.LifecycleHooks{
		OnNodeFinish: func(_ context.Context, ev *weft.NodeEvent) {
			seen <- ev.Node
		},
	}))

	_, err := eng.Run(context.Background(), buildPipeline(t), nil)
	require.NoError(t, err)
	close(seen)

	var nodes []string
	for n := range seen {
		nodes = append(nodes, n)
	}
	assert.ElementsMatch(t, []string{"fetch", "count"}, nodes)
}

func TestValidate_Standalone(t *testing.T) {
	g := buildPipeline(t)
	assert.NoError(t, weft.Validate(g))
}
