package runtime_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arbored/weft/internal/runtime"
	"github.com/arbored/weft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setter(name string, delta domain.Delta, deps ...string) domain.Node {
	return domain.Node{
		Name:      name,
		DependsOn: deps,
		Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
			return delta, nil
		},
	}
}

func mustGraph(t *testing.T, name string, nodes []domain.Node, edges []domain.Edge, entry string) *domain.Graph {
	t.Helper()
	g, err := domain.NewGraph(name, nodes, edges, entry)
	require.NoError(t, err)
	return g
}

func TestRun_EndToEndDiamond(t *testing.T) {
	// a sets x, b and c derive from it in parallel, d sums the branches.
	// The slow branch alternates so both completion orders are exercised.
	for _, slow := range []string{"b", "c"} {
		t.Run("slow-"+slow, func(t *testing.T) {
			delay := func(name string) time.Duration {
				if name == slow {
					return 30 * time.Millisecond
				}
				return 0
			}

			derive := func(name, out string, mult int) domain.Node {
				return domain.Node{
					Name:      name,
					DependsOn: []string{"a"},
					Fn: func(_ context.Context, snap domain.Snapshot) (domain.Delta, error) {
						time.Sleep(delay(name))
						x := snap["x"].(int)
						return domain.Delta{out: x * mult}, nil
					},
				}
			}
			sum := domain.Node{
				Name:      "d",
				DependsOn: []string{"b", "c"},
				Fn: func(_ context.Context, snap domain.Snapshot) (domain.Delta, error) {
					return domain.Delta{"sum": snap["y"].(int) + snap["z"].(int)}, nil
				},
			}

			g := mustGraph(t, "diamond",
				[]domain.Node{
					setter("a", domain.Delta{"x": 1}),
					derive("b", "y", 2),
					derive("c", "z", 2),
					sum,
				},
				[]domain.Edge{{From: "d", To: domain.End}},
				"a")

			final, err := runtime.NewEngine().Run(context.Background(), g, nil)
			require.NoError(t, err)
			assert.Equal(t, domain.Snapshot{"x": 1, "y": 2, "z": 2, "sum": 4}, final)
		})
	}
}

func TestRun_FanOutRunsConcurrently(t *testing.T) {
	// All three siblings rendezvous at a barrier. If the engine ran them
	// one at a time the barrier would never clear and the test would hang.
	var barrier sync.WaitGroup
	barrier.Add(3)

	sibling := func(name string) domain.Node {
		return domain.Node{
			Name:      name,
			DependsOn: []string{"start"},
			Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
				barrier.Done()
				barrier.Wait()
				return domain.Delta{name: true}, nil
			},
		}
	}

	g := mustGraph(t, "fan-out",
		[]domain.Node{
			setter("start", nil),
			sibling("one"), sibling("two"), sibling("three"),
		},
		[]domain.Edge{
			{From: "one", To: domain.End},
			{From: "two", To: domain.End},
			{From: "three", To: domain.End},
		},
		"start")

	final, err := runtime.NewEngine().Run(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Len(t, final, 3)
}

func TestRun_SiblingWritesInvisible(t *testing.T) {
	// b finishes long before c, but c's snapshot was taken at launch, so
	// b's output must not appear in it.
	var sawSibling atomic.Bool

	c := domain.Node{
		Name:      "c",
		DependsOn: []string{"a"},
		Fn: func(_ context.Context, snap domain.Snapshot) (domain.Delta, error) {
			time.Sleep(50 * time.Millisecond)
			_, ok := snap.Get("y")
			sawSibling.Store(ok)
			return domain.Delta{"z": 1}, nil
		},
	}

	g := mustGraph(t, "isolation",
		[]domain.Node{
			setter("a", domain.Delta{"x": 1}),
			setter("b", domain.Delta{"y": 1}, "a"),
			c,
		},
		[]domain.Edge{{From: "b", To: domain.End}, {From: "c", To: domain.End}},
		"a")

	_, err := runtime.NewEngine().Run(context.Background(), g, nil)
	require.NoError(t, err)
	assert.False(t, sawSibling.Load(), "sibling delta leaked into a launch-time snapshot")
}

func TestRun_FanInWaitsForAllDependencies(t *testing.T) {
	g := mustGraph(t, "fan-in",
		[]domain.Node{
			setter("start", nil),
			domain.Node{Name: "a", DependsOn: []string{"start"}, Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
				time.Sleep(40 * time.Millisecond)
				return domain.Delta{"a": 1}, nil
			}},
			setter("b", domain.Delta{"b": 2}, "start"),
			domain.Node{Name: "join", DependsOn: []string{"a", "b"}, Fn: func(_ context.Context, snap domain.Snapshot) (domain.Delta, error) {
				// Both inputs must be present at launch.
				return domain.Delta{"total": snap["a"].(int) + snap["b"].(int)}, nil
			}},
		},
		[]domain.Edge{{From: "join", To: domain.End}},
		"start")

	final, err := runtime.NewEngine().Run(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, final["total"])
}

func TestRun_FailureStopsDownstream(t *testing.T) {
	boom := errors.New("boom")
	var ranC atomic.Bool

	g := mustGraph(t, "failing",
		[]domain.Node{
			setter("a", domain.Delta{"x": 1}),
			domain.Node{Name: "b", DependsOn: []string{"a"}, Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
				return nil, boom
			}},
			domain.Node{Name: "c", DependsOn: []string{"b"}, Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
				ranC.Store(true)
				return nil, nil
			}},
		},
		[]domain.Edge{{From: "c", To: domain.End}},
		"a")

	final, err := runtime.NewEngine().Run(context.Background(), g, nil)
	assert.Nil(t, final)
	assert.False(t, ranC.Load(), "downstream node ran after its dependency failed")

	var wfErr *domain.WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, "b", wfErr.Node)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.Snapshot{"x": 1}, wfErr.Partial)
}

func TestRun_InFlightSiblingDrainsIntoPartial(t *testing.T) {
	boom := errors.New("boom")

	g := mustGraph(t, "drain",
		[]domain.Node{
			setter("start", nil),
			domain.Node{Name: "fast-fail", DependsOn: []string{"start"}, Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
				return nil, boom
			}},
			domain.Node{Name: "slow-ok", DependsOn: []string{"start"}, Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
				time.Sleep(30 * time.Millisecond)
				return domain.Delta{"done": true}, nil
			}},
		},
		[]domain.Edge{
			{From: "fast-fail", To: domain.End},
			{From: "slow-ok", To: domain.End},
		},
		"start")

	_, err := runtime.NewEngine().Run(context.Background(), g, nil)

	var wfErr *domain.WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, "fast-fail", wfErr.Node)
	assert.Equal(t, true, wfErr.Partial["done"], "in-flight sibling's result was dropped")
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	g := mustGraph(t, "cancelled",
		[]domain.Node{
			domain.Node{Name: "a", Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
				cancel()
				time.Sleep(20 * time.Millisecond)
				return domain.Delta{"x": 1}, nil
			}},
			setter("b", domain.Delta{"y": 2}, "a"),
		},
		[]domain.Edge{{From: "b", To: domain.End}},
		"a")

	_, err := runtime.NewEngine().Run(ctx, g, nil)

	var wfErr *domain.WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Empty(t, wfErr.Node)
	assert.ErrorIs(t, err, context.Canceled)
	// a completed before the scheduler noticed the cancellation; its delta
	// still lands in the partial state. b never launched.
	assert.Equal(t, domain.Snapshot{"x": 1}, wfErr.Partial)
}

func TestRun_MaxConcurrentIsRespected(t *testing.T) {
	var current, peak atomic.Int32

	worker := func(name string) domain.Node {
		return domain.Node{
			Name:      name,
			DependsOn: []string{"start"},
			Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				current.Add(-1)
				return nil, nil
			},
		}
	}

	g := mustGraph(t, "capped",
		[]domain.Node{
			setter("start", nil),
			worker("w1"), worker("w2"), worker("w3"), worker("w4"),
		},
		[]domain.Edge{
			{From: "w1", To: domain.End},
			{From: "w2", To: domain.End},
			{From: "w3", To: domain.End},
			{From: "w4", To: domain.End},
		},
		"start")

	_, err := runtime.NewEngine(runtime.WithMaxConcurrent(2)).Run(context.Background(), g, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_LifecycleHooksFire(t *testing.T) {
	var mu sync.Mutex
	starts := map[string]int{}
	finishes := map[string]domain.NodeStatus{}
	runStarts, runEnds := 0, 0

	hooks := domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, ev *domain.RunEvent) {
			mu.Lock()
			defer mu.Unlock()
			runStarts++
			assert.NotEmpty(t, ev.RunID)
		},
		OnNodeStart: func(_ context.Context, ev *domain.NodeEvent) {
			mu.Lock()
			defer mu.Unlock()
			starts[ev.Node]++
		},
		OnNodeFinish: func(_ context.Context, ev *domain.NodeEvent) {
			mu.Lock()
			defer mu.Unlock()
			finishes[ev.Node] = ev.Status
		},
		OnRunEnd: func(_ context.Context, ev *domain.RunEvent) {
			mu.Lock()
			defer mu.Unlock()
			runEnds++
			assert.NoError(t, ev.Err)
		},
	}

	g := mustGraph(t, "observed",
		[]domain.Node{setter("a", domain.Delta{"x": 1}), setter("b", nil, "a")},
		[]domain.Edge{{From: "b", To: domain.End}},
		"a")

	_, err := runtime.NewEngine(runtime.WithLifecycleHooks(hooks)).Run(context.Background(), g, nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, runStarts)
	assert.Equal(t, 1, runEnds)
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, starts)
	assert.Equal(t, domain.StatusCompleted, finishes["a"])
	assert.Equal(t, domain.StatusCompleted, finishes["b"])
}

func TestRun_OwnershipCheckEnforced(t *testing.T) {
	b := setter("b", domain.Delta{"out": 1}, "a")
	b.Produces = []string{"out"}
	c := setter("c", domain.Delta{"out": 2}, "a")
	c.Produces = []string{"out"}

	g := mustGraph(t, "conflicting",
		[]domain.Node{setter("a", nil), b, c},
		[]domain.Edge{{From: "b", To: domain.End}, {From: "c", To: domain.End}},
		"a")

	_, err := runtime.NewEngine().Run(context.Background(), g, nil)
	require.NoError(t, err, "conflict must be ignored when the check is off")

	_, err = runtime.NewEngine(runtime.WithOwnershipCheck(true)).Run(context.Background(), g, nil)
	var conflict *domain.FieldConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestRun_InvalidGraphRejectedBeforeExecution(t *testing.T) {
	var ran atomic.Bool

	g := mustGraph(t, "no-end",
		[]domain.Node{
			domain.Node{Name: "a", Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
				ran.Store(true)
				return nil, nil
			}},
		},
		nil,
		"a")

	_, err := runtime.NewEngine().Run(context.Background(), g, nil)
	var dangling *domain.UnreachableEndError
	require.ErrorAs(t, err, &dangling)
	assert.False(t, ran.Load())
}
