package runtime_test

import (
	"context"
	"testing"

	"github.com/arbored/weft/internal/runtime"
	"github.com/arbored/weft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(name string, deps ...string) domain.Node {
	return domain.Node{
		Name:      name,
		DependsOn: deps,
		Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
			return nil, nil
		},
	}
}

func TestValidate_TwoNodeCycle(t *testing.T) {
	g, err := domain.NewGraph("cyclic",
		[]domain.Node{noop("a"), noop("b", "a", "c"), noop("c", "b")},
		[]domain.Edge{{From: "a", To: domain.End}},
		"a")
	require.NoError(t, err)

	err = runtime.Validate(g)
	var cycle *domain.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"b", "c"}, cycle.Nodes)
}

func TestValidate_EntryWithDependencies(t *testing.T) {
	g, err := domain.NewGraph("bad-entry",
		[]domain.Node{noop("a"), noop("b", "a")},
		[]domain.Edge{{From: "b", To: domain.End}},
		"b")
	require.NoError(t, err)

	var cycle *domain.CycleError
	require.ErrorAs(t, runtime.Validate(g), &cycle)
	assert.Contains(t, cycle.Nodes, "b")
}

func TestValidate_NodeWithoutPathToEnd(t *testing.T) {
	g, err := domain.NewGraph("dangling",
		[]domain.Node{noop("a"), noop("b", "a")},
		[]domain.Edge{{From: "a", To: domain.End}},
		"a")
	require.NoError(t, err)

	var dangling *domain.UnreachableEndError
	require.ErrorAs(t, runtime.Validate(g), &dangling)
	assert.Equal(t, "b", dangling.Node)
}

func TestValidate_UnreachableNode(t *testing.T) {
	g, err := domain.NewGraph("island",
		[]domain.Node{noop("a"), noop("orphan")},
		[]domain.Edge{{From: "a", To: domain.End}, {From: "orphan", To: domain.End}},
		"a")
	require.NoError(t, err)

	var unreachable *domain.UnreachableNodeError
	require.ErrorAs(t, runtime.Validate(g), &unreachable)
	assert.Equal(t, "orphan", unreachable.Node)
}

func TestValidate_Idempotent(t *testing.T) {
	g, err := domain.NewGraph("diamond",
		[]domain.Node{noop("a"), noop("b", "a"), noop("c", "a"), noop("d", "b", "c")},
		[]domain.Edge{{From: "d", To: domain.End}},
		"a")
	require.NoError(t, err)

	require.NoError(t, runtime.Validate(g))
	require.NoError(t, runtime.Validate(g))
}

func TestValidateOwnership_Conflict(t *testing.T) {
	b := noop("b", "a")
	b.Produces = []string{"price"}
	c := noop("c", "a")
	c.Produces = []string{"price"}

	g, err := domain.NewGraph("conflict",
		[]domain.Node{noop("a"), b, c},
		[]domain.Edge{{From: "b", To: domain.End}, {From: "c", To: domain.End}},
		"a")
	require.NoError(t, err)

	var conflict *domain.FieldConflictError
	require.ErrorAs(t, runtime.ValidateOwnership(g), &conflict)
	assert.Equal(t, "price", conflict.Field)
	assert.ElementsMatch(t, []string{"b", "c"}, conflict.Nodes)
}

func TestValidateOwnership_NoDeclarationsPass(t *testing.T) {
	g, err := domain.NewGraph("plain",
		[]domain.Node{noop("a"), noop("b", "a")},
		[]domain.Edge{{From: "b", To: domain.End}},
		"a")
	require.NoError(t, err)

	assert.NoError(t, runtime.ValidateOwnership(g))
}
