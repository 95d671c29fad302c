package domain_test

import (
	"context"
	"testing"

	"github.com/arbored/weft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(name string) domain.Node {
	return domain.Node{Name: name, Fn: func(_ context.Context, _ domain.Snapshot) (domain.Delta, error) {
		return nil, nil
	}}
}

func TestNewGraph_DuplicateNode(t *testing.T) {
	_, err := domain.NewGraph("dup",
		[]domain.Node{noop("a"), noop("a")},
		nil, "a")

	var dup *domain.DuplicateNodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Name)
}

func TestNewGraph_UnknownEdgeEndpoint(t *testing.T) {
	_, err := domain.NewGraph("bad-edge",
		[]domain.Node{noop("a")},
		[]domain.Edge{{From: "a", To: "ghost"}}, "a")

	var unknown *domain.UnknownNodeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.Name)
}

func TestNewGraph_UnknownEntry(t *testing.T) {
	_, err := domain.NewGraph("bad-entry", []domain.Node{noop("a")}, nil, "ghost")

	var unknown *domain.UnknownNodeError
	require.ErrorAs(t, err, &unknown)
}

func TestNewGraph_AdjacencyAndDedup(t *testing.T) {
	b := noop("b")
	b.DependsOn = []string{"a"}

	// "a -> b" declared both ways must still count as one dependency.
	g, err := domain.NewGraph("dedup",
		[]domain.Node{noop("a"), b},
		[]domain.Edge{{From: "a", To: "b"}, {From: "b", To: domain.End}},
		"a")
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, g.Dependencies("b"))
	assert.Equal(t, []string{"b"}, g.Dependents("a"))
	assert.Equal(t, []string{domain.End}, g.Dependents("b"))
	assert.Equal(t, "a", g.Entry())
	assert.Equal(t, []string{"a", "b"}, g.Nodes())
}
