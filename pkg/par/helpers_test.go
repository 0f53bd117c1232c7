package par

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/xbpar/pkg/graph"
)

// netBuilder builds small graphs whose nodes all have IN0/IN1 inputs and an
// OUT output.
type netBuilder struct {
	t      *testing.T
	labels *graph.LabelTable
	g      *graph.Graph
}

func newBuilder(t *testing.T, labels *graph.LabelTable) *netBuilder {
	t.Helper()
	return &netBuilder{t: t, labels: labels, g: graph.New(labels)}
}

func (b *netBuilder) node(label string, alternates ...string) graph.NodeID {
	b.t.Helper()
	n := graph.Node{
		Label: b.labels.Intern(label),
		Name:  fmt.Sprintf("%s_%d", label, b.g.NodeCount()),
	}
	for _, a := range alternates {
		n.Alternates = append(n.Alternates, b.labels.Intern(a))
	}
	id, err := b.g.AddNode(n)
	require.NoError(b.t, err)
	require.NoError(b.t, b.g.AddPort(id, "IN0", graph.Input))
	require.NoError(b.t, b.g.AddPort(id, "IN1", graph.Input))
	require.NoError(b.t, b.g.AddPort(id, "OUT", graph.Output))
	return id
}

func (b *netBuilder) nodes(n int, label string, alternates ...string) []graph.NodeID {
	ids := make([]graph.NodeID, n)
	for i := range ids {
		ids[i] = b.node(label, alternates...)
	}
	return ids
}

func (b *netBuilder) wire(src, dst graph.NodeID) {
	b.t.Helper()
	_, err := b.g.Connect(src, "OUT", dst, "IN0")
	require.NoError(b.t, err)
}

// fullMesh returns a physical graph of n LUT2 sites where every site drives
// IN0 of every other site.
func fullMesh(t *testing.T, labels *graph.LabelTable, n int) *graph.Graph {
	b := newBuilder(t, labels)
	ids := b.nodes(n, "LUT2")
	for _, a := range ids {
		for _, c := range ids {
			if a != c {
				b.wire(a, c)
			}
		}
	}
	return b.g
}

// ring returns a physical graph of n LUT2 sites wired i -> i+1 mod n.
func ring(t *testing.T, labels *graph.LabelTable, n int) *graph.Graph {
	b := newBuilder(t, labels)
	ids := b.nodes(n, "LUT2")
	for i := range ids {
		b.wire(ids[i], ids[(i+1)%n])
	}
	return b.g
}

// chain returns a logical graph of n LUT2 nodes wired in sequence.
func chain(t *testing.T, labels *graph.LabelTable, n int) *graph.Graph {
	b := newBuilder(t, labels)
	ids := b.nodes(n, "LUT2")
	for i := 1; i < n; i++ {
		b.wire(ids[i-1], ids[i])
	}
	return b.g
}

// requireSymmetric asserts the mate references of both graphs agree.
func requireSymmetric(t *testing.T, logical, physical *graph.Graph) {
	t.Helper()
	require.NoError(t, graph.NewMating(logical, physical).Verify())
	for p := range physical.Nodes() {
		l, ok := p.Mate()
		if !ok {
			continue
		}
		ln, found := logical.Node(l)
		require.True(t, found, "physical %s mated to missing logical %d", p.DisplayName(), l)
		got, _ := ln.Mate()
		require.Equal(t, p.ID, got, "asymmetric mating at physical %s", p.DisplayName())
	}
}
