package graph_test

import (
	"fmt"

	"github.com/matzehuels/xbpar/pkg/graph"
)

func ExampleGraph_basic() {
	// A two-LUT netlist: a.OUT drives b.IN0.
	labels := graph.NewLabelTable()
	lut := labels.Intern("LUT2")

	g := graph.New(labels)
	a := g.CreateNode(lut)
	b := g.CreateNode(lut)
	_ = g.AddPort(a, "OUT", graph.Output)
	_ = g.AddPort(b, "IN0", graph.Input)
	_, _ = g.Connect(a, "OUT", b, "IN0")

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Degree of a:", g.Degree(a))
	// Output:
	// Nodes: 2
	// Edges: 1
	// Degree of a: 1
}

func ExampleGraph_Connect_directionMismatch() {
	g := graph.New(nil)
	a := g.CreateNode(0)
	_ = g.AddPort(a, "IN0", graph.Input)
	_ = g.AddPort(a, "OUT", graph.Output)

	_, err := g.Connect(a, "IN0", a, "OUT")
	fmt.Println(err != nil)
	// Output:
	// true
}

func ExampleMating_Swap() {
	labels := graph.NewLabelTable("LUT2")
	logical, physical := graph.New(labels), graph.New(labels)
	x, y := logical.CreateNode(0), logical.CreateNode(0)
	p, q := physical.CreateNode(0), physical.CreateNode(0)

	m := graph.NewMating(logical, physical)
	_ = m.Mate(x, p)
	_ = m.Mate(y, q)
	_ = m.Swap(x, y)

	fmt.Println("x on", m.PhysicalOf(x))
	fmt.Println("y on", m.PhysicalOf(y))
	fmt.Println("symmetric:", m.Verify() == nil)
	// Output:
	// x on 1
	// y on 0
	// symmetric: true
}

func ExampleCompatibility() {
	// A LUT3 site can also host a LUT2.
	labels := graph.NewLabelTable("LUT2", "LUT3")
	logical := graph.New(labels)
	logical.CreateNode(0)

	physical := graph.New(labels)
	_, _ = physical.AddNode(graph.Node{Name: "lut3_0", Label: 1, Alternates: []graph.Label{0}})
	_, _ = physical.AddNode(graph.Node{Name: "lut2_0", Label: 0})

	compat := graph.NewCompatibility(logical, physical)
	for _, id := range compat.Candidates(0) {
		n, _ := physical.Node(id)
		fmt.Println(n.DisplayName())
	}
	// Output:
	// lut3_0
	// lut2_0
}
