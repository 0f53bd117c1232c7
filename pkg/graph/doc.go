// Package graph provides the node/edge model shared by logical netlists and
// physical device graphs.
//
// # Overview
//
// Place-and-route works on two graphs built from the same primitives:
//
//   - The logical graph (netlist) describes what must be connected.
//   - The physical graph (device) describes which primitives and wires exist
//     on a specific chip.
//
// Both are [Graph] values: an ordered arena of [Node]s addressed by stable
// [NodeID] indices, plus an append-only list of directed [Edge]s between
// named ports. Insertion order is iteration order everywhere in this
// package, which gives the placer a deterministic tie-break.
//
// # Basic Usage
//
// Share one [LabelTable] between the two graphs so label values agree:
//
//	labels := graph.NewLabelTable()
//	lut := labels.Intern("LUT2")
//
//	netlist := graph.New(labels)
//	a := netlist.CreateNode(lut)
//	b := netlist.CreateNode(lut)
//	_ = netlist.AddPort(a, "OUT", graph.Output)
//	_ = netlist.AddPort(b, "IN0", graph.Input)
//	_, _ = netlist.Connect(a, "OUT", b, "IN0")
//
// [Graph.AddPort] rejects duplicate port names and [Graph.Connect] rejects
// edges that do not run from an output port to an input port. Both errors
// carry codes from the errors package so callers can branch on them.
//
// # Labels and Compatibility
//
// Every node has a primary [Label]. Physical nodes may list alternate labels
// they are also able to host (a LUT3 site can implement a LUT2). The
// [Compatibility] table is derived once from both graphs and answers which
// physical nodes may host a logical label. It is a hard legality rule.
//
// # Mating
//
// The current logical↔physical assignment lives on the nodes themselves as
// index cross-references. Only a [Mating] writes them, and it always updates
// both sides of a pair together, so a logical node mated to P implies P is
// mated to that logical node. Topology (nodes, ports, edges) never changes
// once placement starts.
//
// # Concurrency
//
// Graphs are not safe for concurrent mutation. Independent placement runs
// should each work on their own [Graph.Clone].
package graph
