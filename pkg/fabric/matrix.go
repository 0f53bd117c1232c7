package fabric

import (
	"github.com/matzehuels/xbpar/pkg/graph"
	"github.com/matzehuels/xbpar/pkg/par"
)

var (
	_ par.Fabric    = Matrix{}
	_ par.Congester = Matrix{}
	_ par.Locality  = Matrix{}
)

// DefaultMatrixKey is the node metadata key holding the routing matrix index.
const DefaultMatrixKey = "matrix"

// Matrix models general routing matrices. Nodes carry their matrix index in
// Meta[Key]. Any output reaches any input when both nodes have an index.
// Signals between different matrices consume cross connections; each
// direction offers CrossCapacity of them and the overflow is reported as
// congestion. Nodes without an index fall back to [par.Direct].
type Matrix struct {
	Key           string // defaults to DefaultMatrixKey
	CrossCapacity int
}

func (m Matrix) key() string {
	if m.Key == "" {
		return DefaultMatrixKey
	}
	return m.Key
}

// Index returns the matrix index of n, accepting the numeric types produced
// by Go code and by JSON or YAML decoding.
func (m Matrix) Index(n *graph.Node) (int, bool) {
	switch v := n.Meta[m.key()].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func (m Matrix) indices(physical *graph.Graph, a, b graph.NodeID) (int, int, bool) {
	an, ok := physical.Node(a)
	if !ok {
		return 0, 0, false
	}
	bn, ok := physical.Node(b)
	if !ok {
		return 0, 0, false
	}
	ma, okA := m.Index(an)
	mb, okB := m.Index(bn)
	return ma, mb, okA && okB
}

// Reachable implements [par.Fabric].
func (m Matrix) Reachable(physical *graph.Graph, src graph.NodeID, srcPort string, dst graph.NodeID, dstPort string) bool {
	if _, _, ok := m.indices(physical, src, dst); ok {
		return true
	}
	return par.Direct{}.Reachable(physical, src, srcPort, dst, dstPort)
}

// crossing identifies one signal leaving a matrix. Fan-out of the same
// output into the same destination matrix shares a single connection.
type crossing struct {
	src      graph.NodeID
	port     string
	from, to int
}

// Crossings returns the number of distinct signals per (from, to) matrix
// pair in the current placement.
func (m Matrix) Crossings(mating *graph.Mating) map[[2]int]int {
	physical := mating.Physical()
	seen := make(map[crossing]bool)
	counts := make(map[[2]int]int)
	logical := mating.Logical()
	for i := range logical.EdgeCount() {
		e := logical.Edge(graph.EdgeID(i))
		ps, pd := mating.PhysicalOf(e.From), mating.PhysicalOf(e.To)
		if ps == graph.None || pd == graph.None {
			continue
		}
		ms, md, ok := m.indices(physical, ps, pd)
		if !ok || ms == md {
			continue
		}
		c := crossing{src: ps, port: e.FromPort, from: ms, to: md}
		if seen[c] {
			continue
		}
		seen[c] = true
		counts[[2]int{ms, md}]++
	}
	return counts
}

// Congestion implements [par.Congester]: the number of crossing signals
// beyond CrossCapacity, summed over directions.
func (m Matrix) Congestion(mating *graph.Mating) int {
	over := 0
	for _, n := range m.Crossings(mating) {
		if n > m.CrossCapacity {
			over += n - m.CrossCapacity
		}
	}
	return over
}

// Distance implements [par.Locality]: 0 within a matrix, 1 across, and -1
// when either node has no matrix index.
func (m Matrix) Distance(physical *graph.Graph, a, b graph.NodeID) int {
	ma, mb, ok := m.indices(physical, a, b)
	switch {
	case !ok:
		return -1
	case ma == mb:
		return 0
	default:
		return 1
	}
}
