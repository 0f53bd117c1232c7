package par

import "github.com/matzehuels/xbpar/pkg/graph"

// Fabric decides whether the physical connectivity can carry a logical edge
// once its endpoints are mated. Implementations must be pure functions of
// their arguments; [RunParallel] calls them from several goroutines.
type Fabric interface {
	// Reachable reports whether a signal can travel from srcPort of physical
	// node src to dstPort of physical node dst.
	Reachable(physical *graph.Graph, src graph.NodeID, srcPort string, dst graph.NodeID, dstPort string) bool
}

// Congester is implemented by fabrics whose shared routing resources can be
// oversubscribed. Congestion returns a non-negative figure for the whole
// placement; zero means no shared resource is over capacity.
type Congester interface {
	Congestion(m *graph.Mating) int
}

// Locality is implemented by fabrics with a notion of physical distance.
// The seeder uses it to prefer nearby sites and the evaluator adds it to
// the penalty of an unsatisfied edge. A negative distance means unreachable.
type Locality interface {
	Distance(physical *graph.Graph, a, b graph.NodeID) int
}

// FabricFunc adapts a plain reachability predicate to [Fabric].
type FabricFunc func(physical *graph.Graph, src graph.NodeID, srcPort string, dst graph.NodeID, dstPort string) bool

// Reachable calls f.
func (f FabricFunc) Reachable(physical *graph.Graph, src graph.NodeID, srcPort string, dst graph.NodeID, dstPort string) bool {
	return f(physical, src, srcPort, dst, dstPort)
}

// Direct is the default fabric: an edge is routable exactly when the
// physical graph has an edge between the same port names.
type Direct struct{}

// Reachable implements [Fabric].
func (Direct) Reachable(physical *graph.Graph, src graph.NodeID, srcPort string, dst graph.NodeID, dstPort string) bool {
	return physical.HasEdge(src, srcPort, dst, dstPort)
}
