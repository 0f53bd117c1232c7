package fabric

import (
	"github.com/matzehuels/xbpar/pkg/graph"
	"github.com/matzehuels/xbpar/pkg/par"
)

var (
	_ par.Fabric   = Hops{}
	_ par.Locality = Hops{}
)

// Hops accepts a logical edge when the physical graph has a directed path of
// at most Max edges from the source port to the destination port. The first
// edge must leave srcPort and the last must enter dstPort; intermediate
// nodes are treated as pass-through. Max <= 1 behaves like [par.Direct].
type Hops struct {
	Max int
}

type hop struct {
	id    graph.NodeID
	depth int
}

// Reachable implements [par.Fabric] with a breadth-first search bounded by
// Max levels.
func (h Hops) Reachable(physical *graph.Graph, src graph.NodeID, srcPort string, dst graph.NodeID, dstPort string) bool {
	limit := max(h.Max, 1)
	visited := make(map[graph.NodeID]bool)
	var queue []hop

	for e := range physical.OutEdges(src) {
		if e.FromPort != srcPort {
			continue
		}
		if e.To == dst && e.ToPort == dstPort {
			return true
		}
		if limit > 1 && !visited[e.To] {
			visited[e.To] = true
			queue = append(queue, hop{e.To, 1})
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for e := range physical.OutEdges(cur.id) {
			if e.To == dst && e.ToPort == dstPort {
				return true
			}
			if next := cur.depth + 1; next < limit && !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, hop{e.To, next})
			}
		}
	}
	return false
}

// Distance implements [par.Locality]: the number of edges on the shortest
// path between a and b, ignoring direction and ports. It returns -1 when no
// path exists.
func (Hops) Distance(physical *graph.Graph, a, b graph.NodeID) int {
	if a == b {
		return 0
	}
	depth := map[graph.NodeID]int{a: 0}
	queue := []graph.NodeID{a}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for e := range physical.EdgesOf(u) {
			v := e.Other(u)
			if _, seen := depth[v]; seen {
				continue
			}
			depth[v] = depth[u] + 1
			if v == b {
				return depth[v]
			}
			queue = append(queue, v)
		}
	}
	return -1
}
