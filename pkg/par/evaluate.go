package par

import (
	"iter"

	"github.com/matzehuels/xbpar/pkg/graph"
)

// Score is the breakdown of a placement's cost.
type Score struct {
	Unroutable int `json:"unroutable"` // number of unsatisfied logical edges
	Penalty    int `json:"penalty"`    // summed cost of those edges
	Congestion int `json:"congestion"` // raw fabric congestion figure
	Total      int `json:"total"`      // Penalty + CongestionWeight × Congestion
}

// Evaluator scores the current placement of a graph pair. It reads mate
// references and never changes them.
//
// Cost and legality are pure functions of the graphs, the mating and the
// fabric. An Evaluator is not safe for concurrent use.
type Evaluator struct {
	mating    *graph.Mating
	compat    *graph.Compatibility
	fabric    Fabric
	congester Congester
	locality  Locality

	unroutableWeight int
	congestionWeight int

	// per-call edge marks for LocalCost
	marks []uint32
	epoch uint32
}

// NewEvaluator builds an evaluator for m using the fabric and weights of cfg.
// Zero weights and a nil fabric are replaced by defaults.
func NewEvaluator(m *graph.Mating, cfg Config) *Evaluator {
	return newEvaluator(m, graph.NewCompatibility(m.Logical(), m.Physical()), cfg.withDefaults())
}

func newEvaluator(m *graph.Mating, compat *graph.Compatibility, cfg Config) *Evaluator {
	e := &Evaluator{
		mating:           m,
		compat:           compat,
		fabric:           cfg.Fabric,
		unroutableWeight: cfg.UnroutableWeight,
		congestionWeight: cfg.CongestionWeight,
		marks:            make([]uint32, m.Logical().EdgeCount()),
	}
	e.congester, _ = cfg.Fabric.(Congester)
	e.locality, _ = cfg.Fabric.(Locality)
	return e
}

// Compatibility returns the label table used by Legal.
func (e *Evaluator) Compatibility() *graph.Compatibility { return e.compat }

// EdgeSatisfied reports whether both endpoints of the logical edge are mated
// and the fabric can route between their physical mates.
func (e *Evaluator) EdgeSatisfied(edge graph.Edge) bool {
	src, dst := e.mating.PhysicalOf(edge.From), e.mating.PhysicalOf(edge.To)
	if src == graph.None || dst == graph.None {
		return false
	}
	return e.fabric.Reachable(e.mating.Physical(), src, edge.FromPort, dst, edge.ToPort)
}

// edgeCost is 0 for a satisfied edge. Otherwise it is the unroutable weight
// plus, when the fabric has a distance metric and both ends are placed, the
// distance between the physical mates.
func (e *Evaluator) edgeCost(edge graph.Edge) int {
	if e.EdgeSatisfied(edge) {
		return 0
	}
	cost := e.unroutableWeight
	if e.locality == nil {
		return cost
	}
	src, dst := e.mating.PhysicalOf(edge.From), e.mating.PhysicalOf(edge.To)
	if src == graph.None || dst == graph.None {
		return cost
	}
	if d := e.locality.Distance(e.mating.Physical(), src, dst); d > 0 {
		cost += d
	}
	return cost
}

// Congestion returns the fabric's congestion figure, or 0 if the fabric does
// not model shared resources.
func (e *Evaluator) Congestion() int {
	if e.congester == nil {
		return 0
	}
	return e.congester.Congestion(e.mating)
}

// Score evaluates the whole placement.
func (e *Evaluator) Score() Score {
	var s Score
	for edge := range e.edges() {
		if c := e.edgeCost(edge); c > 0 {
			s.Unroutable++
			s.Penalty += c
		}
	}
	s.Congestion = e.Congestion()
	s.Total = s.Penalty + e.congestionWeight*s.Congestion
	return s
}

// Cost returns Score().Total. It is never negative and is zero exactly when
// every logical edge is satisfied and nothing is congested.
func (e *Evaluator) Cost() int { return e.Score().Total }

// Legal reports whether logical node l may be mated with physical node p.
// It checks label compatibility only.
func (e *Evaluator) Legal(p, l graph.NodeID) bool {
	n, ok := e.mating.Logical().Node(l)
	return ok && e.compat.Allows(n.Label, p)
}

// LocalCost sums the cost of the logical edges incident to any of nodes,
// counting each edge once. Congestion is not included.
func (e *Evaluator) LocalCost(nodes ...graph.NodeID) int {
	e.epoch++
	if e.epoch == 0 {
		clear(e.marks)
		e.epoch = 1
	}
	logical := e.mating.Logical()
	cost := 0
	for _, id := range nodes {
		n, ok := logical.Node(id)
		if !ok {
			continue
		}
		for _, eid := range n.EdgeIDs() {
			if e.marks[eid] == e.epoch {
				continue
			}
			e.marks[eid] = e.epoch
			cost += e.edgeCost(logical.Edge(eid))
		}
	}
	return cost
}

// Unsatisfied returns the unsatisfied logical edges in insertion order.
func (e *Evaluator) Unsatisfied() []graph.Edge {
	var out []graph.Edge
	for edge := range e.edges() {
		if !e.EdgeSatisfied(edge) {
			out = append(out, edge)
		}
	}
	return out
}

// Suboptimal returns the logical nodes touching at least one unsatisfied
// edge, in insertion order.
func (e *Evaluator) Suboptimal() []graph.NodeID {
	logical := e.mating.Logical()
	bad := make([]bool, logical.NodeCount())
	for edge := range e.edges() {
		if !e.EdgeSatisfied(edge) {
			bad[edge.From] = true
			bad[edge.To] = true
		}
	}
	var out []graph.NodeID
	for id, b := range bad {
		if b {
			out = append(out, graph.NodeID(id))
		}
	}
	return out
}

func (e *Evaluator) edges() iter.Seq[graph.Edge] {
	logical := e.mating.Logical()
	return func(yield func(graph.Edge) bool) {
		for i := range logical.EdgeCount() {
			if !yield(logical.Edge(graph.EdgeID(i))) {
				return
			}
		}
	}
}
