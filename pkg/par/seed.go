package par

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/matzehuels/xbpar/pkg/graph"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// Seed builds the initial placement and moves the engine to Seeded.
//
// Pinned nodes are placed first, then the remaining logical nodes in
// descending degree order (ties in insertion order). Each node takes the
// first free compatible site, or the closest free one when the fabric
// implements [Locality]. A node left without a free site triggers an
// augmenting-path search that relocates earlier nodes to make room; only
// when that fails does Seed return a [*SeedError].
//
// Seed runs [Engine.Check] first if it has not been called.
func (e *Engine) Seed() error {
	switch {
	case e.state == Failed:
		return e.err
	case e.state != Unseeded:
		return perrors.New(perrors.ErrCodeInternal, "seed: engine is already %s", e.state)
	}
	e.start = time.Now()
	if !e.checked {
		if err := e.Check(); err != nil {
			return err
		}
	}

	for _, l := range slices.Sorted(maps.Keys(e.cfg.Constraints)) {
		if err := e.mating.Mate(l, e.cfg.Constraints[l]); err != nil {
			return e.fail(err)
		}
	}

	locality, _ := e.cfg.Fabric.(Locality)
	for _, l := range e.seedOrder() {
		n, _ := e.logical.Node(l)
		if p := e.firstFit(n, locality); p != graph.None {
			_ = e.mating.Mate(l, p)
			continue
		}
		if !e.augment(l, make(map[graph.NodeID]bool)) {
			e.mating.Reset()
			return e.fail(&SeedError{
				Node:      l,
				NodeName:  n.DisplayName(),
				Label:     n.Label,
				LabelName: e.logical.LabelName(n.Label),
			})
		}
	}

	e.cost = e.eval.Cost()
	e.best = e.cost
	e.bestSnap = e.mating.Snapshot()
	e.focusDirty = true
	e.state = Seeded
	return nil
}

// seedOrder returns the unpinned logical nodes by descending degree.
func (e *Engine) seedOrder() []graph.NodeID {
	order := slices.Clone(e.movable)
	slices.SortStableFunc(order, func(a, b graph.NodeID) int {
		return cmp.Compare(e.logical.Degree(b), e.logical.Degree(a))
	})
	return order
}

// firstFit returns a free compatible site for n, or graph.None. Without a
// locality metric it is the first free candidate in insertion order. With
// one it is the free candidate with the smallest summed distance to the
// sites of n's already placed neighbours, ties in insertion order.
func (e *Engine) firstFit(n *graph.Node, locality Locality) graph.NodeID {
	var sites []graph.NodeID
	if locality != nil {
		for edge := range e.logical.EdgesOf(n.ID) {
			if p := e.mating.PhysicalOf(edge.Other(n.ID)); p != graph.None {
				sites = append(sites, p)
			}
		}
	}

	best, bestDist := graph.None, 0
	for _, p := range e.compat.Candidates(n.Label) {
		if e.mating.LogicalOf(p) != graph.None {
			continue
		}
		if len(sites) == 0 {
			return p
		}
		d := 0
		for _, s := range sites {
			d += e.distance(locality, p, s)
		}
		if best == graph.None || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// distance treats unreachable pairs as farther than any reachable pair.
func (e *Engine) distance(locality Locality, a, b graph.NodeID) int {
	if d := locality.Distance(e.physical, a, b); d >= 0 {
		return d
	}
	return e.physical.NodeCount()
}

// augment looks for an augmenting path from logical node l in the
// compatibility bipartite graph: a chain of relocations ending at a free
// site. Pinned nodes are never relocated. visited holds physical nodes
// already explored on this search.
func (e *Engine) augment(l graph.NodeID, visited map[graph.NodeID]bool) bool {
	n, _ := e.logical.Node(l)
	cands := e.compat.Candidates(n.Label)
	for _, p := range cands {
		if visited[p] {
			continue
		}
		if e.mating.LogicalOf(p) == graph.None {
			_ = e.mating.Mate(l, p)
			return true
		}
	}
	for _, p := range cands {
		if visited[p] {
			continue
		}
		visited[p] = true
		y := e.mating.LogicalOf(p)
		if e.pinned[y] {
			continue
		}
		// Free p, then try to re-home y elsewhere. Restore on failure.
		e.mating.Unmate(y)
		if e.augment(y, visited) {
			_ = e.mating.Mate(l, p)
			return true
		}
		_ = e.mating.Mate(y, p)
	}
	return false
}
