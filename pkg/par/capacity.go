package par

import (
	"strings"

	"github.com/matzehuels/xbpar/pkg/graph"
)

// capacityFlow assigns logical label demand to physical sites one unit at a
// time along augmenting paths. Labels whose candidate sets overlap compete
// for the shared sites, so a per-label count can pass while a pool of labels
// still lacks room.
type capacityFlow struct {
	compat *graph.Compatibility
	owner  map[graph.NodeID]graph.Label
	seen   map[graph.NodeID]bool
	// reached holds the labels visited by the last search.
	reached map[graph.Label]bool
}

func newCapacityFlow(compat *graph.Compatibility) *capacityFlow {
	return &capacityFlow{
		compat:  compat,
		owner:   make(map[graph.NodeID]graph.Label),
		seen:    make(map[graph.NodeID]bool),
		reached: make(map[graph.Label]bool),
	}
}

// place finds a site for one more node of label l, moving earlier units
// onto other candidates where needed.
func (f *capacityFlow) place(l graph.Label) bool {
	clear(f.seen)
	clear(f.reached)
	return f.augment(l)
}

func (f *capacityFlow) augment(l graph.Label) bool {
	f.reached[l] = true
	cands := f.compat.Candidates(l)
	for _, p := range cands {
		if _, taken := f.owner[p]; !taken {
			f.owner[p] = l
			return true
		}
	}
	for _, p := range cands {
		if f.seen[p] {
			continue
		}
		f.seen[p] = true
		if f.augment(f.owner[p]) {
			f.owner[p] = l
			return true
		}
	}
	return false
}

// poolShortfall returns a [CapacityError] for a set of labels whose nodes
// together outnumber the sites able to host any of them, or nil when every
// logical node can have its own compatible site.
func poolShortfall(logical *graph.Graph, compat *graph.Compatibility) *CapacityError {
	f := newCapacityFlow(compat)
	for _, l := range logical.Labels() {
		for range logical.LabelCount(l) {
			if f.place(l) {
				continue
			}
			// Every candidate of a reached label was seen and is held by a
			// reached label, with l still one site short.
			var names []string
			need := 0
			for _, r := range logical.Labels() {
				if f.reached[r] {
					names = append(names, logical.LabelName(r))
					need += logical.LabelCount(r)
				}
			}
			have := len(f.seen)
			return &CapacityError{Label: l, LabelName: strings.Join(names, "+"), Need: need, Have: have}
		}
	}
	return nil
}
