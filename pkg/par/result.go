package par

import (
	"time"

	"github.com/matzehuels/xbpar/pkg/graph"
)

// Assignment is one logical→physical mating pair.
type Assignment struct {
	Logical  graph.NodeID `json:"logical"`
	Physical graph.NodeID `json:"physical"`
}

// Stats counts what happened during the search.
type Stats struct {
	Accepted  int           // proposals kept
	Rejected  int           // scored proposals reverted
	Uphill    int           // accepted proposals with positive delta
	Discarded int           // illegal proposals, never scored
	Elapsed   time.Duration // seeding plus improvement
}

// Result is the outcome of a placement run.
type Result struct {
	State      State
	Assignment []Assignment // in logical node order
	Cost       int
	Score      Score
	Iterations int
	Seed       uint64
	// Unsatisfied lists the logical edges left unrouted. Empty when Converged.
	Unsatisfied []graph.Edge
	// Unplaced counts logical nodes without a physical mate.
	Unplaced int
	Stats    Stats
}

// Converged reports whether the placement is fully legal and routable.
func (r *Result) Converged() bool { return r.State == Converged }

// Err returns an [ExhaustedError] for an Exhausted result and nil
// otherwise. An exhausted result may have zero cost when nodes are left
// unplaced. Callers that accept best-effort placements can ignore it.
func (r *Result) Err() error {
	if r.State != Exhausted {
		return nil
	}
	return &ExhaustedError{Cost: r.Cost, Unsatisfied: len(r.Unsatisfied), Unplaced: r.Unplaced, Iterations: r.Iterations}
}

// Mapping returns the assignment as a map from logical to physical node.
func (r *Result) Mapping() map[graph.NodeID]graph.NodeID {
	m := make(map[graph.NodeID]graph.NodeID, len(r.Assignment))
	for _, a := range r.Assignment {
		m[a.Logical] = a.Physical
	}
	return m
}
