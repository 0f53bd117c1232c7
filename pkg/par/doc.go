// Package par places a logical netlist onto a physical device graph.
//
// # Overview
//
// Placement mates every logical node with one label-compatible physical
// node so that each logical edge is realisable by the device's
// connectivity. The package has three parts:
//
//   - [Fabric] and its optional extensions [Congester] and [Locality]
//     describe fabric-specific routing rules. [Direct] is the default: a
//     logical edge is routable when a physical edge with the same port
//     names joins the mated nodes.
//   - [Evaluator] scores a placement. Cost is zero exactly when every
//     logical edge is satisfied and the fabric reports no congestion.
//   - [Engine] seeds a placement and improves it by simulated annealing
//     over move and swap proposals.
//
// # Basic Usage
//
//	res, err := par.Run(netlist, device, par.DefaultConfig())
//	if err != nil {
//	    // INFEASIBLE_CAPACITY, NO_LEGAL_SEED, INVALID_CONFIG, ...
//	}
//	if res.State == par.Exhausted {
//	    // Best effort: res.Unsatisfied lists the edges left unrouted.
//	}
//
// On return the input graphs carry the final mating, so a downstream
// consumer can iterate physical nodes and read each one's mate.
//
// # Engine States
//
// An [Engine] moves through Unseeded → Seeded → Improving and ends in
// Converged (zero cost), Exhausted (budget spent, best placement restored)
// or Failed (capacity pre-check or seeding failed). [Engine.Improve] can be
// called repeatedly and [Engine.Progress] polled between calls.
//
// # Determinism
//
// Randomness comes from a PCG generator seeded from [Config.Seed], and the
// annealing temperature decays with the iteration count. Identical graphs
// and configuration yield identical placements and iteration counts unless
// [Config.MaxTime] ends the run.
//
// # Concurrency
//
// An Engine is single-threaded. [RunParallel] runs independent engines over
// cloned graphs, one per seed, and keeps the best result.
package par
