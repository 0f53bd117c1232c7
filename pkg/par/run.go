package par

import (
	"context"

	"github.com/matzehuels/xbpar/pkg/graph"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// Run places logical onto physical: Check, Seed, then Improve until the
// engine is terminal. Capacity, seeding and configuration problems are
// returned as errors. An Exhausted run is a result, not an error; see
// [Result.Err].
//
// On return both graphs carry the final mating.
func Run(logical, physical *graph.Graph, cfg Config) (*Result, error) {
	return RunContext(context.Background(), logical, physical, cfg)
}

// RunContext is [Run] with cancellation. The context is checked between
// batches of ProgressInterval iterations; a cancelled run returns ctx.Err()
// and leaves the graphs unmated.
func RunContext(ctx context.Context, logical, physical *graph.Graph, cfg Config) (*Result, error) {
	e, err := New(logical, physical, cfg)
	if err != nil {
		return nil, err
	}
	if err := e.Check(); err != nil {
		return nil, err
	}
	if err := e.Seed(); err != nil {
		return nil, err
	}
	for !e.state.Terminal() {
		if err := ctx.Err(); err != nil {
			e.mating.Reset()
			return nil, err
		}
		e.Improve(e.cfg.ProgressInterval)
	}
	return e.Result(), nil
}

// Apply mates the graphs according to a known assignment and scores it
// without searching. It is used to replay cached placements and to verify
// placements produced elsewhere. Every pair must be label compatible and no
// node may appear twice (INVALID_INPUT).
func Apply(logical, physical *graph.Graph, cfg Config, pairs []Assignment) (*Result, error) {
	e, err := New(logical, physical, cfg)
	if err != nil {
		return nil, err
	}
	seenL := make(map[graph.NodeID]bool, len(pairs))
	for _, a := range pairs {
		if seenL[a.Logical] {
			e.mating.Reset()
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "logical node %d assigned twice", a.Logical)
		}
		seenL[a.Logical] = true
		if e.mating.LogicalOf(a.Physical) != graph.None {
			e.mating.Reset()
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "physical node %d assigned twice", a.Physical)
		}
		if !e.eval.Legal(a.Physical, a.Logical) {
			e.mating.Reset()
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "logical node %d cannot be hosted by physical node %d", a.Logical, a.Physical)
		}
		if err := e.mating.Mate(a.Logical, a.Physical); err != nil {
			e.mating.Reset()
			return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "apply assignment")
		}
	}
	e.checked = true
	e.cost = e.eval.Cost()
	e.best = e.cost
	e.state = Exhausted
	if e.cost == 0 && e.mating.Count() == logical.NodeCount() {
		e.state = Converged
	}
	return e.Result(), nil
}
