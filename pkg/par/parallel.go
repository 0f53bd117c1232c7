package par

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/xbpar/pkg/graph"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// RunParallel runs one independent placement per seed, each on its own
// clone of the input graphs, and returns the best result: lowest cost, ties
// broken by position in seeds. The input graphs are then mated with the
// winning assignment.
//
// At most cfg.Parallelism runs, and their clones, are live at once; at most
// [MaxSeeds] seeds are accepted. cfg.Fabric is shared by all runs and must
// be safe for concurrent use. cfg.Progress and cfg.Trace are serialised.
// The first error, or the end of ctx, cancels the remaining runs and is
// returned.
func RunParallel(ctx context.Context, logical, physical *graph.Graph, cfg Config, seeds []uint64) (*Result, error) {
	switch {
	case len(seeds) == 0:
		return nil, perrors.New(perrors.ErrCodeInvalidConfig, "parallel run needs at least one seed")
	case len(seeds) > MaxSeeds:
		return nil, perrors.New(perrors.ErrCodeInvalidConfig, "%d seeds exceed the limit of %d", len(seeds), MaxSeeds)
	case cfg.Parallelism < 0:
		return nil, perrors.New(perrors.ErrCodeInvalidConfig, "parallelism must be non-negative, got %d", cfg.Parallelism)
	}
	limit := cfg.Parallelism
	if limit == 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var mu sync.Mutex
	if p := cfg.Progress; p != nil {
		cfg.Progress = func(pr Progress) {
			mu.Lock()
			defer mu.Unlock()
			p(pr)
		}
	}
	if t := cfg.Trace; t != nil {
		cfg.Trace = func(ev MoveEvent) {
			mu.Lock()
			defer mu.Unlock()
			t(ev)
		}
	}

	// Each run clones the inputs when it starts. Clone only reads them, and
	// the inputs are not mated until every run has finished.
	results := make([]*Result, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, seed := range seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c := cfg
			c.Seed = seed
			res, err := RunContext(ctx, logical.Clone(), physical.Clone(), c)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Cost < best.Cost {
			best = r
		}
	}

	m := graph.NewMating(logical, physical)
	m.Reset()
	for _, a := range best.Assignment {
		if err := m.Mate(a.Logical, a.Physical); err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "apply winning placement")
		}
	}
	return best, nil
}
