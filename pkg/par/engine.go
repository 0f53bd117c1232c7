package par

import (
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/matzehuels/xbpar/pkg/graph"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// State is the engine's lifecycle stage.
type State int

const (
	Unseeded State = iota
	Seeded
	Improving
	Converged
	Exhausted
	Failed
)

var stateNames = [...]string{"unseeded", "seeded", "improving", "converged", "exhausted", "failed"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further iterations will run.
func (s State) Terminal() bool { return s >= Converged }

// MoveKind distinguishes the two perturbations.
type MoveKind int

const (
	Move MoveKind = iota // logical node to an unmated physical node
	Swap                 // exchange the physical mates of two logical nodes
)

func (k MoveKind) String() string {
	if k == Swap {
		return "swap"
	}
	return "move"
}

// MoveEvent describes one scored proposal, for tracing.
type MoveEvent struct {
	Iteration   int
	Kind        MoveKind
	Node        graph.NodeID // the picked logical node
	Other       graph.NodeID // swap partner, or graph.None
	From, To    graph.NodeID // physical mate of Node before and after
	Delta       int
	Accepted    bool
	Temperature float64
}

// Progress is a snapshot of the search.
type Progress struct {
	State       State
	Iteration   int
	Cost        int
	BestCost    int
	Temperature float64
	Accepted    int
	Rejected    int
	Elapsed     time.Duration
}

// Engine places a logical graph onto a physical graph.
//
// The engine owns the mate references of both graphs from New until the
// caller stops using it. It is not safe for concurrent use.
type Engine struct {
	cfg      Config
	logical  *graph.Graph
	physical *graph.Graph
	mating   *graph.Mating
	compat   *graph.Compatibility
	eval     *Evaluator
	rng      *rand.Rand

	state   State
	err     error
	checked bool

	pinned  []bool
	movable []graph.NodeID

	iter     int
	cost     int
	best     int
	bestSnap []graph.NodeID
	bestIter int

	focus      []graph.NodeID
	focusDirty bool

	stats Stats
	start time.Time
}

// New creates an Unseeded engine. It validates cfg (INVALID_CONFIG) and the
// pin constraints (INVALID_CONSTRAINT), and clears any existing mating on
// the two graphs.
func New(logical, physical *graph.Graph, cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := graph.NewMating(logical, physical)
	compat := graph.NewCompatibility(logical, physical)
	e := &Engine{
		cfg:      cfg,
		logical:  logical,
		physical: physical,
		mating:   m,
		compat:   compat,
		eval:     newEvaluator(m, compat, cfg),
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xdeadbeef)),
		pinned:   make([]bool, logical.NodeCount()),
	}
	if err := e.validateConstraints(); err != nil {
		return nil, err
	}
	for n := range logical.Nodes() {
		if !e.pinned[n.ID] {
			e.movable = append(e.movable, n.ID)
		}
	}
	m.Reset()
	return e, nil
}

func (e *Engine) validateConstraints() error {
	used := make(map[graph.NodeID]graph.NodeID, len(e.cfg.Constraints))
	for _, l := range slices.Sorted(maps.Keys(e.cfg.Constraints)) {
		p := e.cfg.Constraints[l]
		ln, ok := e.logical.Node(l)
		if !ok {
			return perrors.New(perrors.ErrCodeInvalidConstraint, "pin references logical node %d, which does not exist", l)
		}
		pn, ok := e.physical.Node(p)
		if !ok {
			return perrors.New(perrors.ErrCodeInvalidConstraint, "pin %s references physical node %d, which does not exist", ln.DisplayName(), p)
		}
		if !e.compat.Allows(ln.Label, p) {
			return perrors.New(perrors.ErrCodeInvalidConstraint, "pin %s (%s) onto %s (%s): labels are incompatible",
				ln.DisplayName(), e.logical.LabelName(ln.Label), pn.DisplayName(), e.physical.LabelName(pn.Label))
		}
		if other, dup := used[p]; dup {
			on, _ := e.logical.Node(other)
			return perrors.New(perrors.ErrCodeInvalidConstraint, "pins %s and %s both target %s",
				on.DisplayName(), ln.DisplayName(), pn.DisplayName())
		}
		used[p] = l
		e.pinned[l] = true
	}
	return nil
}

// State returns the current lifecycle stage.
func (e *Engine) State() State { return e.state }

// Err returns the error that moved the engine to Failed, if any.
func (e *Engine) Err() error { return e.err }

// Mating returns the mating the engine writes to.
func (e *Engine) Mating() *graph.Mating { return e.mating }

// Evaluator returns the evaluator bound to the engine's mating.
func (e *Engine) Evaluator() *Evaluator { return e.eval }

// Check is the feasibility pre-check: every logical label needs at least as
// many compatible physical nodes as it has logical nodes, and labels sharing
// sites must fit together. On failure the engine moves to Failed and a
// [*CapacityError] is returned. Constraints are not considered.
func (e *Engine) Check() error {
	if e.state == Failed {
		return e.err
	}
	for _, l := range e.logical.Labels() {
		need, have := e.logical.LabelCount(l), len(e.compat.Candidates(l))
		if need > have {
			return e.fail(&CapacityError{Label: l, LabelName: e.logical.LabelName(l), Need: need, Have: have})
		}
	}
	if ce := poolShortfall(e.logical, e.compat); ce != nil {
		return e.fail(ce)
	}
	e.checked = true
	return nil
}

func (e *Engine) fail(err error) error {
	e.state = Failed
	e.err = err
	return err
}

// Improve runs up to n iterations and returns the resulting state. It stops
// early once the state is terminal. An Unseeded or Failed engine is left
// unchanged.
func (e *Engine) Improve(n int) State {
	for range n {
		if e.state == Unseeded || e.state.Terminal() {
			break
		}
		e.step()
	}
	return e.state
}

// Step runs a single iteration.
func (e *Engine) Step() State { return e.Improve(1) }

// Temperature returns the annealing temperature of the next iteration.
func (e *Engine) Temperature() float64 {
	return e.cfg.InitialTemperature * math.Pow(e.cfg.Decay, float64(e.iter))
}

// Progress returns a snapshot of the search.
func (e *Engine) Progress() Progress {
	var elapsed time.Duration
	if !e.start.IsZero() {
		elapsed = time.Since(e.start)
	}
	if e.state.Terminal() {
		elapsed = e.stats.Elapsed
	}
	return Progress{
		State:       e.state,
		Iteration:   e.iter,
		Cost:        e.cost,
		BestCost:    e.best,
		Temperature: e.Temperature(),
		Accepted:    e.stats.Accepted,
		Rejected:    e.stats.Rejected,
		Elapsed:     elapsed,
	}
}

func (e *Engine) step() {
	if e.state == Seeded {
		e.state = Improving
	}
	if e.terminate() {
		return
	}

	temp := e.Temperature()
	e.iter++

	x := e.pick()
	e.propose(x, temp)

	if e.cfg.Progress != nil && e.iter%e.cfg.ProgressInterval == 0 {
		e.cfg.Progress(e.Progress())
	}
	e.terminate()
}

// terminate moves the engine to a terminal state if the cost is zero or a
// budget is spent. It reports whether the engine is terminal.
func (e *Engine) terminate() bool {
	switch {
	case e.cost == 0:
		e.finish(Converged)
	case e.iter >= e.cfg.MaxIterations,
		e.cfg.MaxTime > 0 && time.Since(e.start) >= e.cfg.MaxTime,
		e.cfg.StallLimit > 0 && e.iter-e.bestIter >= e.cfg.StallLimit,
		len(e.movable) == 0:
		e.finish(Exhausted)
	default:
		return false
	}
	return true
}

func (e *Engine) finish(s State) {
	if s == Exhausted && e.cost > e.best {
		// Snapshot was validated when taken.
		_ = e.mating.Restore(e.bestSnap)
		e.cost = e.best
	}
	e.state = s
	e.stats.Elapsed = time.Since(e.start)
	if e.cfg.Progress != nil {
		e.cfg.Progress(e.Progress())
	}
}

// pick selects the logical node to perturb: with probability FocusBias one
// touching an unsatisfied edge, otherwise any movable node.
func (e *Engine) pick() graph.NodeID {
	if e.cfg.FocusBias > 0 && e.rng.Float64() < e.cfg.FocusBias {
		if focus := e.focusSet(); len(focus) > 0 {
			return focus[e.rng.IntN(len(focus))]
		}
	}
	return e.movable[e.rng.IntN(len(e.movable))]
}

func (e *Engine) focusSet() []graph.NodeID {
	if e.focusDirty {
		e.focus = e.focus[:0]
		for _, id := range e.eval.Suboptimal() {
			if !e.pinned[id] {
				e.focus = append(e.focus, id)
			}
		}
		e.focusDirty = false
	}
	return e.focus
}

// propose draws a candidate site for x, scores the resulting move or swap
// and keeps or reverts it.
func (e *Engine) propose(x graph.NodeID, temp float64) {
	xn, _ := e.logical.Node(x)
	cur := e.mating.PhysicalOf(x)
	cands := e.compat.Candidates(xn.Label)
	ci := slices.Index(cands, cur)
	if len(cands) < 2 || ci < 0 {
		e.stats.Discarded++
		return
	}
	i := e.rng.IntN(len(cands) - 1)
	if i >= ci {
		i++
	}
	q := cands[i]
	y := e.mating.LogicalOf(q)

	kind, nodes := Move, []graph.NodeID{x}
	if y != graph.None {
		yn, _ := e.logical.Node(y)
		if e.pinned[y] || !e.compat.Allows(yn.Label, cur) {
			e.stats.Discarded++
			return
		}
		kind, nodes = Swap, []graph.NodeID{x, y}
	}

	before := e.eval.LocalCost(nodes...)
	congBefore := e.eval.Congestion()
	e.apply(kind, x, y, q)
	after := e.eval.LocalCost(nodes...)
	delta := after - before
	if e.eval.congester != nil {
		delta += e.cfg.CongestionWeight * (e.eval.Congestion() - congBefore)
	}

	accepted := delta <= 0
	if !accepted && temp > 0 {
		accepted = e.rng.Float64() < math.Exp(-float64(delta)/temp)
	}

	if accepted {
		e.stats.Accepted++
		if delta > 0 {
			e.stats.Uphill++
		}
		e.cost += delta
		e.focusDirty = true
		if e.cost < e.best {
			e.best = e.cost
			e.bestSnap = e.mating.Snapshot()
			e.bestIter = e.iter
			if e.cfg.Progress != nil {
				e.cfg.Progress(e.Progress())
			}
		}
	} else {
		e.stats.Rejected++
		e.revert(kind, x, y, cur)
	}

	if e.cfg.Trace != nil {
		other := graph.None
		if kind == Swap {
			other = y
		}
		e.cfg.Trace(MoveEvent{
			Iteration:   e.iter,
			Kind:        kind,
			Node:        x,
			Other:       other,
			From:        cur,
			To:          q,
			Delta:       delta,
			Accepted:    accepted,
			Temperature: temp,
		})
	}
}

// apply and revert only fail on broken invariants: every id comes from the
// engine's own graphs and x, y are mated when a swap is proposed.
func (e *Engine) apply(kind MoveKind, x, y, q graph.NodeID) {
	if kind == Swap {
		_ = e.mating.Swap(x, y)
		return
	}
	_ = e.mating.Move(x, q)
}

func (e *Engine) revert(kind MoveKind, x, y, from graph.NodeID) {
	if kind == Swap {
		_ = e.mating.Swap(x, y)
		return
	}
	_ = e.mating.Move(x, from)
}

// Result reports the current placement. It is meaningful once the engine is
// terminal; earlier calls describe an in-progress placement.
func (e *Engine) Result() *Result {
	score := e.eval.Score()
	r := &Result{
		State:       e.state,
		Cost:        score.Total,
		Score:       score,
		Iterations:  e.iter,
		Seed:        e.cfg.Seed,
		Unsatisfied: e.eval.Unsatisfied(),
		Stats:       e.stats,
	}
	for n := range e.logical.Nodes() {
		if p, ok := n.Mate(); ok {
			r.Assignment = append(r.Assignment, Assignment{Logical: n.ID, Physical: p})
		} else {
			r.Unplaced++
		}
	}
	return r
}
