package par

import (
	"math"
	"time"

	"github.com/matzehuels/xbpar/pkg/graph"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// Default configuration values.
const (
	DefaultMaxIterations      = 50000
	DefaultMaxTime            = 30 * time.Second
	DefaultSeed               = 42
	DefaultInitialTemperature = 10.0
	DefaultDecay              = 0.999
	DefaultStallLimit         = 20000
	DefaultFocusBias          = 0.75
	DefaultUnroutableWeight   = 10
	DefaultCongestionWeight   = 1
	DefaultProgressInterval   = 1000

	// MaxSeeds bounds the seeds accepted by [RunParallel].
	MaxSeeds = 64
)

// Config controls a placement run.
//
// Zero values of MaxIterations, InitialTemperature, Decay, UnroutableWeight,
// CongestionWeight, ProgressInterval and Fabric are replaced by defaults.
// Zero is meaningful for the rest: Seed 0 is a valid seed, FocusBias 0 picks
// nodes uniformly, and StallLimit 0 or MaxTime 0 disable that budget.
type Config struct {
	// MaxIterations bounds the number of improvement iterations.
	MaxIterations int
	// MaxTime bounds the wall-clock time of seeding plus improvement.
	// A run ended by MaxTime is not reproducible.
	MaxTime time.Duration
	// Seed initialises the random generator.
	Seed uint64

	// InitialTemperature is the annealing temperature at iteration 0.
	InitialTemperature float64
	// Decay multiplies the temperature once per iteration; 0 < Decay <= 1.
	Decay float64
	// StallLimit ends the run after this many iterations without a new best.
	StallLimit int
	// FocusBias is the probability of picking a node from the set touching
	// unsatisfied edges instead of any movable node.
	FocusBias float64

	// UnroutableWeight is the cost of one unsatisfied logical edge.
	UnroutableWeight int
	// CongestionWeight multiplies the fabric's congestion figure.
	CongestionWeight int

	// Fabric decides logical edge routability. Nil means [Direct].
	Fabric Fabric

	// Constraints pins logical nodes to physical nodes. Pinned nodes are
	// placed first and never moved.
	Constraints map[graph.NodeID]graph.NodeID

	// Progress, if set, is called every ProgressInterval iterations and
	// whenever the best cost improves.
	Progress         func(Progress)
	ProgressInterval int

	// Trace, if set, receives every scored proposal.
	Trace func(MoveEvent)

	// Parallelism bounds the concurrent runs of [RunParallel], and with it
	// the graph clones alive at once. Zero means runtime.GOMAXPROCS(0).
	Parallelism int
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		MaxIterations:      DefaultMaxIterations,
		MaxTime:            DefaultMaxTime,
		Seed:               DefaultSeed,
		InitialTemperature: DefaultInitialTemperature,
		Decay:              DefaultDecay,
		StallLimit:         DefaultStallLimit,
		FocusBias:          DefaultFocusBias,
		UnroutableWeight:   DefaultUnroutableWeight,
		CongestionWeight:   DefaultCongestionWeight,
		ProgressInterval:   DefaultProgressInterval,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.InitialTemperature == 0 {
		c.InitialTemperature = DefaultInitialTemperature
	}
	if c.Decay == 0 {
		c.Decay = DefaultDecay
	}
	if c.UnroutableWeight == 0 {
		c.UnroutableWeight = DefaultUnroutableWeight
	}
	if c.CongestionWeight == 0 {
		c.CongestionWeight = DefaultCongestionWeight
	}
	if c.ProgressInterval == 0 {
		c.ProgressInterval = DefaultProgressInterval
	}
	if c.Fabric == nil {
		c.Fabric = Direct{}
	}
	return c
}

// Validate reports the first out-of-range field as INVALID_CONFIG.
// It checks the configuration as given, so call it after defaults are applied.
func (c Config) Validate() error {
	switch {
	case c.MaxIterations < 0:
		return invalidConfig("max iterations must be non-negative, got %d", c.MaxIterations)
	case c.MaxTime < 0:
		return invalidConfig("max time must be non-negative, got %v", c.MaxTime)
	case c.InitialTemperature < 0 || math.IsNaN(c.InitialTemperature) || math.IsInf(c.InitialTemperature, 0):
		return invalidConfig("initial temperature must be a finite non-negative number, got %v", c.InitialTemperature)
	case !(c.Decay > 0 && c.Decay <= 1):
		return invalidConfig("decay must be in (0, 1], got %v", c.Decay)
	case c.StallLimit < 0:
		return invalidConfig("stall limit must be non-negative, got %d", c.StallLimit)
	case !(c.FocusBias >= 0 && c.FocusBias <= 1):
		return invalidConfig("focus bias must be in [0, 1], got %v", c.FocusBias)
	case c.UnroutableWeight < 0:
		return invalidConfig("unroutable weight must be non-negative, got %d", c.UnroutableWeight)
	case c.CongestionWeight < 0:
		return invalidConfig("congestion weight must be non-negative, got %d", c.CongestionWeight)
	case c.ProgressInterval < 0:
		return invalidConfig("progress interval must be non-negative, got %d", c.ProgressInterval)
	case c.Parallelism < 0:
		return invalidConfig("parallelism must be non-negative, got %d", c.Parallelism)
	}
	return nil
}

func invalidConfig(format string, args ...any) error {
	return perrors.New(perrors.ErrCodeInvalidConfig, format, args...)
}
