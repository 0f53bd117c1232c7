// Package pipeline ties loading, placement, caching and archiving together.
//
// The CLI and the HTTP server both go through a [Runner], so a placement
// requested either way follows the same steps:
//
//  1. Load: read the netlist and the device (a file or a built-in part),
//     build both graphs on a shared label table and pick the fabric
//  2. Place: replay a cached result, or run the engine for every seed and
//     keep the best
//  3. Archive: store the report in the run store, when one is configured
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts, err := pipeline.LoadOptions("xbpar.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opts.Netlist = "blinky.json"
//	res, err := runner.Execute(ctx, opts)
//
// Options can also be filled in directly; zero fields take defaults from
// [Options.SetDefaults].
package pipeline

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/xbpar/pkg/cache"
	"github.com/matzehuels/xbpar/pkg/par"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// DefaultSeeds is used when no seed is given.
var DefaultSeeds = []uint64{par.DefaultSeed}

// Duration is a time.Duration that reads "30s" style strings from TOML and
// JSON.
type Duration struct{ time.Duration }

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Options configures one placement run. Pointer fields distinguish "unset"
// from a meaningful zero.
type Options struct {
	// Inputs
	Netlist string `toml:"netlist" json:"netlist,omitempty"`
	Device  string `toml:"device" json:"device,omitempty"` // file path or built-in part name
	Fabric  string `toml:"fabric" json:"fabric,omitempty"` // direct, hops[:N] or matrix[:capacity]

	// Engine
	Seeds              []uint64  `toml:"seeds" json:"seeds,omitempty"`
	MaxIterations      int       `toml:"max_iterations" json:"max_iterations,omitempty"`
	MaxTime            *Duration `toml:"max_time" json:"max_time,omitempty"`
	InitialTemperature float64   `toml:"initial_temperature" json:"initial_temperature,omitempty"`
	Decay              float64   `toml:"decay" json:"decay,omitempty"`
	StallLimit         *int      `toml:"stall_limit" json:"stall_limit,omitempty"`
	FocusBias          *float64  `toml:"focus_bias" json:"focus_bias,omitempty"`
	UnroutableWeight   int       `toml:"unroutable_weight" json:"unroutable_weight,omitempty"`
	CongestionWeight   int       `toml:"congestion_weight" json:"congestion_weight,omitempty"`

	// Constraints pins logical node names to physical node names.
	Constraints map[string]string `toml:"constraints" json:"constraints,omitempty"`

	// Refresh skips the cache lookup. The result is still written back.
	Refresh bool `toml:"refresh" json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger        `toml:"-" json:"-"`
	Progress func(par.Progress) `toml:"-" json:"-"`
}

// LoadOptions reads options from a TOML file. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func LoadOptions(path string) (Options, error) {
	var opts Options
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "read options %s", path)
	}
	md, err := toml.Decode(string(data), &opts)
	if err != nil {
		return opts, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "parse options %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return opts, perrors.New(perrors.ErrCodeInvalidConfig, "%s: unknown option %q", path, undecoded[0].String())
	}
	return opts, nil
}

// SetDefaults fills unset fields from the engine defaults.
func (o *Options) SetDefaults() {
	if len(o.Seeds) == 0 {
		o.Seeds = append([]uint64(nil), DefaultSeeds...)
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = par.DefaultMaxIterations
	}
	if o.MaxTime == nil {
		o.MaxTime = &Duration{par.DefaultMaxTime}
	}
	if o.InitialTemperature == 0 {
		o.InitialTemperature = par.DefaultInitialTemperature
	}
	if o.Decay == 0 {
		o.Decay = par.DefaultDecay
	}
	if o.StallLimit == nil {
		v := par.DefaultStallLimit
		o.StallLimit = &v
	}
	if o.FocusBias == nil {
		v := par.DefaultFocusBias
		o.FocusBias = &v
	}
	if o.UnroutableWeight == 0 {
		o.UnroutableWeight = par.DefaultUnroutableWeight
	}
	if o.CongestionWeight == 0 {
		o.CongestionWeight = par.DefaultCongestionWeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks the options. Errors are
// INVALID_CONFIG.
func (o *Options) Validate() error {
	if o.Netlist == "" {
		return perrors.New(perrors.ErrCodeInvalidConfig, "netlist is required")
	}
	if o.Device == "" {
		return perrors.New(perrors.ErrCodeInvalidConfig, "device is required")
	}
	if _, err := ParseFabric(o.Fabric); err != nil {
		return err
	}
	o.SetDefaults()
	return o.validateEngine()
}

// validateEngine checks the search options shared by every entry point.
func (o *Options) validateEngine() error {
	if len(o.Seeds) > par.MaxSeeds {
		return perrors.New(perrors.ErrCodeInvalidConfig, "%d seeds exceed the limit of %d", len(o.Seeds), par.MaxSeeds)
	}
	return o.EngineConfig(0).Validate()
}

// EngineConfig returns the engine configuration for one seed. Fabric and
// Constraints are left for the caller, who knows the graphs.
func (o *Options) EngineConfig(seed uint64) par.Config {
	o.SetDefaults()
	return par.Config{
		MaxIterations:      o.MaxIterations,
		MaxTime:            o.MaxTime.Duration,
		Seed:               seed,
		InitialTemperature: o.InitialTemperature,
		Decay:              o.Decay,
		StallLimit:         *o.StallLimit,
		FocusBias:          *o.FocusBias,
		UnroutableWeight:   o.UnroutableWeight,
		CongestionWeight:   o.CongestionWeight,
		Progress:           o.Progress,
	}
}

// PlacementKeyOpts returns the cache key options. fabric is the canonical
// name of the fabric actually used.
func (o *Options) PlacementKeyOpts(fabric string) cache.PlacementKeyOpts {
	o.SetDefaults()
	return cache.PlacementKeyOpts{
		Seeds:              o.Seeds,
		MaxIterations:      o.MaxIterations,
		MaxTime:            o.MaxTime.Duration,
		InitialTemperature: o.InitialTemperature,
		Decay:              o.Decay,
		StallLimit:         *o.StallLimit,
		FocusBias:          *o.FocusBias,
		UnroutableWeight:   o.UnroutableWeight,
		CongestionWeight:   o.CongestionWeight,
		Fabric:             fabric,
		Constraints:        o.Constraints,
	}
}

// ParseSeeds parses decimal seeds as given on the command line.
func ParseSeeds(s []string) ([]uint64, error) {
	out := make([]uint64, 0, len(s))
	for _, v := range s {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "invalid seed %q", v)
		}
		out = append(out, n)
	}
	return out, nil
}
