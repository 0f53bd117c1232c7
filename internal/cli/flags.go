package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/xbpar/pkg/pipeline"
)

// designFlags are the input and engine flags shared by the commands that
// load a design. Flags override the values of a --config file.
type designFlags struct {
	config string
	device string
	fabric string
	pins   map[string]string

	seeds       []string
	maxIter     int
	maxTime     time.Duration
	temperature float64
	decay       float64
	stallLimit  int
	focusBias   float64
}

// registerInputs adds the flags naming the design.
func (f *designFlags) registerInputs(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "TOML options file")
	cmd.Flags().StringVarP(&f.device, "device", "d", "", "device file (JSON/YAML) or built-in part (e.g. SLG46620V)")
	cmd.Flags().StringVar(&f.fabric, "fabric", "", "routing fabric: direct, hops[:N] or matrix[:capacity] (default: from device)")
	cmd.Flags().StringToStringVar(&f.pins, "pin", nil, "pin a netlist node to a device node (name=site, repeatable)")
}

// registerEngine adds the annealing flags.
func (f *designFlags) registerEngine(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.seeds, "seed", "s", nil, "random seed; repeat to run seeds in parallel and keep the best")
	cmd.Flags().IntVar(&f.maxIter, "max-iterations", 0, "iteration budget per seed (0: engine default)")
	cmd.Flags().DurationVar(&f.maxTime, "max-time", 0, "wall-clock budget per seed; breaks reproducibility")
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0, "initial annealing temperature (0: engine default)")
	cmd.Flags().Float64Var(&f.decay, "decay", 0, "temperature decay per iteration, in (0, 1]")
	cmd.Flags().IntVar(&f.stallLimit, "stall-limit", 0, "iterations without improvement before reheating (0 disables)")
	cmd.Flags().Float64Var(&f.focusBias, "focus-bias", 0, "probability of moving a node on an unsatisfied edge")
}

// options builds the pipeline options for netlist.
func (f *designFlags) options(cmd *cobra.Command, netlist string) (pipeline.Options, error) {
	var opts pipeline.Options
	if f.config != "" {
		var err error
		if opts, err = pipeline.LoadOptions(f.config); err != nil {
			return opts, err
		}
	}
	if netlist != "" {
		opts.Netlist = netlist
	}

	changed := cmd.Flags().Changed
	if changed("device") {
		opts.Device = f.device
	}
	if changed("fabric") {
		opts.Fabric = f.fabric
	}
	if changed("pin") {
		if opts.Constraints == nil {
			opts.Constraints = make(map[string]string, len(f.pins))
		}
		for l, p := range f.pins {
			opts.Constraints[l] = p
		}
	}
	if changed("seed") {
		seeds, err := pipeline.ParseSeeds(f.seeds)
		if err != nil {
			return opts, err
		}
		opts.Seeds = seeds
	}
	if changed("max-iterations") {
		opts.MaxIterations = f.maxIter
	}
	if changed("max-time") {
		opts.MaxTime = &pipeline.Duration{Duration: f.maxTime}
	}
	if changed("temperature") {
		opts.InitialTemperature = f.temperature
	}
	if changed("decay") {
		opts.Decay = f.decay
	}
	if changed("stall-limit") {
		v := f.stallLimit
		opts.StallLimit = &v
	}
	if changed("focus-bias") {
		v := f.focusBias
		opts.FocusBias = &v
	}
	return opts, nil
}
