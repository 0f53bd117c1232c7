package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/xbpar/pkg/par"
	"github.com/matzehuels/xbpar/pkg/pipeline"
	"github.com/matzehuels/xbpar/pkg/store"
)

// placeOpts holds the output flags of the place command.
type placeOpts struct {
	output    string
	formats   []string
	noCache   bool
	refresh   bool
	archive   bool
	tui       bool
	strict    bool
	showTable bool
	render    pipeline.RenderOptions
}

// placeCommand creates the place command.
func (c *CLI) placeCommand() *cobra.Command {
	var (
		flags      designFlags
		po         placeOpts
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "place [netlist]",
		Short: "Place a netlist onto a device",
		Long: `Place a netlist onto a device.

The netlist and the device are graphs in JSON or YAML. Instead of a device
file, a built-in part name such as SLG46620V can be given.

The placement report (-f json, the default) lists the device site of every
netlist node. Diagrams can be written at the same time (-f json,svg).

Results are cached locally; a repeated run with the same inputs and options
replays the cached placement. Use --refresh to search again.`,
		Example: `  xbpar place blinky.json -d slg46620v
  xbpar place blinky.yaml -d board.yaml --fabric hops:2 -s 1 -s 2 -s 3
  xbpar place blinky.json -d slg46620v --pin led=iob_4 -f json,svg --table`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var netlist string
			if len(args) == 1 {
				netlist = args[0]
			}
			opts, err := flags.options(cmd, netlist)
			if err != nil {
				return err
			}
			po.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(po.formats); err != nil {
				return err
			}
			return c.runPlace(cmd.Context(), opts, po)
		},
	}

	flags.registerInputs(cmd)
	flags.registerEngine(cmd)

	cmd.Flags().StringVarP(&po.output, "output", "o", "", "output file (single format) or base path (default: <netlist>.placement.<format>)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&po.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&po.refresh, "refresh", false, "ignore cached placements (the result is still cached)")
	cmd.Flags().BoolVar(&po.archive, "archive", false, "record the run in the local run archive")
	cmd.Flags().BoolVar(&po.tui, "tui", false, "show a live view of the search")
	cmd.Flags().BoolVar(&po.strict, "strict", false, "exit with an error unless the placement converged")
	cmd.Flags().BoolVar(&po.showTable, "table", false, "print the placement table")
	cmd.Flags().BoolVar(&po.render.ShowFabric, "show-fabric", false, "draw device edges in diagrams")
	cmd.Flags().BoolVar(&po.render.Detailed, "detailed", false, "show labels and site kinds in diagrams")

	return cmd
}

// runPlace executes the pipeline and writes its outputs.
func (c *CLI) runPlace(ctx context.Context, opts pipeline.Options, po placeOpts) error {
	if opts.Netlist == "" {
		return fmt.Errorf("no netlist given (pass it as argument or set netlist in --config)")
	}
	opts.Refresh = po.refresh || opts.Refresh

	runner, err := c.newRunner(po.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	if po.archive {
		st, err := store.NewFileStore("")
		if err != nil {
			return fmt.Errorf("open run archive: %w", err)
		}
		runner.Store = st
	}
	defer runner.Close()

	title := fmt.Sprintf("Placing %s onto %s", opts.Netlist, opts.Device)
	res, err := c.place(ctx, runner, opts, po.tui, title)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	artifacts, err := pipeline.Render(res, po.formats, po.render)
	if err != nil {
		return err
	}
	paths, err := writeArtifacts(artifacts, po.formats, opts.Netlist, po.output, ".placement")
	if err != nil {
		return err
	}

	if res.Placement.Converged() {
		printSuccess("Placement converged")
	} else {
		printWarning("Placement %s with %d unrouted edges", res.Placement.State, len(res.Placement.Unsatisfied))
	}
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats, res.CacheInfo.PlaceHit)
	printNewline()
	printReportSummary(res.Report)
	if res.RunID != "" {
		printKeyValue("Run", res.RunID)
	}
	if po.showTable {
		printNewline()
		fmt.Println(placementTable(res.Report))
	}
	if report, ok := reportPath(paths, po.formats); ok {
		printNewline()
		printNextStep("Render", fmt.Sprintf("%s render %s --netlist %s -d %s -f svg", appName, report, opts.Netlist, opts.Device))
	}

	if po.strict {
		return res.Placement.Err()
	}
	return nil
}

// place runs the search with the live view, a progress log or a spinner.
func (c *CLI) place(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, tui bool, title string) (*pipeline.Result, error) {
	if tui {
		res, err := runPlaceTUI(ctx, runner, opts, title)
		if err != nil {
			return nil, fmt.Errorf("place: %w", err)
		}
		return res, nil
	}

	opts.Logger = c.Logger
	if c.Logger.GetLevel() <= log.DebugLevel {
		budget := par.DefaultMaxTime
		if opts.MaxTime != nil {
			budget = opts.MaxTime.Duration
		}
		opts.Progress = newProgressLogger(c.Logger, budget).onProgress
		return runner.Execute(ctx, opts)
	}

	spinner := newSpinnerWithContext(ctx, title+"...")
	opts.Progress = func(p par.Progress) {
		spinner.SetMessage("%s... iteration %d, best cost %d", title, p.Iteration, p.BestCost)
	}
	// Info lines would fight with the spinner.
	opts.Logger = newLogger(os.Stderr, log.WarnLevel)

	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Placement failed")
		return nil, err
	}
	spinner.Stop()
	return res, nil
}

// reportPath returns the written JSON report, if any.
func reportPath(paths, formats []string) (string, bool) {
	for i, f := range formats {
		if f == pipeline.FormatJSON && i < len(paths) {
			return paths[i], true
		}
	}
	return "", false
}
