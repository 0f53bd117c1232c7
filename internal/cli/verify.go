package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	xbio "github.com/matzehuels/xbpar/pkg/io"
	"github.com/matzehuels/xbpar/pkg/pipeline"
)

// verifyCommand creates the verify command, which scores a saved report
// against the current inputs.
func (c *CLI) verifyCommand() *cobra.Command {
	var (
		flags     designFlags
		netlist   string
		showTable bool
	)

	cmd := &cobra.Command{
		Use:   "verify [report.json]",
		Short: "Check a saved placement against its inputs",
		Long: `Replay a placement report onto the netlist and device and score it again.

Fails when a placed node or site no longer exists, when a placement breaks a
label or pin rule, and when the replayed placement leaves edges unrouted.`,
		Example: `  xbpar verify blinky.placement.json --netlist blinky.json -d slg46620v`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, netlist)
			if err != nil {
				return err
			}
			report, err := xbio.ImportReport(args[0])
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(nil, nil, c.Logger)
			res, err := runner.Verify(cmd.Context(), opts, report)
			if err != nil {
				return err
			}

			printReportSummary(res.Report)
			if showTable {
				printNewline()
				fmt.Println(placementTable(res.Report))
			}
			printNewline()
			if res.Report.Cost != report.Cost {
				printWarning("Cost is %d, the report says %d", res.Report.Cost, report.Cost)
			}
			if err := res.Placement.Err(); err != nil {
				printError("Placement does not route")
				return err
			}
			printSuccess("Placement verified")
			return nil
		},
	}

	flags.registerInputs(cmd)
	cmd.Flags().StringVarP(&netlist, "netlist", "n", "", "netlist the report was made for")
	cmd.Flags().BoolVar(&showTable, "table", false, "print the placement table")
	return cmd
}
