package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/xbpar/pkg/pipeline"
)

// checkCommand creates the check command, which runs the feasibility checks
// without searching.
func (c *CLI) checkCommand() *cobra.Command {
	var flags designFlags

	cmd := &cobra.Command{
		Use:   "check [netlist]",
		Short: "Check that a netlist fits a device",
		Long: `Load a netlist and a device and run the checks done before a search:
every label must have enough compatible sites, pins must name compatible
nodes and a legal starting placement must exist.

Prints the site usage per label.`,
		Example: `  xbpar check blinky.json -d slg46140v`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var netlist string
			if len(args) == 1 {
				netlist = args[0]
			}
			opts, err := flags.options(cmd, netlist)
			if err != nil {
				return err
			}
			if opts.Netlist == "" {
				return fmt.Errorf("no netlist given (pass it as argument or set netlist in --config)")
			}
			opts.Logger = c.Logger

			d, err := pipeline.Load(cmd.Context(), &opts)
			if err != nil {
				return err
			}

			printKeyValue("Netlist", fmt.Sprintf("%s (%d nodes, %d edges)", opts.Netlist, d.Netlist.NodeCount(), d.Netlist.EdgeCount()))
			printKeyValue("Device", fmt.Sprintf("%s (%d sites)", opts.Device, d.Device.NodeCount()))
			printKeyValue("Fabric", d.FabricName)
			printNewline()
			fmt.Println(usageTable(d.Utilization()))
			printNewline()

			if err := d.Check(&opts); err != nil {
				printError("Netlist does not fit")
				return err
			}
			printSuccess("Netlist fits")
			printNextStep("Place", fmt.Sprintf("%s place %s -d %s", appName, opts.Netlist, opts.Device))
			return nil
		},
	}

	flags.registerInputs(cmd)
	return cmd
}
