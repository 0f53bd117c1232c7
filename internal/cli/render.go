package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	xbio "github.com/matzehuels/xbpar/pkg/io"
	"github.com/matzehuels/xbpar/pkg/pipeline"
)

// renderCommand creates the render command, which draws a saved report.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      designFlags
		netlist    string
		output     string
		formatsStr string
		ropts      = pipeline.RenderOptions{HideFree: true}
		allSites   bool
	)

	cmd := &cobra.Command{
		Use:   "render [report.json]",
		Short: "Draw a placement report",
		Long: `Draw a placement report as DOT, SVG, PNG or PDF.

The report is replayed onto the netlist and device it was made for, so the
diagram always reflects the current inputs. Device sites are grouped by
routing matrix when the fabric has one. Unrouted edges are drawn in red.

PNG and PDF need rsvg-convert on the PATH.`,
		Example: `  xbpar render blinky.placement.json --netlist blinky.json -d slg46620v -f svg,png`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, netlist)
			if err != nil {
				return err
			}
			formats := parseFormats(formatsStr)
			if formatsStr == "" {
				formats = []string{pipeline.FormatSVG}
			}
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			ropts.HideFree = !allSites
			return c.runRender(cmd.Context(), args[0], opts, formats, output, ropts)
		},
	}

	flags.registerInputs(cmd)
	cmd.Flags().StringVarP(&netlist, "netlist", "n", "", "netlist the report was made for")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf, json (comma-separated)")
	cmd.Flags().BoolVar(&ropts.ShowFabric, "show-fabric", false, "draw device edges")
	cmd.Flags().BoolVar(&ropts.Detailed, "detailed", false, "show labels and site kinds")
	cmd.Flags().BoolVar(&allSites, "all-sites", false, "draw unused device sites too")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, formats []string, output string, ropts pipeline.RenderOptions) error {
	report, err := xbio.ImportReport(input)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	res, err := runner.Verify(ctx, opts, report)
	if err != nil {
		return err
	}

	artifacts, err := pipeline.Render(res, formats, ropts)
	if err != nil {
		return err
	}
	paths, err := writeArtifacts(artifacts, formats, input, output, "")
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", input)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeArtifacts writes one file per format and returns the paths in
// format order.
//
// With a single format and an explicit output, output is used as is.
// Otherwise files are named <base><suffix>.<format>, where base is output
// or input without its extension.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output, suffix string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		var path string
		if len(formats) == 1 && output != "" {
			path = output
		} else {
			base := basePath(output, input)
			if output != "" {
				suffix = ""
			}
			path = base + suffix + "." + format
		}

		if err := writeFile(path, artifacts[format]); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for path. "-" is stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
