package pipeline

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/xbpar/pkg/fabric"
	"github.com/matzehuels/xbpar/pkg/graph"
	"github.com/matzehuels/xbpar/pkg/io"
	"github.com/matzehuels/xbpar/pkg/render"
	"github.com/matzehuels/xbpar/pkg/render/nodelink"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// RenderOptions controls the placement diagram.
type RenderOptions struct {
	ShowFabric bool
	HideFree   bool
	Detailed   bool
}

// Render produces the result in each requested format. "json" is the
// placement report; the others draw the placement diagram, clustered by
// routing matrix when the device has one.
func Render(res *Result, formats []string, opts RenderOptions) (map[string][]byte, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	artifacts := make(map[string][]byte, len(formats))

	dot := nodelink.ToDOT(graph.NewMating(res.Design.Netlist, res.Design.Device), nodelink.Options{
		Unsatisfied: res.Placement.Unsatisfied,
		ClusterKey:  clusterKey(res.Design),
		ShowFabric:  opts.ShowFabric,
		HideFree:    opts.HideFree,
		Detailed:    opts.Detailed,
	})
	var svg []byte
	needSVG := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = nodelink.RenderSVG(dot)
		return svg, err
	}

	for _, format := range formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = io.WriteReport(&buf, res.Report)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = needSVG()
		case FormatPNG:
			if data, err = needSVG(); err == nil {
				data, err = render.ToPNG(data, 2.0)
			}
		case FormatPDF:
			if data, err = needSVG(); err == nil {
				data, err = render.ToPDF(data)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func clusterKey(d *Design) string {
	if m, ok := d.Fabric.(fabric.Matrix); ok {
		if m.Key == "" {
			return fabric.DefaultMatrixKey
		}
		return m.Key
	}
	return ""
}
