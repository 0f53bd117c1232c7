// Package render turns placements into pictures.
//
// The [nodelink] subpackage draws the physical graph as a Graphviz diagram
// with every site annotated by the logical node mated to it. [ToPDF] and
// [ToPNG] convert its SVG output with the external rsvg-convert tool:
//
//	dot := nodelink.ToDOT(mating, nodelink.Options{Unsatisfied: res.Unsatisfied})
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//
// [nodelink]: github.com/matzehuels/xbpar/pkg/render/nodelink
package render
