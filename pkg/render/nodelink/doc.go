// Package nodelink draws a placement as a Graphviz node-link diagram.
//
// # Overview
//
// Every physical node becomes a box labelled with its name and label. Sites
// hosting a logical node show that node's name and are filled; free sites
// are dashed and grey. Logical edges are drawn between the sites hosting
// their endpoints, with unsatisfied edges in red.
//
// # Usage
//
//	dot := nodelink.ToDOT(mating, nodelink.Options{
//	    Unsatisfied: res.Unsatisfied,
//	    ClusterKey:  "matrix",
//	})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Options
//
//   - Unsatisfied: logical edges to highlight
//   - ClusterKey: group sites into subgraphs by a metadata value
//   - ShowFabric: also draw the physical edges, in light grey
//   - HideFree: leave out unmated sites
//
// # Dependencies
//
// [RenderSVG] uses [github.com/goccy/go-graphviz], which runs Graphviz in
// process without a system installation.
package nodelink
