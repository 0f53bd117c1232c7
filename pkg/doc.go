// Package pkg provides the libraries behind xbpar, a place-and-route engine
// for small programmable-logic fabrics.
//
// # Overview
//
// A placement maps every node of a logical netlist onto a compatible site of
// a physical device graph so that every logical edge can be routed through
// the device's fabric. The search is simulated annealing over swaps and
// moves, scored by unroutable edges and matrix congestion.
//
// The pkg directory is organized into four areas:
//
//  1. Domain model: [graph], [fabric], [par]
//  2. Serialization: [io]
//  3. Infrastructure: [cache], [store], [observability], [errors], [buildinfo]
//  4. Orchestration and output: [pipeline], [render]
//
// # Architecture
//
// The typical data flow:
//
//	netlist.json + device.yaml (or a built-in part)
//	         ↓
//	    [io] package (decode documents, build graphs)
//	         ↓
//	    [fabric] package (routing model: direct, hops, matrix)
//	         ↓
//	    [par] package (seed, anneal, score)
//	         ↓
//	    [io] report / [render] DOT, SVG, PNG, PDF
//
// # Quick Start
//
// Place a netlist onto a Greenpak part:
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/xbpar/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Execute(context.Background(), pipeline.Options{
//	    Netlist: "blinky.json",
//	    Device:  "SLG46620V",
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Report.State, res.Report.Cost)
//
// # Main Packages
//
// [graph] - Labeled multigraphs with named ports, label compatibility and
// the mating between a logical and a physical graph.
//
// [fabric] - Routing models deciding whether a physical edge path exists
// between two sites, and how much a placement congests shared resources.
//
// [par] - The annealing engine. [par.Engine] is a resumable state machine;
// [par.Run] drives it to completion and [par.Apply] scores a fixed
// assignment without searching.
//
// [io] - JSON and YAML documents for graphs and placement reports, plus the
// built-in Greenpak device descriptions.
//
// [pipeline] - Loading, caching, multi-seed search, archiving and rendering
// behind a single [pipeline.Runner].
//
// [cache] and [store] - Placement cache (file, memory, Redis) and run
// archive (file, memory, MongoDB).
//
// [render] - Graphviz diagrams of placements and SVG conversion.
//
// [graph]: github.com/matzehuels/xbpar/pkg/graph
// [fabric]: github.com/matzehuels/xbpar/pkg/fabric
// [par]: github.com/matzehuels/xbpar/pkg/par
// [par.Engine]: github.com/matzehuels/xbpar/pkg/par#Engine
// [par.Run]: github.com/matzehuels/xbpar/pkg/par#Run
// [par.Apply]: github.com/matzehuels/xbpar/pkg/par#Apply
// [io]: github.com/matzehuels/xbpar/pkg/io
// [pipeline]: github.com/matzehuels/xbpar/pkg/pipeline
// [pipeline.Runner]: github.com/matzehuels/xbpar/pkg/pipeline#Runner
// [cache]: github.com/matzehuels/xbpar/pkg/cache
// [store]: github.com/matzehuels/xbpar/pkg/store
// [observability]: github.com/matzehuels/xbpar/pkg/observability
// [errors]: github.com/matzehuels/xbpar/pkg/errors
// [buildinfo]: github.com/matzehuels/xbpar/pkg/buildinfo
// [render]: github.com/matzehuels/xbpar/pkg/render
package pkg
