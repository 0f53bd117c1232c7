// Package io reads and writes netlists, device descriptions and placement
// reports.
//
// # Overview
//
// Netlists and devices share one document format, available as JSON or
// YAML. A document lists named nodes with their label and ports, and the
// directed edges between those ports:
//
//	{
//	  "name": "blinky",
//	  "nodes": [
//	    {"name": "cnt", "label": "COUNT", "inputs": ["RST", "CLK"], "outputs": ["OUT"]},
//	    {"name": "led", "label": "IOB", "inputs": ["IN"], "outputs": ["OUT"]}
//	  ],
//	  "edges": [
//	    {"from": "cnt", "from_port": "OUT", "to": "led", "to_port": "IN"}
//	  ]
//	}
//
// The same device in YAML:
//
//	name: tiny
//	fabric: {kind: hops, max_hops: 2}
//	nodes:
//	  - {name: lut3_0, label: LUT3, alternates: [LUT2], inputs: [IN0, IN1, IN2], outputs: [OUT]}
//
// # Node Fields
//
// Required:
//   - name: unique identifier, also used in reports
//   - label: primitive type, e.g. LUT2, DFF, COUNT, IOB
//
// Optional:
//   - alternates: further labels the node can host (device files)
//   - inputs, outputs: port names by direction
//   - ports: explicit [{name, dir}] list, dir being "input" or "output"
//   - meta: freeform object; the matrix fabric reads "matrix"
//
// # Device Documents
//
// A device document may name a built-in part instead of listing nodes
// ("part": "SLG46620V"), and may describe its routing model in "fabric".
//
// # Reports
//
// [Report] is the placement result as consumed downstream: each logical
// node name paired with the physical node it was mated to, the residual
// cost and the unsatisfied edges.
//
// # Concurrency
//
// Documents are plain values. [Document.Build] creates an independent graph
// on every call.
package io
