package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/xbpar/pkg/graph"
	"github.com/matzehuels/xbpar/pkg/par"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

const blinkyJSON = `{
  "name": "blinky",
  "nodes": [
    {"name": "cnt", "label": "COUNT", "inputs": ["RST", "CLK"], "outputs": ["OUT"]},
    {"name": "led", "label": "IOB", "ports": [{"name": "IN", "dir": "input"}, {"name": "OUT", "dir": "output"}]}
  ],
  "edges": [
    {"from": "cnt", "from_port": "OUT", "to": "led", "to_port": "IN"}
  ]
}`

const tinyYAML = `
name: tiny
fabric: {kind: hops, max_hops: 2}
nodes:
  - {name: cnt_0, label: COUNT, inputs: [RST, CLK], outputs: [OUT], meta: {matrix: 0}}
  - {name: iob_0, label: IOB, inputs: [IN], outputs: [OUT], meta: {matrix: 1}}
  - {name: iob_1, label: IOB, inputs: [IN], outputs: [OUT]}
edges:
  - {from: cnt_0, from_port: OUT, to: iob_0, to_port: IN}
  - {from: cnt_0, from_port: OUT, to: iob_1, to_port: IN}
`

func TestDecodeJSON(t *testing.T) {
	doc, err := Decode(strings.NewReader(blinkyJSON), FormatJSON)
	require.NoError(t, err)

	g, err := doc.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, "blinky", g.Meta()["name"])

	led, ok := g.NodeByName("led")
	require.True(t, ok)
	assert.Equal(t, "IOB", g.LabelName(led.Label))
	in, ok := led.Port("IN")
	require.True(t, ok)
	assert.Equal(t, graph.Input, in.Dir)

	cnt, _ := g.NodeByName("cnt")
	assert.True(t, g.HasEdge(cnt.ID, "OUT", led.ID, "IN"))
}

func TestDecodeYAML(t *testing.T) {
	doc, err := Decode(strings.NewReader(tinyYAML), FormatYAML)
	require.NoError(t, err)
	require.NotNil(t, doc.Fabric)
	assert.Equal(t, "hops", doc.Fabric.Kind)
	assert.Equal(t, 2, doc.Fabric.MaxHops)

	g, err := doc.Build(graph.NewLabelTable("IOB"))
	require.NoError(t, err)
	iob, _ := g.LabelTable().Lookup("IOB")
	assert.Equal(t, 2, g.LabelCount(iob))

	n, _ := g.NodeByName("cnt_0")
	assert.Equal(t, 0, n.Meta["matrix"])
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		code   perrors.Code
	}{
		{"malformed json", `{"nodes": [`, FormatJSON, perrors.ErrCodeInvalidFormat},
		{"malformed yaml", "nodes: [a: {", FormatYAML, perrors.ErrCodeInvalidFormat},
		{"unknown format", `{}`, "xml", perrors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.Equal(t, tt.code, perrors.GetCode(err))
		})
	}
}

func TestBuildErrors(t *testing.T) {
	node := func(name, label string, in, out []string) NodeSpec {
		return NodeSpec{Name: name, Label: label, Inputs: in, Outputs: out}
	}
	a := node("a", "LUT2", []string{"IN0"}, []string{"OUT"})
	b := node("b", "LUT2", []string{"IN0"}, []string{"OUT"})

	tests := []struct {
		name string
		doc  Document
		code perrors.Code
	}{
		{"empty node name", Document{Nodes: []NodeSpec{node("", "LUT2", nil, nil)}}, perrors.ErrCodeInvalidName},
		{"bad label", Document{Nodes: []NodeSpec{node("a", "lut 2", nil, nil)}}, perrors.ErrCodeInvalidName},
		{"bad port", Document{Nodes: []NodeSpec{node("a", "LUT2", []string{"in 0"}, nil)}}, perrors.ErrCodeInvalidName},
		{"duplicate node", Document{Nodes: []NodeSpec{a, a}}, perrors.ErrCodeDuplicateNodeName},
		{"duplicate port", Document{Nodes: []NodeSpec{node("a", "LUT2", []string{"X"}, []string{"X"})}}, perrors.ErrCodeDuplicatePort},
		{"bad direction", Document{Nodes: []NodeSpec{{Name: "a", Label: "LUT2", Ports: []PortSpec{{Name: "X", Dir: "sideways"}}}}}, perrors.ErrCodeInvalidInput},
		{"unknown node", Document{Nodes: []NodeSpec{a}, Edges: []EdgeSpec{{From: "a", FromPort: "OUT", To: "z", ToPort: "IN0"}}}, perrors.ErrCodeUnknownNode},
		{"unknown port", Document{Nodes: []NodeSpec{a, b}, Edges: []EdgeSpec{{From: "a", FromPort: "Q", To: "b", ToPort: "IN0"}}}, perrors.ErrCodeUnknownPort},
		{"backwards edge", Document{Nodes: []NodeSpec{a, b}, Edges: []EdgeSpec{{From: "a", FromPort: "IN0", To: "b", ToPort: "IN0"}}}, perrors.ErrCodePortDirection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.doc.Build(nil)
			require.Error(t, err)
			assert.Equal(t, tt.code, perrors.GetCode(err), "error: %v", err)
		})
	}
}

func TestFromGraphRoundTrip(t *testing.T) {
	doc, err := Decode(strings.NewReader(tinyYAML), FormatYAML)
	require.NoError(t, err)
	g, err := doc.Build(nil)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, FromGraph(g), format))

			back, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, "tiny", back.Name)

			g2, err := back.Build(nil)
			require.NoError(t, err)
			assert.Equal(t, g.NodeCount(), g2.NodeCount())
			assert.Equal(t, g.EdgeCount(), g2.EdgeCount())
			for _, e := range g.Edges() {
				assert.True(t, g2.HasEdge(e.From, e.FromPort, e.To, e.ToPort))
			}
		})
	}
}

func TestFromGraphAnonymousNodes(t *testing.T) {
	g := graph.New(nil)
	a := g.CreateNode(g.LabelTable().Intern("LUT2"))
	require.NoError(t, g.AddPort(a, "OUT", graph.Output))
	b := g.CreateNode(0)
	require.NoError(t, g.AddPort(b, "IN0", graph.Input))
	_, err := g.Connect(a, "OUT", b, "IN0")
	require.NoError(t, err)

	doc := FromGraph(g)
	assert.Equal(t, "n0", doc.Nodes[0].Name)
	assert.Equal(t, EdgeSpec{From: "n0", FromPort: "OUT", To: "n1", ToPort: "IN0"}, doc.Edges[0])
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "tiny.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(tinyYAML), 0o644))

	g, doc, err := ImportGraph(yamlPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "tiny", doc.Name)
	assert.Equal(t, 3, g.NodeCount())

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, WriteFile(jsonPath, doc))
	back, err := ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, back.Nodes, 3)

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, perrors.Is(err, perrors.ErrCodeFileNotFound))
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json":     FormatJSON,
		"a.yaml":     FormatYAML,
		"a.YML":      FormatYAML,
		"netlist":    FormatJSON,
		"dir/x.toml": FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestReport(t *testing.T) {
	labels := graph.NewLabelTable()
	netDoc, err := Decode(strings.NewReader(blinkyJSON), FormatJSON)
	require.NoError(t, err)
	logical, err := netDoc.Build(labels)
	require.NoError(t, err)

	devDoc, err := Decode(strings.NewReader(tinyYAML), FormatYAML)
	require.NoError(t, err)
	physical, err := devDoc.Build(labels)
	require.NoError(t, err)

	res, err := par.Run(logical, physical, par.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, par.Converged, res.State)

	r := NewReport(logical, physical, res)
	assert.Equal(t, "blinky", r.Netlist)
	assert.Equal(t, "tiny", r.Device)
	assert.Equal(t, "converged", r.State)
	require.Len(t, r.Placements, 2)
	assert.Equal(t, Placement{Logical: "cnt", Label: "COUNT", Physical: "cnt_0", Site: "COUNT"}, r.Placements[0])
	assert.Empty(t, r.Unsatisfied)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, ExportReport(path, r))
	back, err := ImportReport(path)
	require.NoError(t, err)
	assert.Equal(t, r, back)

	pairs, err := back.Assignments(logical.Clone(), physical.Clone())
	require.NoError(t, err)
	assert.Equal(t, res.Assignment, pairs)

	replayed, err := par.Apply(logical.Clone(), physical.Clone(), par.DefaultConfig(), pairs)
	require.NoError(t, err)
	assert.Equal(t, par.Converged, replayed.State)
}

func TestReportAssignmentsUnknown(t *testing.T) {
	g := graph.New(nil)
	g.CreateNode(0)
	named, err := g.AddNode(graph.Node{Name: "x"})
	require.NoError(t, err)

	id, ok := resolve(g, "n0")
	assert.True(t, ok)
	assert.Equal(t, graph.NodeID(0), id)
	id, ok = resolve(g, "x")
	assert.True(t, ok)
	assert.Equal(t, named, id)
	_, ok = resolve(g, "n1") // named node, not addressable by ID
	assert.False(t, ok)

	r := &Report{Placements: []Placement{{Logical: "ghost", Physical: "x"}}}
	_, err = r.Assignments(g, g)
	assert.True(t, perrors.Is(err, perrors.ErrCodeUnknownNode))
}

func TestReadReportMalformed(t *testing.T) {
	_, err := ReadReport(strings.NewReader("not json"))
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidFormat))
}
