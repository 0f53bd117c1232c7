package nodelink

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/xbpar/pkg/graph"
)

// Options configures the placement diagram.
type Options struct {
	// Unsatisfied lists logical edges drawn in red.
	Unsatisfied []graph.Edge

	// ClusterKey groups physical nodes by Meta[ClusterKey] when set.
	ClusterKey string

	// ShowFabric draws the physical edges as a faint background.
	ShowFabric bool

	// HideFree omits physical nodes without a mate.
	HideFree bool

	// Detailed adds labels and sorted metadata to node captions.
	Detailed bool
}

// ToDOT converts the placement held by m to Graphviz DOT.
func ToDOT(m *graph.Mating, opts Options) string {
	logical, physical := m.Logical(), m.Physical()

	var buf bytes.Buffer
	buf.WriteString("digraph placement {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	visible := func(p *graph.Node) bool { return !opts.HideFree || p.IsMated() }

	writeNode := func(indent string, p *graph.Node) {
		fmt.Fprintf(&buf, "%s%s [%s];\n", indent, nodeID(p.ID), strings.Join(nodeAttrs(m, p, opts), ", "))
	}

	if opts.ClusterKey != "" {
		groups, rest := cluster(physical, opts.ClusterKey, visible)
		for i, key := range slices.SortedFunc(maps.Keys(groups), compareAny) {
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
			fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("%s %v", opts.ClusterKey, key))
			buf.WriteString("    style=\"rounded,dashed\";\n")
			for _, p := range groups[key] {
				writeNode("    ", p)
			}
			buf.WriteString("  }\n")
		}
		for _, p := range rest {
			writeNode("  ", p)
		}
	} else {
		for p := range physical.Nodes() {
			if visible(p) {
				writeNode("  ", p)
			}
		}
	}

	if opts.ShowFabric {
		buf.WriteString("\n")
		for _, e := range physical.Edges() {
			src, _ := physical.Node(e.From)
			dst, _ := physical.Node(e.To)
			if !visible(src) || !visible(dst) {
				continue
			}
			fmt.Fprintf(&buf, "  %s -> %s [color=\"#cccccc\", arrowsize=0.5];\n", nodeID(e.From), nodeID(e.To))
		}
	}

	bad := make(map[graph.EdgeID]bool, len(opts.Unsatisfied))
	for _, e := range opts.Unsatisfied {
		bad[e.ID] = true
	}
	buf.WriteString("\n")
	for _, e := range logical.Edges() {
		src, dst := m.PhysicalOf(e.From), m.PhysicalOf(e.To)
		if src == graph.None || dst == graph.None {
			continue
		}
		attrs := fmt.Sprintf("label=%q", e.FromPort+" → "+e.ToPort)
		if bad[e.ID] {
			attrs += ", color=red, fontcolor=red, style=dashed, penwidth=2"
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", nodeID(src), nodeID(dst), attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(id graph.NodeID) string { return "p" + strconv.Itoa(int(id)) }

func nodeAttrs(m *graph.Mating, p *graph.Node, opts Options) []string {
	physical := m.Physical()
	lines := []string{p.DisplayName()}
	if opts.Detailed {
		lines = append(lines, physical.LabelName(p.Label))
		for _, k := range slices.Sorted(maps.Keys(p.Meta)) {
			lines = append(lines, fmt.Sprintf("%s: %v", k, p.Meta[k]))
		}
	}

	mate, ok := p.Mate()
	if !ok {
		return []string{
			fmt.Sprintf("label=%q", strings.Join(lines, "\n")),
			"style=\"rounded,dashed\"", "color=grey", "fontcolor=grey",
		}
	}
	ln, _ := m.Logical().Node(mate)
	lines = append(lines, "← "+ln.DisplayName())
	return []string{
		fmt.Sprintf("label=%q", strings.Join(lines, "\n")),
		"fillcolor=\"#dbe9f6\"",
	}
}

// cluster splits the visible nodes by Meta[key]. Nodes without the key are
// returned separately in graph order.
func cluster(g *graph.Graph, key string, visible func(*graph.Node) bool) (map[any][]*graph.Node, []*graph.Node) {
	groups := make(map[any][]*graph.Node)
	var rest []*graph.Node
	for n := range g.Nodes() {
		if !visible(n) {
			continue
		}
		v, ok := n.Meta[key]
		if !ok {
			rest = append(rest, n)
			continue
		}
		k := groupKey(v)
		groups[k] = append(groups[k], n)
	}
	return groups, rest
}

// groupKey folds numeric values to float64 so 0 and 0.0 share a group, and
// prints everything else, since metadata may hold unhashable values.
func groupKey(v any) any {
	if f, ok := number(v); ok {
		return f
	}
	return fmt.Sprint(v)
}

// compareAny orders metadata values numerically when both are numbers and
// by their printed form otherwise.
func compareAny(a, b any) int {
	fa, okA := number(a)
	fb, okB := number(b)
	if okA && okB {
		return cmp.Compare(fa, fb)
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// RenderSVG renders DOT source to SVG with an embedded Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg tag with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
