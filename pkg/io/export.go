package io

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/xbpar/pkg/graph"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// FromGraph converts a graph back into a document. Ports are written as
// inputs and outputs, and anonymous nodes get their display name.
func FromGraph(g *graph.Graph) *Document {
	doc := &Document{
		Nodes: make([]NodeSpec, 0, g.NodeCount()),
		Edges: make([]EdgeSpec, 0, g.EdgeCount()),
	}
	meta := maps.Clone(g.Meta())
	if name, ok := meta["name"].(string); ok {
		doc.Name = name
		delete(meta, "name")
	}
	if part, ok := meta["part"].(string); ok {
		doc.Part = part
		delete(meta, "part")
	}
	if len(meta) > 0 {
		doc.Meta = meta
	}

	for n := range g.Nodes() {
		spec := NodeSpec{Name: n.DisplayName(), Label: g.LabelName(n.Label)}
		for _, a := range n.Alternates {
			spec.Alternates = append(spec.Alternates, g.LabelName(a))
		}
		for _, p := range n.Ports() {
			if p.Dir == graph.Input {
				spec.Inputs = append(spec.Inputs, p.Name)
			} else {
				spec.Outputs = append(spec.Outputs, p.Name)
			}
		}
		if len(n.Meta) > 0 {
			spec.Meta = maps.Clone(n.Meta)
		}
		doc.Nodes = append(doc.Nodes, spec)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, edgeSpec(g, e))
	}
	return doc
}

func edgeSpec(g *graph.Graph, e graph.Edge) EdgeSpec {
	src, _ := g.Node(e.From)
	dst, _ := g.Node(e.To)
	return EdgeSpec{From: src.DisplayName(), FromPort: e.FromPort, To: dst.DisplayName(), ToPort: e.ToPort}
}

// Encode writes doc to w in the given format.
func Encode(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	default:
		return perrors.New(perrors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
}

// WriteFile writes doc to path, choosing the format from the extension.
func WriteFile(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Encode(f, doc, FormatFromPath(path))
}
