package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/xbpar/pkg/graph"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// Decode reads a document from r in the given format.
// Malformed input is reported as INVALID_FORMAT. Decode does not close r.
func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case FormatJSON, "":
		err = json.NewDecoder(r).Decode(&doc)
	default:
		return nil, perrors.New(perrors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode %s", format)
	}
	return &doc, nil
}

// ReadFile decodes the document at path, choosing the format from its
// extension. A missing file is reported as FILE_NOT_FOUND.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ImportGraph reads the document at path and builds its graph.
func ImportGraph(path string, labels *graph.LabelTable) (*graph.Graph, *Document, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	g, err := doc.Build(labels)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, doc, nil
}

// Build creates a graph from the document. Labels are interned into labels,
// which may be nil.
//
// Node, label and port names are validated with [perrors.ValidateName].
// Construction errors keep their graph error codes (DUPLICATE_PORT,
// PORT_DIRECTION_MISMATCH, ...) and are wrapped with the offending node or
// edge. Edges naming unknown nodes are reported as UNKNOWN_NODE.
func (d *Document) Build(labels *graph.LabelTable) (*graph.Graph, error) {
	g := graph.New(labels)
	lt := g.LabelTable()
	if d.Name != "" {
		g.Meta()["name"] = d.Name
	}
	if d.Part != "" {
		g.Meta()["part"] = d.Part
	}
	for k, v := range d.Meta {
		g.Meta()[k] = v
	}

	for _, n := range d.Nodes {
		if err := perrors.ValidateName("node", n.Name); err != nil {
			return nil, err
		}
		if err := perrors.ValidateName("label", n.Label); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Name, err)
		}
		node := graph.Node{
			Name:  n.Name,
			Label: lt.Intern(n.Label),
			Meta:  graph.Metadata{},
		}
		for k, v := range n.Meta {
			node.Meta[k] = v
		}
		for _, a := range n.Alternates {
			if err := perrors.ValidateName("label", a); err != nil {
				return nil, fmt.Errorf("node %s: %w", n.Name, err)
			}
			node.Alternates = append(node.Alternates, lt.Intern(a))
		}
		id, err := g.AddNode(node)
		if err != nil {
			return nil, err
		}
		if err := addPorts(g, id, n); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Name, err)
		}
	}

	for _, e := range d.Edges {
		src, ok := g.NodeByName(e.From)
		if !ok {
			return nil, perrors.New(perrors.ErrCodeUnknownNode, "edge %s: unknown node %q", e, e.From)
		}
		dst, ok := g.NodeByName(e.To)
		if !ok {
			return nil, perrors.New(perrors.ErrCodeUnknownNode, "edge %s: unknown node %q", e, e.To)
		}
		if _, err := g.Connect(src.ID, e.FromPort, dst.ID, e.ToPort); err != nil {
			return nil, fmt.Errorf("edge %s: %w", e, err)
		}
	}
	return g, nil
}

func addPorts(g *graph.Graph, id graph.NodeID, n NodeSpec) error {
	add := func(name string, dir graph.Direction) error {
		if err := perrors.ValidateName("port", name); err != nil {
			return err
		}
		return g.AddPort(id, name, dir)
	}
	for _, p := range n.Inputs {
		if err := add(p, graph.Input); err != nil {
			return err
		}
	}
	for _, p := range n.Outputs {
		if err := add(p, graph.Output); err != nil {
			return err
		}
	}
	for _, p := range n.Ports {
		dir, err := graph.ParseDirection(p.Dir)
		if err != nil {
			return fmt.Errorf("port %s: %w", p.Name, err)
		}
		if err := add(p.Name, dir); err != nil {
			return err
		}
	}
	return nil
}
