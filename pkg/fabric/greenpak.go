package fabric

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/xbpar/pkg/graph"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// Primitive label names used by the GreenPAK devices.
const (
	LabelIOB   = "IOB"
	LabelLUT2  = "LUT2"
	LabelLUT3  = "LUT3"
	LabelLUT4  = "LUT4"
	LabelDFF   = "DFF"
	LabelCount = "COUNT"
)

// Graph metadata keys set by Greenpak.
const (
	MetaPart          = "part"
	MetaMatrices      = "matrices"
	MetaCrossCapacity = "cross_capacity"
)

// resources is the per-matrix primitive count of a part.
type resources struct {
	iob, lut2, lut3, lut4, dff, count int
}

type partSpec struct {
	name          string
	matrices      []resources
	crossCapacity int
}

var parts = map[string]partSpec{
	"SLG46140V": {
		name:     "SLG46140V",
		matrices: []resources{{iob: 10, lut2: 4, lut3: 5, lut4: 1, dff: 5, count: 3}},
	},
	"SLG46620V": {
		name: "SLG46620V",
		matrices: []resources{
			{iob: 10, lut2: 4, lut3: 8, lut4: 1, dff: 6, count: 5},
			{iob: 10, lut2: 4, lut3: 8, lut4: 1, dff: 6, count: 5},
		},
		crossCapacity: 10,
	},
	"SLG46621V": {
		name: "SLG46621V",
		matrices: []resources{
			{iob: 10, lut2: 4, lut3: 8, lut4: 1, dff: 6, count: 5},
			{iob: 10, lut2: 4, lut3: 8, lut4: 1, dff: 6, count: 5},
		},
		crossCapacity: 10,
	},
}

// Parts returns the supported part names in sorted order.
func Parts() []string {
	names := make([]string, 0, len(parts))
	for n := range parts {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Greenpak builds the device graph of a GreenPAK part. The part name is
// case-insensitive. Labels are interned into labels, which may be nil.
//
// Nodes are named after their kind and number ("lut3_4", "iob_12") and carry
// their matrix index under [DefaultMatrixKey]. LUT sites list the smaller
// LUT labels as alternates. The graph has no explicit edges: routing is
// described by a [Matrix] fabric built from the graph metadata.
func Greenpak(part string, labels *graph.LabelTable) (*graph.Graph, error) {
	spec, ok := parts[strings.ToUpper(part)]
	if !ok {
		return nil, perrors.New(perrors.ErrCodeUnsupported, "unknown part %q (supported: %s)", part, strings.Join(Parts(), ", "))
	}

	g := graph.New(labels)
	lt := g.LabelTable()
	lut2, lut3 := lt.Intern(LabelLUT2), lt.Intern(LabelLUT3)

	b := &deviceBuilder{g: g, seq: make(map[string]int)}
	for mi, r := range spec.matrices {
		b.add(mi, r.iob, "iob", lt.Intern(LabelIOB), nil, []string{"IN"}, []string{"OUT"})
		b.add(mi, r.lut2, "lut2", lut2, nil, lutInputs(2), []string{"OUT"})
		b.add(mi, r.lut3, "lut3", lut3, []graph.Label{lut2}, lutInputs(3), []string{"OUT"})
		b.add(mi, r.lut4, "lut4", lt.Intern(LabelLUT4), []graph.Label{lut3, lut2}, lutInputs(4), []string{"OUT"})
		b.add(mi, r.dff, "dff", lt.Intern(LabelDFF), nil, []string{"D", "CLK"}, []string{"Q"})
		b.add(mi, r.count, "count", lt.Intern(LabelCount), nil, []string{"RST", "CLK"}, []string{"OUT"})
	}
	if b.err != nil {
		return nil, b.err
	}

	g.Meta()[MetaPart] = spec.name
	g.Meta()[MetaMatrices] = len(spec.matrices)
	g.Meta()[MetaCrossCapacity] = spec.crossCapacity
	return g, nil
}

// MatrixFor returns the Matrix fabric described by a Greenpak graph's
// metadata. ok is false for graphs without that metadata.
func MatrixFor(g *graph.Graph) (m Matrix, ok bool) {
	if _, has := g.Meta()[MetaMatrices]; !has {
		return Matrix{}, false
	}
	m.Key = DefaultMatrixKey
	switch v := g.Meta()[MetaCrossCapacity].(type) {
	case int:
		m.CrossCapacity = v
	case float64:
		m.CrossCapacity = int(v)
	}
	return m, true
}

type deviceBuilder struct {
	g   *graph.Graph
	seq map[string]int
	err error
}

func (b *deviceBuilder) add(matrix, n int, kind string, label graph.Label, alternates []graph.Label, inputs, outputs []string) {
	for range n {
		if b.err != nil {
			return
		}
		name := fmt.Sprintf("%s_%d", kind, b.seq[kind])
		b.seq[kind]++
		id, err := b.g.AddNode(graph.Node{
			Label:      label,
			Alternates: alternates,
			Name:       name,
			Meta:       graph.Metadata{DefaultMatrixKey: matrix},
		})
		if err != nil {
			b.err = err
			return
		}
		for _, p := range inputs {
			if err := b.g.AddPort(id, p, graph.Input); err != nil {
				b.err = err
				return
			}
		}
		for _, p := range outputs {
			if err := b.g.AddPort(id, p, graph.Output); err != nil {
				b.err = err
				return
			}
		}
	}
}

func lutInputs(k int) []string {
	ins := make([]string, k)
	for i := range ins {
		ins[i] = fmt.Sprintf("IN%d", i)
	}
	return ins
}
