package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/xbpar/pkg/graph"
	"github.com/matzehuels/xbpar/pkg/par"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// Report is the serialised outcome of a placement run. Nodes are referred to
// by name so a report stays meaningful outside the process that made it.
type Report struct {
	Netlist     string      `json:"netlist,omitempty"`
	Device      string      `json:"device,omitempty"`
	State       string      `json:"state"`
	Cost        int         `json:"cost"`
	Score       par.Score   `json:"score"`
	Iterations  int         `json:"iterations"`
	Seed        uint64      `json:"seed"`
	Placements  []Placement `json:"placements"`
	Unsatisfied []EdgeSpec  `json:"unsatisfied,omitempty"`
	Stats       ReportStats `json:"stats"`
}

// Placement pairs a logical node with the physical site it was mated to.
type Placement struct {
	Logical  string `json:"logical"`
	Label    string `json:"label"`
	Physical string `json:"physical"`
	Site     string `json:"site"` // label of the physical node
}

// ReportStats mirrors [par.Stats] with the duration in milliseconds.
type ReportStats struct {
	Accepted  int   `json:"accepted"`
	Rejected  int   `json:"rejected"`
	Uphill    int   `json:"uphill"`
	Discarded int   `json:"discarded"`
	ElapsedMS int64 `json:"elapsed_ms"`
}

// NewReport describes res in terms of node names of logical and physical.
func NewReport(logical, physical *graph.Graph, res *par.Result) *Report {
	r := &Report{
		State:      res.State.String(),
		Cost:       res.Cost,
		Score:      res.Score,
		Iterations: res.Iterations,
		Seed:       res.Seed,
		Placements: make([]Placement, 0, len(res.Assignment)),
		Stats: ReportStats{
			Accepted:  res.Stats.Accepted,
			Rejected:  res.Stats.Rejected,
			Uphill:    res.Stats.Uphill,
			Discarded: res.Stats.Discarded,
			ElapsedMS: res.Stats.Elapsed.Milliseconds(),
		},
	}
	if name, ok := logical.Meta()["name"].(string); ok {
		r.Netlist = name
	}
	if name, ok := physical.Meta()["name"].(string); ok {
		r.Device = name
	} else if part, ok := physical.Meta()["part"].(string); ok {
		r.Device = part
	}

	for _, a := range res.Assignment {
		ln, _ := logical.Node(a.Logical)
		pn, _ := physical.Node(a.Physical)
		r.Placements = append(r.Placements, Placement{
			Logical:  ln.DisplayName(),
			Label:    logical.LabelName(ln.Label),
			Physical: pn.DisplayName(),
			Site:     physical.LabelName(pn.Label),
		})
	}
	for _, e := range res.Unsatisfied {
		r.Unsatisfied = append(r.Unsatisfied, edgeSpec(logical, e))
	}
	return r
}

// Assignments resolves the placements back to node IDs of logical and
// physical, for replaying a stored report with [par.Apply].
func (r *Report) Assignments(logical, physical *graph.Graph) ([]par.Assignment, error) {
	out := make([]par.Assignment, 0, len(r.Placements))
	for _, p := range r.Placements {
		l, ok := resolve(logical, p.Logical)
		if !ok {
			return nil, perrors.New(perrors.ErrCodeUnknownNode, "report: unknown logical node %q", p.Logical)
		}
		ph, ok := resolve(physical, p.Physical)
		if !ok {
			return nil, perrors.New(perrors.ErrCodeUnknownNode, "report: unknown physical node %q", p.Physical)
		}
		out = append(out, par.Assignment{Logical: l, Physical: ph})
	}
	return out, nil
}

// resolve looks a node up by name, falling back to the "n<ID>" display name
// of anonymous nodes.
func resolve(g *graph.Graph, name string) (graph.NodeID, bool) {
	if n, ok := g.NodeByName(name); ok {
		return n.ID, true
	}
	rest, ok := strings.CutPrefix(name, "n")
	if !ok {
		return graph.None, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return graph.None, false
	}
	n, ok := g.Node(graph.NodeID(id))
	if !ok || n.Name != "" {
		return graph.None, false
	}
	return n.ID, true
}

// WriteReport encodes r as indented JSON.
func WriteReport(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadReport decodes a report written by [WriteReport].
func ReadReport(rd io.Reader) (*Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode report")
	}
	return &r, nil
}

// ExportReport writes r to path.
func ExportReport(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteReport(f, r)
}

// ImportReport reads a report from path.
func ImportReport(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadReport(f)
}
