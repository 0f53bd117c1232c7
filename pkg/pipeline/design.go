package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/xbpar/pkg/cache"
	"github.com/matzehuels/xbpar/pkg/fabric"
	"github.com/matzehuels/xbpar/pkg/graph"
	"github.com/matzehuels/xbpar/pkg/io"
	"github.com/matzehuels/xbpar/pkg/observability"
	"github.com/matzehuels/xbpar/pkg/par"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// Design is a loaded netlist and device pair, ready to place.
type Design struct {
	Netlist *graph.Graph
	Device  *graph.Graph

	// Fabric is the routing model and FabricName its canonical form.
	Fabric     par.Fabric
	FabricName string

	// Content hashes of the canonical documents, used in cache keys.
	NetlistHash string
	DeviceHash  string

	// Constraints resolves Options.Constraints to node IDs.
	Constraints map[graph.NodeID]graph.NodeID
}

// LoadDocuments reads the netlist file and the device, which may be a file
// or the name of a built-in part.
func LoadDocuments(ctx context.Context, opts Options) (netlist, device *io.Document, err error) {
	netlist, err = loadDocument(ctx, "netlist", opts.Netlist)
	if err != nil {
		return nil, nil, err
	}
	if isPart(opts.Device) {
		return netlist, &io.Document{Part: opts.Device}, nil
	}
	device, err = loadDocument(ctx, "device", opts.Device)
	if err != nil {
		return nil, nil, err
	}
	return netlist, device, nil
}

func loadDocument(ctx context.Context, kind, path string) (*io.Document, error) {
	start := time.Now()
	doc, err := io.ReadFile(path)
	nodes := 0
	if doc != nil {
		nodes = len(doc.Nodes)
	}
	observability.Placement().OnLoad(ctx, kind, path, nodes, time.Since(start), err)
	return doc, err
}

// isPart reports whether name is a built-in part rather than a file. An
// existing file always wins.
func isPart(name string) bool {
	if _, err := os.Stat(name); !errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return slices.Contains(fabric.Parts(), strings.ToUpper(name))
}

// NewDesign builds both graphs on one label table and resolves the fabric
// and constraints. A device document naming a part without listing nodes
// is expanded with [fabric.Greenpak].
func NewDesign(netDoc, devDoc *io.Document, opts Options) (*Design, error) {
	labels := graph.NewLabelTable()

	var device *graph.Graph
	var err error
	if devDoc.Part != "" && len(devDoc.Nodes) == 0 {
		device, err = fabric.Greenpak(devDoc.Part, labels)
	} else {
		device, err = devDoc.Build(labels)
	}
	if err != nil {
		return nil, fmt.Errorf("device: %w", err)
	}
	netlist, err := netDoc.Build(labels)
	if err != nil {
		return nil, fmt.Errorf("netlist: %w", err)
	}

	spec, err := ParseFabric(opts.Fabric)
	if err != nil {
		return nil, err
	}
	if spec == nil {
		spec = devDoc.Fabric
	}
	fab, fabName, err := BuildFabric(spec, device)
	if err != nil {
		return nil, err
	}

	d := &Design{
		Netlist:     netlist,
		Device:      device,
		Fabric:      fab,
		FabricName:  fabName,
		NetlistHash: canonicalHash(netlist),
		DeviceHash:  canonicalHash(device),
	}
	if d.Constraints, err = resolveConstraints(netlist, device, opts.Constraints); err != nil {
		return nil, err
	}
	return d, nil
}

// canonicalHash hashes the JSON document of g, so equivalent JSON and YAML
// inputs share cache entries.
func canonicalHash(g *graph.Graph) string {
	data, _ := json.Marshal(io.FromGraph(g))
	return cache.Hash(data)
}

func resolveConstraints(netlist, device *graph.Graph, pins map[string]string) (map[graph.NodeID]graph.NodeID, error) {
	if len(pins) == 0 {
		return nil, nil
	}
	out := make(map[graph.NodeID]graph.NodeID, len(pins))
	for l, p := range pins {
		ln, ok := netlist.NodeByName(l)
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidConstraint, "constraint %s=%s: unknown netlist node %q", l, p, l)
		}
		pn, ok := device.NodeByName(p)
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidConstraint, "constraint %s=%s: unknown device node %q", l, p, p)
		}
		out[ln.ID] = pn.ID
	}
	return out, nil
}

// Config returns the engine configuration for seed with the design's
// fabric and constraints.
func (d *Design) Config(opts *Options, seed uint64) par.Config {
	cfg := opts.EngineConfig(seed)
	cfg.Fabric = d.Fabric
	cfg.Constraints = d.Constraints
	return cfg
}

// Apply mates the design's graphs as recorded in report and scores the
// result. The iteration count is taken from the report.
func (d *Design) Apply(opts *Options, report *io.Report) (*par.Result, error) {
	pairs, err := report.Assignments(d.Netlist, d.Device)
	if err != nil {
		return nil, err
	}
	pr, err := par.Apply(d.Netlist, d.Device, d.Config(opts, report.Seed), pairs)
	if err != nil {
		return nil, err
	}
	pr.Iterations = report.Iterations
	return pr, nil
}

// Load validates opts, reads both inputs and builds the design.
func Load(ctx context.Context, opts *Options) (*Design, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	netDoc, devDoc, err := LoadDocuments(ctx, *opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	d, err := NewDesign(netDoc, devDoc, *opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return d, nil
}

// LabelUsage is the demand and supply of one netlist label.
type LabelUsage struct {
	Label string
	Need  int // netlist nodes
	Have  int // compatible device nodes
}

// Utilization returns the usage of every netlist label in first-seen order.
func (d *Design) Utilization() []LabelUsage {
	compat := graph.NewCompatibility(d.Netlist, d.Device)
	labels := d.Netlist.Labels()
	out := make([]LabelUsage, 0, len(labels))
	for _, l := range labels {
		out = append(out, LabelUsage{
			Label: d.Netlist.LabelName(l),
			Need:  d.Netlist.LabelCount(l),
			Have:  len(compat.Candidates(l)),
		})
	}
	return out
}

// Check runs the engine's feasibility and constraint checks without
// searching. The graphs are left unmated.
func (d *Design) Check(opts *Options) error {
	e, err := par.New(d.Netlist, d.Device, d.Config(opts, par.DefaultSeed))
	if err != nil {
		return err
	}
	defer e.Mating().Reset()
	return e.Check()
}
