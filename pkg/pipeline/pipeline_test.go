package pipeline

import (
	"bytes"
	"context"
	"errors"
	goio "io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/xbpar/pkg/cache"
	"github.com/matzehuels/xbpar/pkg/fabric"
	"github.com/matzehuels/xbpar/pkg/graph"
	"github.com/matzehuels/xbpar/pkg/io"
	"github.com/matzehuels/xbpar/pkg/par"
	"github.com/matzehuels/xbpar/pkg/store"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

const blinkyJSON = `{
  "name": "blinky",
  "nodes": [
    {"name": "cnt", "label": "COUNT", "inputs": ["RST", "CLK"], "outputs": ["OUT"]},
    {"name": "inv", "label": "LUT2", "inputs": ["IN0", "IN1"], "outputs": ["OUT"]},
    {"name": "ff", "label": "DFF", "inputs": ["D", "CLK"], "outputs": ["Q"]},
    {"name": "led", "label": "IOB", "inputs": ["IN"], "outputs": ["OUT"]}
  ],
  "edges": [
    {"from": "cnt", "from_port": "OUT", "to": "inv", "to_port": "IN0"},
    {"from": "inv", "from_port": "OUT", "to": "ff", "to_port": "D"},
    {"from": "ff", "from_port": "Q", "to": "led", "to_port": "IN"}
  ]
}`

const blinkyYAML = `
name: blinky
nodes:
  - {name: cnt, label: COUNT, inputs: [RST, CLK], outputs: [OUT]}
  - {name: inv, label: LUT2, inputs: [IN0, IN1], outputs: [OUT]}
  - {name: ff, label: DFF, inputs: [D, CLK], outputs: [Q]}
  - {name: led, label: IOB, inputs: [IN], outputs: [OUT]}
edges:
  - {from: cnt, from_port: OUT, to: inv, to_port: IN0}
  - {from: inv, from_port: OUT, to: ff, to_port: D}
  - {from: ff, from_port: Q, to: led, to_port: IN}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"txt", true},
		{"", true},
		{"SVG", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
		})
	}

	if err := ValidateFormats([]string{"json", "bogus"}); err == nil {
		t.Error("ValidateFormats should reject bogus")
	}
}

func TestParseFabric(t *testing.T) {
	tests := []struct {
		in      string
		want    *io.FabricSpec
		wantErr bool
	}{
		{"", nil, false},
		{"direct", &io.FabricSpec{Kind: "direct"}, false},
		{"DIRECT", &io.FabricSpec{Kind: "direct"}, false},
		{"hops", &io.FabricSpec{Kind: "hops"}, false},
		{"hops:3", &io.FabricSpec{Kind: "hops", MaxHops: 3}, false},
		{"matrix", &io.FabricSpec{Kind: "matrix"}, false},
		{"matrix:4", &io.FabricSpec{Kind: "matrix", CrossCapacity: 4}, false},
		{"direct:1", nil, true},
		{"hops:-1", nil, true},
		{"hops:x", nil, true},
		{"mesh", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFabric(tt.in)
			if tt.wantErr {
				assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidConfig), "err = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildFabric(t *testing.T) {
	part, err := fabric.Greenpak("SLG46620V", nil)
	require.NoError(t, err)
	plain := graph.New(nil)

	tests := []struct {
		name     string
		spec     *io.FabricSpec
		device   *graph.Graph
		wantName string
	}{
		{"part default", nil, part, "matrix:matrix:10"},
		{"plain default", nil, plain, "direct"},
		{"direct", &io.FabricSpec{Kind: "direct"}, part, "direct"},
		{"hops default", &io.FabricSpec{Kind: "hops"}, plain, "hops:2"},
		{"hops", &io.FabricSpec{Kind: "hops", MaxHops: 5}, plain, "hops:5"},
		{"matrix inherits capacity", &io.FabricSpec{Kind: "matrix"}, part, "matrix:matrix:10"},
		{"matrix override", &io.FabricSpec{Kind: "matrix", CrossCapacity: 3, Key: "bank"}, part, "matrix:bank:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fab, name, err := BuildFabric(tt.spec, tt.device)
			require.NoError(t, err)
			assert.NotNil(t, fab)
			assert.Equal(t, tt.wantName, name)
		})
	}

	_, _, err = BuildFabric(&io.FabricSpec{Kind: "mesh"}, plain)
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidConfig))
}

func TestLoadOptions(t *testing.T) {
	path := writeFile(t, "xbpar.toml", `
netlist = "blinky.json"
device = "SLG46620V"
fabric = "hops:3"
seeds = [1, 2, 3]
max_iterations = 500
max_time = "5s"
stall_limit = 0
focus_bias = 0.0

[constraints]
led = "iob_0"
`)

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "blinky.json", opts.Netlist)
	assert.Equal(t, "SLG46620V", opts.Device)
	assert.Equal(t, "hops:3", opts.Fabric)
	assert.Equal(t, []uint64{1, 2, 3}, opts.Seeds)
	assert.Equal(t, 500, opts.MaxIterations)
	require.NotNil(t, opts.MaxTime)
	assert.Equal(t, 5*time.Second, opts.MaxTime.Duration)
	assert.Equal(t, map[string]string{"led": "iob_0"}, opts.Constraints)

	// Explicit zeros survive defaulting.
	opts.SetDefaults()
	assert.Equal(t, 0, *opts.StallLimit)
	assert.Equal(t, 0.0, *opts.FocusBias)
	assert.Equal(t, par.DefaultDecay, opts.Decay)

	cfg := opts.EngineConfig(7)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 0, cfg.StallLimit)
	assert.Equal(t, 5*time.Second, cfg.MaxTime)
}

func TestLoadOptionsErrors(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, perrors.Is(err, perrors.ErrCodeFileNotFound))

	_, err = LoadOptions(writeFile(t, "bad.toml", "netlist = "))
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidConfig))

	_, err = LoadOptions(writeFile(t, "typo.toml", "max_iteration = 5\n"))
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidConfig))
	assert.Contains(t, err.Error(), "max_iteration")
}

func TestSetDefaults(t *testing.T) {
	var opts Options
	opts.SetDefaults()
	assert.Equal(t, DefaultSeeds, opts.Seeds)
	assert.Equal(t, par.DefaultMaxIterations, opts.MaxIterations)
	assert.Equal(t, par.DefaultMaxTime, opts.MaxTime.Duration)
	assert.Equal(t, par.DefaultStallLimit, *opts.StallLimit)
	assert.Equal(t, par.DefaultFocusBias, *opts.FocusBias)
	assert.NotNil(t, opts.Logger)

	// Defaults never alias the package-level slice.
	opts.Seeds[0] = 99
	assert.Equal(t, uint64(par.DefaultSeed), DefaultSeeds[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no netlist", Options{Device: "SLG46620V"}},
		{"no device", Options{Netlist: "n.json"}},
		{"bad fabric", Options{Netlist: "n.json", Device: "d.json", Fabric: "mesh"}},
		{"bad decay", Options{Netlist: "n.json", Device: "d.json", Decay: 1.5}},
		{"too many seeds", Options{Netlist: "n.json", Device: "d.json", Seeds: make([]uint64, par.MaxSeeds+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidConfig), "err = %v", err)
		})
	}

	opts := Options{Netlist: "n.json", Device: "d.json", Seeds: make([]uint64, par.MaxSeeds)}
	assert.NoError(t, opts.Validate(), "seed count at the limit")
}

func TestRunnerReportEncodeFailure(t *testing.T) {
	old := writeReport
	writeReport = func(goio.Writer, *io.Report) error { return errors.New("encode: boom") }
	t.Cleanup(func() { writeReport = old })

	var logs bytes.Buffer
	mem := cache.NewMemoryCache()
	r := NewRunner(mem, nil, nil)
	defer r.Close()

	opts := Options{
		Netlist:       writeFile(t, "blinky.json", blinkyJSON),
		Device:        "slg46620v",
		MaxIterations: 20000,
		Logger:        log.NewWithOptions(&logs, log.Options{}),
	}
	res, err := r.Execute(context.Background(), opts)
	require.NoError(t, err, "a cache encoding failure does not fail the run")
	assert.True(t, res.Placement.Converged())
	assert.Equal(t, 0, mem.Len(), "nothing cached")
	assert.Contains(t, logs.String(), "encode report for cache failed")
	assert.Contains(t, logs.String(), "boom")
}

func TestParseSeeds(t *testing.T) {
	seeds, err := ParseSeeds([]string{"1", "18446744073709551615"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 18446744073709551615}, seeds)

	_, err = ParseSeeds([]string{"-1"})
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidConfig))
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	netlist := writeFile(t, "blinky.json", blinkyJSON)

	mem := cache.NewMemoryCache()
	runs := store.NewMemoryStore()
	r := NewRunner(mem, nil, nil)
	r.Store = runs
	defer r.Close()

	opts := Options{Netlist: netlist, Device: "slg46620v", MaxIterations: 20000}

	first, err := r.Execute(ctx, opts)
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.PlaceHit)
	assert.True(t, first.Placement.Converged())
	assert.Equal(t, "blinky", first.Report.Netlist)
	assert.Equal(t, "SLG46620V", first.Report.Device)
	assert.Len(t, first.Report.Placements, 4)
	assert.Equal(t, 4, first.Stats.NodeCount)
	assert.Equal(t, 3, first.Stats.EdgeCount)
	assert.Equal(t, "matrix:matrix:10", first.Design.FabricName)
	assert.Equal(t, 1, mem.Len())
	require.NotEmpty(t, first.RunID)

	second, err := r.Execute(ctx, opts)
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.PlaceHit)
	assert.Equal(t, first.CacheKey, second.CacheKey)
	assert.Equal(t, first.Report.Placements, second.Report.Placements)
	assert.Equal(t, first.Placement.Cost, second.Placement.Cost)
	assert.Equal(t, first.Placement.Iterations, second.Placement.Iterations)

	// The replayed mating is live on the device graph.
	led, _ := second.Design.Netlist.NodeByName("led")
	_, mated := led.Mate()
	assert.True(t, mated)

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	require.NoError(t, err)
	assert.False(t, third.CacheInfo.PlaceHit)

	recs, err := runs.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	rec, err := runs.Get(ctx, second.RunID)
	require.NoError(t, err)
	assert.True(t, rec.CacheHit)
	assert.Equal(t, second.CacheKey, rec.CacheKey)
}

func TestRunnerStaleCacheEntry(t *testing.T) {
	ctx := context.Background()
	netlist := writeFile(t, "blinky.json", blinkyJSON)
	mem := cache.NewMemoryCache()
	r := NewRunner(mem, nil, nil)

	opts := Options{Netlist: netlist, Device: "SLG46620V"}
	first, err := r.Execute(ctx, opts)
	require.NoError(t, err)

	require.NoError(t, mem.Set(ctx, first.CacheKey, []byte("{not json"), time.Hour))
	again, err := r.Execute(ctx, opts)
	require.NoError(t, err)
	assert.False(t, again.CacheInfo.PlaceHit)
	assert.True(t, again.Placement.Converged())
}

func TestRunnerFormatsShareCache(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(cache.NewMemoryCache(), nil, nil)

	asJSON, err := r.Execute(ctx, Options{Netlist: writeFile(t, "b.json", blinkyJSON), Device: "SLG46140V"})
	require.NoError(t, err)
	asYAML, err := r.Execute(ctx, Options{Netlist: writeFile(t, "b.yaml", blinkyYAML), Device: "SLG46140V"})
	require.NoError(t, err)

	assert.Equal(t, asJSON.Design.NetlistHash, asYAML.Design.NetlistHash)
	assert.True(t, asYAML.CacheInfo.PlaceHit)
}

func TestRunnerConstraints(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	netlist := writeFile(t, "blinky.json", blinkyJSON)

	res, err := r.Execute(ctx, Options{
		Netlist:     netlist,
		Device:      "SLG46620V",
		Constraints: map[string]string{"cnt": "count_7", "led": "iob_0"},
	})
	require.NoError(t, err)

	got := make(map[string]string)
	for _, p := range res.Report.Placements {
		got[p.Logical] = p.Physical
	}
	assert.Equal(t, "count_7", got["cnt"])
	assert.Equal(t, "iob_0", got["led"])

	_, err = r.Execute(ctx, Options{
		Netlist:     netlist,
		Device:      "SLG46620V",
		Constraints: map[string]string{"cnt": "nowhere"},
	})
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidConstraint), "err = %v", err)
}

func TestRunnerErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)

	var b strings.Builder
	b.WriteString(`{"nodes": [`)
	for i := range 4 {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"name": "c` + string(rune('0'+i)) + `", "label": "COUNT", "outputs": ["OUT"]}`)
	}
	b.WriteString(`]}`)

	tests := []struct {
		name string
		opts Options
		code perrors.Code
	}{
		{"too many counters", Options{Netlist: writeFile(t, "big.json", b.String()), Device: "SLG46140V"}, perrors.ErrCodeInfeasibleCapacity},
		{"missing netlist", Options{Netlist: filepath.Join(t.TempDir(), "nope.json"), Device: "SLG46140V"}, perrors.ErrCodeFileNotFound},
		{"unknown part", Options{Netlist: writeFile(t, "n.json", blinkyJSON), Device: "SLG00000"}, perrors.ErrCodeFileNotFound},
		{"no netlist", Options{Device: "SLG46140V"}, perrors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(ctx, tt.opts)
			require.Error(t, err)
			assert.True(t, perrors.Is(err, tt.code), "err = %v, want %s", err, tt.code)
		})
	}
}

func TestRunnerMultipleSeeds(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Netlist: writeFile(t, "blinky.json", blinkyJSON),
		Device:  "SLG46620V",
		Seeds:   []uint64{3, 1, 2},
	})
	require.NoError(t, err)
	assert.True(t, res.Placement.Converged())
	assert.Contains(t, []uint64{1, 2, 3}, res.Report.Seed)
}

func TestExecuteDocuments(t *testing.T) {
	netDoc, err := io.Decode(strings.NewReader(blinkyJSON), io.FormatJSON)
	require.NoError(t, err)

	r := NewRunner(nil, nil, nil)
	res, err := r.ExecuteDocuments(context.Background(), netDoc, &io.Document{Part: "SLG46140V"}, Options{})
	require.NoError(t, err)
	assert.True(t, res.Placement.Converged())
	assert.Equal(t, "SLG46140V", res.Report.Device)
}

func TestExecuteDocumentsExplicitDevice(t *testing.T) {
	netDoc, err := io.Decode(strings.NewReader(`
nodes:
  - {name: a, label: IOB, outputs: [OUT]}
  - {name: b, label: IOB, inputs: [IN]}
edges:
  - {from: a, from_port: OUT, to: b, to_port: IN}
`), io.FormatYAML)
	require.NoError(t, err)
	devDoc, err := io.Decode(strings.NewReader(`
name: pair
fabric: {kind: direct}
nodes:
  - {name: p0, label: IOB, inputs: [IN], outputs: [OUT]}
  - {name: p1, label: IOB, inputs: [IN], outputs: [OUT]}
edges:
  - {from: p1, from_port: OUT, to: p0, to_port: IN}
`), io.FormatYAML)
	require.NoError(t, err)

	res, err := NewRunner(nil, nil, nil).ExecuteDocuments(context.Background(), netDoc, devDoc, Options{})
	require.NoError(t, err)
	require.True(t, res.Placement.Converged())
	assert.Equal(t, "direct", res.Design.FabricName)
	assert.Equal(t, "pair", res.Report.Device)

	got := make(map[string]string)
	for _, p := range res.Report.Placements {
		got[p.Logical] = p.Physical
	}
	assert.Equal(t, map[string]string{"a": "p1", "b": "p0"}, got)
}

func TestRender(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Netlist: writeFile(t, "blinky.json", blinkyJSON),
		Device:  "SLG46620V",
	})
	require.NoError(t, err)

	out, err := Render(res, []string{FormatJSON, FormatDOT}, RenderOptions{HideFree: true})
	require.NoError(t, err)

	report, err := io.ReadReport(bytes.NewReader(out[FormatJSON]))
	require.NoError(t, err)
	assert.Equal(t, res.Report.Placements, report.Placements)

	dot := string(out[FormatDOT])
	assert.True(t, strings.HasPrefix(dot, "digraph placement"))
	assert.Contains(t, dot, "subgraph cluster_")
	assert.Contains(t, dot, "led")

	_, err = Render(res, []string{"gif"}, RenderOptions{})
	assert.Error(t, err)
}

func TestRunnerVerify(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	opts := Options{Netlist: writeFile(t, "blinky.json", blinkyJSON), Device: "SLG46620V"}

	res, err := r.Execute(ctx, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, io.WriteReport(&buf, res.Report))
	saved, err := io.ReadReport(&buf)
	require.NoError(t, err)

	verified, err := r.Verify(ctx, opts, saved)
	require.NoError(t, err)
	assert.Equal(t, res.Placement.Cost, verified.Placement.Cost)
	assert.Equal(t, res.Report.Placements, verified.Report.Placements)
	assert.Equal(t, res.Report.Stats, verified.Report.Stats)

	// A counter placed on an IOB site cannot be replayed.
	for i := range saved.Placements {
		if saved.Placements[i].Logical == "cnt" {
			saved.Placements[i].Physical = "iob_3"
		}
	}
	_, err = r.Verify(ctx, opts, saved)
	assert.Error(t, err)
}

func TestDesignCheck(t *testing.T) {
	ctx := context.Background()
	opts := Options{Netlist: writeFile(t, "blinky.json", blinkyJSON), Device: "SLG46140V"}
	d, err := Load(ctx, &opts)
	require.NoError(t, err)
	require.NoError(t, d.Check(&opts))

	usage := d.Utilization()
	require.Len(t, usage, 4)
	assert.Equal(t, LabelUsage{Label: "COUNT", Need: 1, Have: 3}, usage[0])
	// LUT2 fits on every LUT site.
	assert.Equal(t, LabelUsage{Label: "LUT2", Need: 1, Have: 10}, usage[1])

	for n := range d.Netlist.Nodes() {
		assert.False(t, n.IsMated(), "check must leave %s unmated", n.Name)
	}

	opts.Constraints = map[string]string{"cnt": "iob_0"}
	d, err = Load(ctx, &opts)
	require.NoError(t, err)
	assert.True(t, perrors.Is(d.Check(&opts), perrors.ErrCodeInvalidConstraint))
}
