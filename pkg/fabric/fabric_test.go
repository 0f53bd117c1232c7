package fabric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/xbpar/pkg/graph"
	"github.com/matzehuels/xbpar/pkg/par"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// line builds n nodes with IN/OUT ports wired 0 -> 1 -> ... -> n-1 and an
// extra side input SEL on every node.
func line(t *testing.T, n int) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	for i := range n {
		id := g.CreateNode(0)
		require.NoError(t, g.AddPort(id, "IN", graph.Input))
		require.NoError(t, g.AddPort(id, "SEL", graph.Input))
		require.NoError(t, g.AddPort(id, "OUT", graph.Output))
		if i > 0 {
			_, err := g.Connect(id-1, "OUT", id, "IN")
			require.NoError(t, err)
		}
	}
	return g
}

func TestHopsReachable(t *testing.T) {
	g := line(t, 5)
	_, err := g.Connect(3, "OUT", 4, "SEL")
	require.NoError(t, err)

	tests := []struct {
		name     string
		max      int
		src, dst graph.NodeID
		dstPort  string
		want     bool
	}{
		{"direct", 1, 0, 1, "IN", true},
		{"direct wrong port", 1, 0, 1, "SEL", false},
		{"two hops", 2, 0, 2, "IN", true},
		{"two hops over limit", 1, 0, 2, "IN", false},
		{"zero max is direct", 0, 0, 1, "IN", true},
		{"last hop port", 4, 0, 4, "SEL", true},
		{"last hop port over limit", 3, 0, 4, "SEL", false},
		{"against direction", 4, 3, 1, "IN", false},
		{"self without loop", 4, 2, 2, "IN", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hops{Max: tt.max}.Reachable(g, tt.src, "OUT", tt.dst, tt.dstPort)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("source port must match", func(t *testing.T) {
		assert.False(t, Hops{Max: 3}.Reachable(g, 0, "SEL", 1, "IN"))
	})
}

func TestHopsDistance(t *testing.T) {
	g := line(t, 4)
	g.CreateNode(0) // isolated

	tests := []struct {
		a, b graph.NodeID
		want int
	}{
		{0, 0, 0},
		{0, 3, 3},
		{3, 0, 3},
		{1, 2, 1},
		{0, 4, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Hops{}.Distance(g, tt.a, tt.b), "Distance(%d, %d)", tt.a, tt.b)
	}
}

func TestHopsPlacesChainWithGaps(t *testing.T) {
	physical := line(t, 6)
	lut := physical.LabelTable().Intern("LUT2") // label 0, shared by every physical node

	logical := graph.New(physical.LabelTable())
	for i := range 3 {
		id := logical.CreateNode(lut)
		require.NoError(t, logical.AddPort(id, "IN", graph.Input))
		require.NoError(t, logical.AddPort(id, "OUT", graph.Output))
		if i > 0 {
			_, err := logical.Connect(id-1, "OUT", id, "IN")
			require.NoError(t, err)
		}
	}
	cfg := par.DefaultConfig()
	cfg.Fabric = Hops{Max: 2}
	cfg.StallLimit = 0

	res, err := par.Run(logical, physical, cfg)
	require.NoError(t, err)
	assert.Equal(t, par.Converged, res.State)
}

func matrixDevice(t *testing.T, perMatrix int) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	for m := range 2 {
		for range perMatrix {
			id, err := g.AddNode(graph.Node{Meta: graph.Metadata{DefaultMatrixKey: m}})
			require.NoError(t, err)
			require.NoError(t, g.AddPort(id, "IN0", graph.Input))
			require.NoError(t, g.AddPort(id, "OUT", graph.Output))
		}
	}
	return g
}

func TestMatrixCongestion(t *testing.T) {
	physical := matrixDevice(t, 3) // 0..2 in matrix 0, 3..5 in matrix 1
	logical := graph.New(physical.LabelTable())
	for range 4 {
		id := logical.CreateNode(0)
		require.NoError(t, logical.AddPort(id, "IN0", graph.Input))
		require.NoError(t, logical.AddPort(id, "OUT", graph.Output))
	}
	// 0 fans out to 1 and 2, and 3 drives 0.
	for _, e := range [][2]graph.NodeID{{0, 1}, {0, 2}, {3, 0}} {
		_, err := logical.Connect(e[0], "OUT", e[1], "IN0")
		require.NoError(t, err)
	}

	m := graph.NewMating(logical, physical)
	for l, p := range []graph.NodeID{0, 3, 4, 1} {
		require.NoError(t, m.Mate(graph.NodeID(l), p))
	}

	fab := Matrix{CrossCapacity: 0}
	crossings := fab.Crossings(m)
	assert.Equal(t, 1, crossings[[2]int{0, 1}], "fan-out shares one crossing")
	assert.Zero(t, crossings[[2]int{1, 0}])
	assert.Equal(t, 1, fab.Congestion(m))

	assert.Zero(t, Matrix{CrossCapacity: 1}.Congestion(m))
	assert.True(t, fab.Reachable(physical, 0, "OUT", 5, "IN0"))
	assert.Equal(t, 0, fab.Distance(physical, 0, 2))
	assert.Equal(t, 1, fab.Distance(physical, 0, 5))
}

func TestMatrixFallsBackToDirect(t *testing.T) {
	g := line(t, 3)
	fab := Matrix{}
	assert.True(t, fab.Reachable(g, 0, "OUT", 1, "IN"))
	assert.False(t, fab.Reachable(g, 0, "OUT", 2, "IN"))
	assert.Equal(t, -1, fab.Distance(g, 0, 1))
}

func TestMatrixIndexTypes(t *testing.T) {
	fab := Matrix{Key: "m"}
	tests := []struct {
		name string
		val  any
		want int
		ok   bool
	}{
		{"int", 1, 1, true},
		{"int64", int64(2), 2, true},
		{"float64 from json", float64(1), 1, true},
		{"string", "1", 0, false},
		{"missing", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &graph.Node{Meta: graph.Metadata{}}
			if tt.val != nil {
				n.Meta["m"] = tt.val
			}
			got, ok := fab.Index(n)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGreenpak(t *testing.T) {
	for _, part := range Parts() {
		t.Run(part, func(t *testing.T) {
			g, err := Greenpak(part, nil)
			require.NoError(t, err)
			assert.Equal(t, part, g.Meta()[MetaPart])

			lt := g.LabelTable()
			lut2, _ := lt.Lookup(LabelLUT2)
			lut4, _ := lt.Lookup(LabelLUT4)

			n, ok := g.NodeByName("lut4_0")
			require.True(t, ok)
			assert.True(t, n.Hosts(lut2))
			assert.True(t, n.Hosts(lut4))
			_, hasIn3 := n.Port("IN3")
			assert.True(t, hasIn3)

			dff, ok := g.NodeByName("dff_0")
			require.True(t, ok)
			q, _ := dff.Port("Q")
			assert.Equal(t, graph.Output, q.Dir)

			fab, ok := MatrixFor(g)
			require.True(t, ok)
			_, indexed := fab.Index(n)
			assert.True(t, indexed)
		})
	}

	g, err := Greenpak("slg46620v", nil)
	require.NoError(t, err)
	fab, _ := MatrixFor(g)
	assert.Equal(t, 10, fab.CrossCapacity)
	assert.Equal(t, 2, g.Meta()[MetaMatrices])

	_, err = Greenpak("XC7A35T", nil)
	assert.True(t, perrors.Is(err, perrors.ErrCodeUnsupported))

	_, ok := MatrixFor(graph.New(nil))
	assert.False(t, ok)
}

func TestPlaceOnGreenpak(t *testing.T) {
	labels := graph.NewLabelTable()
	device, err := Greenpak("SLG46620V", labels)
	require.NoError(t, err)
	fab, _ := MatrixFor(device)

	// Counter feeding a LUT3 feeding a DFF, plus eight LUT2s that only fit
	// on LUT2, LUT3 or LUT4 sites.
	netlist := graph.New(labels)
	add := func(label string, in []string, out string) graph.NodeID {
		id := netlist.CreateNode(labels.Intern(label))
		for _, p := range in {
			require.NoError(t, netlist.AddPort(id, p, graph.Input))
		}
		require.NoError(t, netlist.AddPort(id, out, graph.Output))
		return id
	}
	cnt := add(LabelCount, []string{"RST", "CLK"}, "OUT")
	lut := add(LabelLUT3, []string{"IN0", "IN1", "IN2"}, "OUT")
	ff := add(LabelDFF, []string{"D", "CLK"}, "Q")
	_, err = netlist.Connect(cnt, "OUT", lut, "IN0")
	require.NoError(t, err)
	_, err = netlist.Connect(lut, "OUT", ff, "D")
	require.NoError(t, err)
	prev := ff
	for range 8 {
		l := add(LabelLUT2, []string{"IN0", "IN1"}, "OUT")
		_, err = netlist.Connect(prev, outPort(netlist, prev), l, "IN0")
		require.NoError(t, err)
		prev = l
	}

	cfg := par.DefaultConfig()
	cfg.Fabric = fab
	res, err := par.Run(netlist, device, cfg)
	require.NoError(t, err)
	assert.Equal(t, par.Converged, res.State)
	assert.Len(t, res.Assignment, netlist.NodeCount())
	require.NoError(t, graph.NewMating(netlist, device).Verify())
}

func outPort(g *graph.Graph, id graph.NodeID) string {
	n, _ := g.Node(id)
	for _, p := range n.Ports() {
		if p.Dir == graph.Output {
			return p.Name
		}
	}
	return ""
}
