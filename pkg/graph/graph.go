package graph

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// NodeID is a stable index into a graph's node arena.
type NodeID int

// None is the NodeID used for "no node", e.g. an unmated node's mate.
const None NodeID = -1

// EdgeID is the index of an edge in its graph's edge list.
type EdgeID int

// Direction is the role of a port.
type Direction int

const (
	// Input ports receive signals.
	Input Direction = iota
	// Output ports drive signals.
	Output
)

// String returns "input" or "output".
func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection converts "input"/"in" and "output"/"out" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "input", "in":
		return Input, nil
	case "output", "out":
		return Output, nil
	}
	return 0, perrors.New(perrors.ErrCodeInvalidInput, "unknown port direction %q", s)
}

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// Fabric strategies read placement hints from it (e.g. a routing matrix index).
type Metadata map[string]any

// Port is a named, directed connection point on a node.
type Port struct {
	Name string
	Dir  Direction
}

// Edge is a directed connection from an output port to an input port.
// Edges are immutable once added.
type Edge struct {
	ID       EdgeID
	From     NodeID
	FromPort string
	To       NodeID
	ToPort   string
}

// Other returns the endpoint of e that is not id. For self-loops it returns id.
func (e Edge) Other(id NodeID) NodeID {
	if e.From == id {
		return e.To
	}
	return e.From
}

// Touches reports whether id is one of e's endpoints.
func (e Edge) Touches(id NodeID) bool { return e.From == id || e.To == id }

// Node is one logical instance or one physical resource.
//
// Name, Meta and Alternates may be set before the node is added with
// [Graph.AddNode]. Ports, edges and the mate reference are managed by the
// graph and by [Mating].
type Node struct {
	ID         NodeID
	Label      Label
	Alternates []Label  // additional labels this node can host (physical graphs)
	Name       string   // optional, unique within the graph when set
	Meta       Metadata // never nil after AddNode

	ports []Port
	edges []EdgeID // incident edges in insertion order, both directions
	mate  NodeID
}

// Ports returns a copy of the node's ports in registration order.
func (n *Node) Ports() []Port { return slices.Clone(n.ports) }

// Port returns the port with the given name.
func (n *Node) Port(name string) (Port, bool) {
	for _, p := range n.ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// EdgeIDs returns the incident edge IDs. The slice must not be modified.
func (n *Node) EdgeIDs() []EdgeID { return n.edges }

// Degree is the number of incident edges. A self-loop counts twice.
func (n *Node) Degree() int { return len(n.edges) }

// Mate returns the node's current partner in the other graph.
func (n *Node) Mate() (NodeID, bool) { return n.mate, n.mate != None }

// IsMated reports whether the node currently has a partner.
func (n *Node) IsMated() bool { return n.mate != None }

// Hosts reports whether the node's primary or alternate labels include l.
func (n *Node) Hosts(l Label) bool {
	return n.Label == l || slices.Contains(n.Alternates, l)
}

// DisplayName returns Name, or "n<ID>" for anonymous nodes.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("n%d", n.ID)
}

// Graph is an ordered collection of nodes and the directed edges between
// their ports.
//
// The zero value is not usable - use New to create a Graph.
type Graph struct {
	labels  *LabelTable
	nodes   []*Node
	edges   []Edge
	byLabel map[Label][]NodeID
	byName  map[string]NodeID
	order   []Label // primary labels in first-seen order
	meta    Metadata
}

// New creates an empty graph using the given label table. A nil table gets
// a fresh one; pass the same table to the logical and physical graphs
// of a run.
func New(labels *LabelTable) *Graph {
	if labels == nil {
		labels = NewLabelTable()
	}
	return &Graph{
		labels:  labels,
		byLabel: make(map[Label][]NodeID),
		byName:  make(map[string]NodeID),
		meta:    Metadata{},
	}
}

// LabelTable returns the table used to name this graph's labels.
func (g *Graph) LabelTable() *LabelTable { return g.labels }

// LabelName returns the human-readable name of l.
func (g *Graph) LabelName(l Label) string { return g.labels.Name(l) }

// Meta returns the graph-level metadata map. It is never nil.
func (g *Graph) Meta() Metadata { return g.meta }

// CreateNode allocates an anonymous node with no ports or edges.
func (g *Graph) CreateNode(label Label) NodeID {
	id, _ := g.AddNode(Node{Label: label})
	return id
}

// AddNode appends a node and returns its ID. The ID, ports and edges of n
// are ignored. Returns DUPLICATE_NODE_NAME if n.Name is already taken.
func (g *Graph) AddNode(n Node) (NodeID, error) {
	if n.Name != "" {
		if _, exists := g.byName[n.Name]; exists {
			return None, perrors.New(perrors.ErrCodeDuplicateNodeName, "node name %q already in use", n.Name)
		}
	}
	id := NodeID(len(g.nodes))
	node := &Node{
		ID:         id,
		Label:      n.Label,
		Alternates: slices.Clone(n.Alternates),
		Name:       n.Name,
		Meta:       n.Meta,
		mate:       None,
	}
	if node.Meta == nil {
		node.Meta = Metadata{}
	}
	g.nodes = append(g.nodes, node)
	if _, seen := g.byLabel[n.Label]; !seen {
		g.order = append(g.order, n.Label)
	}
	g.byLabel[n.Label] = append(g.byLabel[n.Label], id)
	if n.Name != "" {
		g.byName[n.Name] = id
	}
	return id, nil
}

// AddPort registers a named port on a node.
// Returns UNKNOWN_NODE for a bad id and DUPLICATE_PORT if the name exists.
func (g *Graph) AddPort(id NodeID, name string, dir Direction) error {
	n, ok := g.Node(id)
	if !ok {
		return perrors.New(perrors.ErrCodeUnknownNode, "node %d does not exist", id)
	}
	if _, exists := n.Port(name); exists {
		return perrors.New(perrors.ErrCodeDuplicatePort, "node %s: port %q already registered", n.DisplayName(), name)
	}
	n.ports = append(n.ports, Port{Name: name, Dir: dir})
	return nil
}

// Connect adds a directed edge from src's output port to dst's input port.
//
// Returns UNKNOWN_NODE or UNKNOWN_PORT when an endpoint is missing, and
// PORT_DIRECTION_MISMATCH unless srcPort is an output and dstPort an input.
// Self-loops and parallel edges are allowed.
func (g *Graph) Connect(src NodeID, srcPort string, dst NodeID, dstPort string) (EdgeID, error) {
	from, err := g.port(src, srcPort)
	if err != nil {
		return -1, err
	}
	to, err := g.port(dst, dstPort)
	if err != nil {
		return -1, err
	}
	if from.Dir != Output || to.Dir != Input {
		return -1, perrors.New(perrors.ErrCodePortDirection,
			"edge %s.%s (%s) -> %s.%s (%s): must connect an output to an input",
			g.nodes[src].DisplayName(), srcPort, from.Dir,
			g.nodes[dst].DisplayName(), dstPort, to.Dir)
	}

	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{ID: id, From: src, FromPort: srcPort, To: dst, ToPort: dstPort})
	g.nodes[src].edges = append(g.nodes[src].edges, id)
	g.nodes[dst].edges = append(g.nodes[dst].edges, id)
	return id, nil
}

func (g *Graph) port(id NodeID, name string) (Port, error) {
	n, ok := g.Node(id)
	if !ok {
		return Port{}, perrors.New(perrors.ErrCodeUnknownNode, "node %d does not exist", id)
	}
	p, ok := n.Port(name)
	if !ok {
		return Port{}, perrors.New(perrors.ErrCodeUnknownPort, "node %s has no port %q", n.DisplayName(), name)
	}
	return p, nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// NodeByName looks up a named node.
func (g *Graph) NodeByName(name string) (*Node, bool) {
	id, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// Edge returns the edge with the given ID. It panics on an out-of-range ID.
func (g *Graph) Edge(id EdgeID) Edge { return g.edges[id] }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes yields every node in insertion order.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, n := range g.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// NodesWithLabel yields the nodes whose primary label is l, in insertion
// order. The sequence is lazy and can be ranged over any number of times.
func (g *Graph) NodesWithLabel(l Label) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, id := range g.byLabel[l] {
			if !yield(g.nodes[id]) {
				return
			}
		}
	}
}

// UnmatedNodes yields nodes with no current mate, in insertion order.
func (g *Graph) UnmatedNodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, n := range g.nodes {
			if n.mate == None && !yield(n) {
				return
			}
		}
	}
}

// EdgesOf yields the edges incident to id (both directions) in insertion order.
func (g *Graph) EdgesOf(id NodeID) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		n, ok := g.Node(id)
		if !ok {
			return
		}
		for _, eid := range n.edges {
			if !yield(g.edges[eid]) {
				return
			}
		}
	}
}

// OutEdges yields the edges leaving id in insertion order.
func (g *Graph) OutEdges(id NodeID) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for e := range g.EdgesOf(id) {
			if e.From == id && !yield(e) {
				return
			}
		}
	}
}

// HasEdge reports whether an edge src.srcPort -> dst.dstPort exists.
func (g *Graph) HasEdge(src NodeID, srcPort string, dst NodeID, dstPort string) bool {
	for e := range g.OutEdges(src) {
		if e.To == dst && e.FromPort == srcPort && e.ToPort == dstPort {
			return true
		}
	}
	return false
}

// Degree returns the number of edges incident to id, or 0 if it doesn't exist.
func (g *Graph) Degree(id NodeID) int {
	if n, ok := g.Node(id); ok {
		return n.Degree()
	}
	return 0
}

// Labels returns the distinct primary labels in first-seen order.
func (g *Graph) Labels() []Label { return slices.Clone(g.order) }

// LabelCount returns the number of nodes whose primary label is l.
func (g *Graph) LabelCount(l Label) int { return len(g.byLabel[l]) }

// Clone returns a deep copy of the graph that shares the label table.
// Mate references on the copy are cleared.
func (g *Graph) Clone() *Graph {
	c := New(g.labels)
	c.meta = maps.Clone(g.meta)
	c.order = slices.Clone(g.order)
	c.edges = slices.Clone(g.edges)
	c.nodes = make([]*Node, len(g.nodes))
	for i, n := range g.nodes {
		c.nodes[i] = &Node{
			ID:         n.ID,
			Label:      n.Label,
			Alternates: slices.Clone(n.Alternates),
			Name:       n.Name,
			Meta:       maps.Clone(n.Meta),
			ports:      slices.Clone(n.ports),
			edges:      slices.Clone(n.edges),
			mate:       None,
		}
	}
	for l, ids := range g.byLabel {
		c.byLabel[l] = slices.Clone(ids)
	}
	maps.Copy(c.byName, g.byName)
	return c
}
