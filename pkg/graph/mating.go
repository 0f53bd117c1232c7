package graph

import (
	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// Mating owns the logical↔physical mate references of a graph pair.
//
// Every method updates both sides of a pair together: after any call,
// logical L is mated to physical P exactly when P is mated to L. Mate
// references are stored on the nodes as indices into the other graph.
type Mating struct {
	logical  *Graph
	physical *Graph
}

// NewMating binds a logical and a physical graph. Existing mate references
// on the nodes are kept. Call Reset to start from an empty placement.
func NewMating(logical, physical *Graph) *Mating {
	return &Mating{logical: logical, physical: physical}
}

// Logical returns the logical graph.
func (m *Mating) Logical() *Graph { return m.logical }

// Physical returns the physical graph.
func (m *Mating) Physical() *Graph { return m.physical }

// PhysicalOf returns the physical mate of logical node l, or None.
func (m *Mating) PhysicalOf(l NodeID) NodeID {
	if n, ok := m.logical.Node(l); ok {
		return n.mate
	}
	return None
}

// LogicalOf returns the logical mate of physical node p, or None.
func (m *Mating) LogicalOf(p NodeID) NodeID {
	if n, ok := m.physical.Node(p); ok {
		return n.mate
	}
	return None
}

// Mate pairs l with p. Any previous partner of l and of p is unmated first.
func (m *Mating) Mate(l, p NodeID) error {
	ln, pn, err := m.nodes(l, p)
	if err != nil {
		return err
	}
	m.unmateLogical(ln)
	if pn.mate != None {
		m.unmateLogical(m.logical.nodes[pn.mate])
	}
	ln.mate = p
	pn.mate = l
	return nil
}

// Unmate clears the pairing of logical node l, if any.
func (m *Mating) Unmate(l NodeID) {
	if ln, ok := m.logical.Node(l); ok {
		m.unmateLogical(ln)
	}
}

func (m *Mating) unmateLogical(ln *Node) {
	if ln.mate == None {
		return
	}
	m.physical.nodes[ln.mate].mate = None
	ln.mate = None
}

// Move relocates logical node l onto the unmated physical node p.
// It fails without changing anything if p already has a mate.
func (m *Mating) Move(l, p NodeID) error {
	_, pn, err := m.nodes(l, p)
	if err != nil {
		return err
	}
	if pn.mate != None && pn.mate != l {
		return perrors.New(perrors.ErrCodeInternal, "move: physical %s is mated to %s",
			pn.DisplayName(), m.logical.nodes[pn.mate].DisplayName())
	}
	return m.Mate(l, p)
}

// Swap exchanges the physical mates of logical nodes a and b. Both must be
// mated. No other node's mating changes.
func (m *Mating) Swap(a, b NodeID) error {
	an, ok := m.logical.Node(a)
	if !ok {
		return perrors.New(perrors.ErrCodeUnknownNode, "logical node %d does not exist", a)
	}
	bn, ok := m.logical.Node(b)
	if !ok {
		return perrors.New(perrors.ErrCodeUnknownNode, "logical node %d does not exist", b)
	}
	if an.mate == None || bn.mate == None {
		return perrors.New(perrors.ErrCodeInternal, "swap: %s and %s must both be mated", an.DisplayName(), bn.DisplayName())
	}
	if a == b {
		return nil
	}
	pa, pb := an.mate, bn.mate
	an.mate, bn.mate = pb, pa
	m.physical.nodes[pa].mate = b
	m.physical.nodes[pb].mate = a
	return nil
}

// Reset unmates every node in both graphs.
func (m *Mating) Reset() {
	for _, n := range m.logical.nodes {
		n.mate = None
	}
	for _, n := range m.physical.nodes {
		n.mate = None
	}
}

// Count returns the number of mated pairs.
func (m *Mating) Count() int {
	c := 0
	for _, n := range m.logical.nodes {
		if n.mate != None {
			c++
		}
	}
	return c
}

// Snapshot returns the physical mate of every logical node, indexed by
// logical NodeID.
func (m *Mating) Snapshot() []NodeID {
	s := make([]NodeID, len(m.logical.nodes))
	for i, n := range m.logical.nodes {
		s[i] = n.mate
	}
	return s
}

// Restore replaces the current placement with a snapshot taken earlier.
func (m *Mating) Restore(s []NodeID) error {
	if len(s) != len(m.logical.nodes) {
		return perrors.New(perrors.ErrCodeInvalidInput, "snapshot has %d entries, graph has %d logical nodes", len(s), len(m.logical.nodes))
	}
	seen := make(map[NodeID]NodeID, len(s))
	for l, p := range s {
		if p == None {
			continue
		}
		if _, ok := m.physical.Node(p); !ok {
			return perrors.New(perrors.ErrCodeUnknownNode, "snapshot references physical node %d", p)
		}
		if other, dup := seen[p]; dup {
			return perrors.New(perrors.ErrCodeInvalidInput, "snapshot mates logical %d and %d to physical %d", other, l, p)
		}
		seen[p] = NodeID(l)
	}
	m.Reset()
	for l, p := range s {
		if p != None {
			m.logical.nodes[l].mate = p
			m.physical.nodes[p].mate = NodeID(l)
		}
	}
	return nil
}

// Verify checks that every mate reference is reciprocated.
func (m *Mating) Verify() error {
	for _, ln := range m.logical.nodes {
		if ln.mate == None {
			continue
		}
		pn, ok := m.physical.Node(ln.mate)
		if !ok || pn.mate != ln.ID {
			return perrors.New(perrors.ErrCodeInternal, "logical %s -> physical %d is not reciprocated", ln.DisplayName(), ln.mate)
		}
	}
	for _, pn := range m.physical.nodes {
		if pn.mate == None {
			continue
		}
		ln, ok := m.logical.Node(pn.mate)
		if !ok || ln.mate != pn.ID {
			return perrors.New(perrors.ErrCodeInternal, "physical %s -> logical %d is not reciprocated", pn.DisplayName(), pn.mate)
		}
	}
	return nil
}

func (m *Mating) nodes(l, p NodeID) (*Node, *Node, error) {
	ln, ok := m.logical.Node(l)
	if !ok {
		return nil, nil, perrors.New(perrors.ErrCodeUnknownNode, "logical node %d does not exist", l)
	}
	pn, ok := m.physical.Node(p)
	if !ok {
		return nil, nil, perrors.New(perrors.ErrCodeUnknownNode, "physical node %d does not exist", p)
	}
	return ln, pn, nil
}
