package graph

import "slices"

// Compatibility is the label compatibility table of a logical/physical
// graph pair. It is derived once and never changes during placement.
// Lookups of labels absent from the logical graph fill an internal cache,
// so a Compatibility is not safe for concurrent use.
type Compatibility struct {
	physical   *Graph
	candidates map[Label][]NodeID
	hosts      map[Label][]Label
}

// NewCompatibility derives the table from both graphs. For every label used
// by the logical graph it records, in physical insertion order, the physical
// nodes able to host it and their distinct primary labels.
func NewCompatibility(logical, physical *Graph) *Compatibility {
	c := &Compatibility{
		physical:   physical,
		candidates: make(map[Label][]NodeID),
		hosts:      make(map[Label][]Label),
	}
	for _, l := range logical.Labels() {
		var ids []NodeID
		var hosts []Label
		for p := range physical.Nodes() {
			if !p.Hosts(l) {
				continue
			}
			ids = append(ids, p.ID)
			if !slices.Contains(hosts, p.Label) {
				hosts = append(hosts, p.Label)
			}
		}
		c.candidates[l] = ids
		c.hosts[l] = hosts
	}
	return c
}

// Allows reports whether physical node p may host a logical node labelled l.
func (c *Compatibility) Allows(l Label, p NodeID) bool {
	n, ok := c.physical.Node(p)
	return ok && n.Hosts(l)
}

// Candidates returns the physical nodes able to host l, in insertion order.
// The slice must not be modified.
func (c *Compatibility) Candidates(l Label) []NodeID {
	if ids, ok := c.candidates[l]; ok {
		return ids
	}
	// Label not present in the logical graph at construction time.
	var ids []NodeID
	for p := range c.physical.Nodes() {
		if p.Hosts(l) {
			ids = append(ids, p.ID)
		}
	}
	c.candidates[l] = ids
	return ids
}

// HostLabels returns the physical primary labels that can host l.
func (c *Compatibility) HostLabels(l Label) []Label {
	if _, ok := c.hosts[l]; !ok {
		var hosts []Label
		for _, id := range c.Candidates(l) {
			if pl := c.physical.nodes[id].Label; !slices.Contains(hosts, pl) {
				hosts = append(hosts, pl)
			}
		}
		c.hosts[l] = hosts
	}
	return slices.Clone(c.hosts[l])
}
