package graph

import (
	"fmt"
	"slices"
)

// Label is a type tag ("LUT2", "COUNTER", "IOB") used for compatibility checks.
type Label int

// LabelTable interns label names so that graphs built from different files
// agree on label values. Labels are assigned densely from zero in
// first-intern order.
type LabelTable struct {
	names []string
	ids   map[string]Label
}

// NewLabelTable creates a table pre-populated with names, in order.
func NewLabelTable(names ...string) *LabelTable {
	t := &LabelTable{ids: make(map[string]Label)}
	for _, n := range names {
		t.Intern(n)
	}
	return t
}

// Intern returns the label for name, allocating it on first use.
func (t *LabelTable) Intern(name string) Label {
	if l, ok := t.ids[name]; ok {
		return l
	}
	l := Label(len(t.names))
	t.names = append(t.names, name)
	t.ids[name] = l
	return l
}

// Lookup returns the label for name without allocating.
func (t *LabelTable) Lookup(name string) (Label, bool) {
	l, ok := t.ids[name]
	return l, ok
}

// Name returns the name of l, or "label#N" for labels this table never issued.
func (t *LabelTable) Name(l Label) string {
	if l >= 0 && int(l) < len(t.names) {
		return t.names[l]
	}
	return fmt.Sprintf("label#%d", int(l))
}

// Len returns the number of interned labels.
func (t *LabelTable) Len() int { return len(t.names) }

// Names returns the interned names in label order.
func (t *LabelTable) Names() []string { return slices.Clone(t.names) }
