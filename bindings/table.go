package bindings

import (
	"ownsim/store"
	"ownsim/types"
)

// Binding is a name valid within a lexical scope, pointing to exactly one slot
type Binding struct {
	Name    string
	Slot    store.SlotID
	Mutable bool
}

// Dropper ends the lifetime of a slot when its scope is popped
type Dropper interface {
	Drop(id store.SlotID) error
}

// scope is one lexical block; bindings are kept in declaration order
type scope struct {
	bindings []*Binding
	boundary bool // function body: name lookup stops here
}

// Table manages bindings with lexical scoping.
// Re-declaring a name shadows the previous binding; the shadowed slot stays
// alive until its scope is popped, so borrows taken before shadowing stay valid.
type Table struct {
	scopes []*scope
}

// NewTable creates a table with one open (outermost) scope
func NewTable() *Table {
	return &Table{scopes: []*scope{{boundary: true}}}
}

// Push opens a new scope. A boundary scope hides every enclosing scope
// from Resolve (used for function bodies).
func (t *Table) Push(boundary bool) {
	t.scopes = append(t.scopes, &scope{boundary: boundary})
}

// Pop closes the innermost scope, dropping its slots in reverse declaration
// order. Every slot is attempted; the first failure is returned.
func (t *Table) Pop(d Dropper) error {
	if len(t.scopes) == 0 {
		return types.NewFault(types.F_TYPE_MISMATCH, "scope stack underflow")
	}
	top := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]

	var first error
	for i := len(top.bindings) - 1; i >= 0; i-- {
		if err := d.Drop(top.bindings[i].Slot); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Declare binds name to slot in the innermost scope
func (t *Table) Declare(name string, slot store.SlotID, mutable bool) *Binding {
	b := &Binding{Name: name, Slot: slot, Mutable: mutable}
	top := t.scopes[len(t.scopes)-1]
	top.bindings = append(top.bindings, b)
	return b
}

// Resolve finds the innermost visible binding of name.
// Searches the current scope, then enclosing scopes up to the nearest boundary.
func (t *Table) Resolve(name string) (*Binding, error) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		s := t.scopes[i]
		for j := len(s.bindings) - 1; j >= 0; j-- {
			if s.bindings[j].Name == name {
				return s.bindings[j], nil
			}
		}
		if s.boundary {
			break
		}
	}
	return nil, types.NewFault(types.F_UNKNOWN_NAME, "cannot find value `%s` in this scope", name)
}

// Visible returns the bindings Resolve can currently reach, outermost first,
// with shadowed bindings omitted
func (t *Table) Visible() []*Binding {
	start := len(t.scopes) - 1
	for start > 0 && !t.scopes[start].boundary {
		start--
	}

	seen := make(map[string]bool)
	var rev []*Binding
	for i := len(t.scopes) - 1; i >= start; i-- {
		s := t.scopes[i]
		for j := len(s.bindings) - 1; j >= 0; j-- {
			b := s.bindings[j]
			if !seen[b.Name] {
				seen[b.Name] = true
				rev = append(rev, b)
			}
		}
	}

	out := make([]*Binding, len(rev))
	for i, b := range rev {
		out[len(rev)-1-i] = b
	}
	return out
}
