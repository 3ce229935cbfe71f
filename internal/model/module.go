package model

import (
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
)

// Module is the declaration graph of one build: the declaration tree plus the
// per-source-set supertype edges carried by each classlike.
type Module struct {
	Name         string
	SourceSets   []SourceSet
	Declarations []*Declaration

	index   map[string]*Declaration
	parents map[string]*Declaration
}

// NewModule indexes the declaration tree. It fails on duplicate DRIs and on
// declarations placed in source sets the module does not know about.
func NewModule(name string, sourceSets []SourceSet, decls []*Declaration) (*Module, error) {
	m := &Module{
		Name:         name,
		SourceSets:   sourceSets,
		Declarations: decls,
		index:        make(map[string]*Declaration),
		parents:      make(map[string]*Declaration),
	}
	known := make(map[SourceSetID]bool, len(sourceSets))
	for _, s := range sourceSets {
		if known[s.ID] {
			return nil, errors.ModelError("duplicate source set").
				WithContext("source_set", string(s.ID)).
				Build()
		}
		known[s.ID] = true
	}

	var err error
	m.Walk(func(d, parent *Declaration) bool {
		key := d.DRI.String()
		if _, dup := m.index[key]; dup {
			err = errors.ModelError("duplicate declaration").
				WithContext("dri", key).
				Build()
			return false
		}
		for _, s := range d.SourceSets {
			if !known[s] {
				err = errors.ModelError("declaration references unknown source set").
					WithContext("dri", key).
					WithContext("source_set", string(s)).
					Build()
				return false
			}
		}
		m.index[key] = d
		if parent != nil {
			m.parents[key] = parent
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Walk visits every declaration depth-first in declaration order. Returning
// false from fn stops the walk.
func (m *Module) Walk(fn func(d, parent *Declaration) bool) {
	var visit func(d, parent *Declaration) bool
	visit = func(d, parent *Declaration) bool {
		if !fn(d, parent) {
			return false
		}
		for _, c := range d.Children {
			if !visit(c, d) {
				return false
			}
		}
		return true
	}
	for _, d := range m.Declarations {
		if !visit(d, nil) {
			return
		}
	}
}

// Lookup finds a declaration by DRI.
func (m *Module) Lookup(dri DRI) (*Declaration, bool) {
	d, ok := m.index[dri.String()]
	return d, ok
}

// LookupIn finds a declaration by DRI and requires it to exist in the source set.
func (m *Module) LookupIn(dri DRI, id SourceSetID) (*Declaration, bool) {
	d, ok := m.Lookup(dri)
	if !ok || !d.ExistsIn(id) {
		return nil, false
	}
	return d, true
}

// Parent returns the enclosing declaration, if any.
func (m *Module) Parent(d *Declaration) (*Declaration, bool) {
	p, ok := m.parents[d.DRI.String()]
	return p, ok
}

// SourceSet returns the source set with the given ID.
func (m *Module) SourceSet(id SourceSetID) (SourceSet, bool) {
	for _, s := range m.SourceSets {
		if s.ID == id {
			return s, true
		}
	}
	return SourceSet{}, false
}

// Classlikes returns every classlike in the module in walk order.
func (m *Module) Classlikes() []*Declaration {
	var out []*Declaration
	m.Walk(func(d, _ *Declaration) bool {
		if d.Kind.IsClasslike() {
			out = append(out, d)
		}
		return true
	})
	return out
}

// Packages returns the package names of top-level declarations in first-seen order.
func (m *Module) Packages() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range m.Declarations {
		if !seen[d.DRI.Package] {
			seen[d.DRI.Package] = true
			out = append(out, d.DRI.Package)
		}
	}
	return out
}
