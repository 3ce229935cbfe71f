package model

import "strings"

// Callable identifies a function, constructor or property inside its owner.
// Params holds the parameter type names in declaration order.
type Callable struct {
	Name   string   `json:"name" yaml:"name"`
	Params []string `json:"params,omitempty" yaml:"params,omitempty"`
}

// DRI is the stable identity of a declaration across source sets.
//
// Two declarations with the same DRI in different source sets are the same
// declaration seen from different platforms (e.g. an expect/actual pair).
type DRI struct {
	Package    string    `json:"package" yaml:"package"`
	ClassNames string    `json:"class_names,omitempty" yaml:"class_names,omitempty"`
	Callable   *Callable `json:"callable,omitempty" yaml:"callable,omitempty"`
}

// String renders the DRI as "pkg/Outer.Inner/name(T1,T2)". The result is used as
// map key everywhere a DRI needs to be compared.
func (d DRI) String() string {
	var b strings.Builder
	b.WriteString(d.Package)
	b.WriteByte('/')
	b.WriteString(d.ClassNames)
	if d.Callable != nil {
		b.WriteByte('/')
		b.WriteString(d.Callable.Name)
		b.WriteByte('(')
		b.WriteString(strings.Join(d.Callable.Params, ","))
		b.WriteByte(')')
	}
	return b.String()
}

// Equal reports whether both DRIs identify the same declaration.
func (d DRI) Equal(other DRI) bool {
	return d.String() == other.String()
}

// IsZero reports whether the DRI is unset.
func (d DRI) IsZero() bool {
	return d.Package == "" && d.ClassNames == "" && d.Callable == nil
}

// WithClass returns the DRI of a classlike nested in d.
func (d DRI) WithClass(name string) DRI {
	classes := name
	if d.ClassNames != "" {
		classes = d.ClassNames + "." + name
	}
	return DRI{Package: d.Package, ClassNames: classes}
}

// WithCallable returns the DRI of a member of d.
func (d DRI) WithCallable(name string, params ...string) DRI {
	return DRI{
		Package:    d.Package,
		ClassNames: d.ClassNames,
		Callable:   &Callable{Name: name, Params: append([]string(nil), params...)},
	}
}

// Owner strips the callable part, yielding the DRI of the enclosing classlike.
func (d DRI) Owner() DRI {
	return DRI{Package: d.Package, ClassNames: d.ClassNames}
}

// SimpleName returns the innermost name: the callable name if any, otherwise the
// last class name, otherwise the package.
func (d DRI) SimpleName() string {
	if d.Callable != nil {
		return d.Callable.Name
	}
	if d.ClassNames != "" {
		if i := strings.LastIndexByte(d.ClassNames, '.'); i >= 0 {
			return d.ClassNames[i+1:]
		}
		return d.ClassNames
	}
	return d.Package
}
