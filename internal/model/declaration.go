package model

// Kind classifies a declaration.
type Kind string

const (
	KindPackage     Kind = "package"
	KindClass       Kind = "class"
	KindInterface   Kind = "interface"
	KindObject      Kind = "object"
	KindEnum        Kind = "enum"
	KindFunction    Kind = "function"
	KindProperty    Kind = "property"
	KindConstructor Kind = "constructor"
)

// IsClasslike reports whether declarations of this kind can have members and supertypes.
func (k Kind) IsClasslike() bool {
	switch k {
	case KindClass, KindInterface, KindObject, KindEnum:
		return true
	default:
		return false
	}
}

// IsMember reports whether the kind is a callable member.
func (k Kind) IsMember() bool {
	switch k {
	case KindFunction, KindProperty, KindConstructor:
		return true
	default:
		return false
	}
}

// Language is the source language a declaration was written in. It decides
// which comment dialect applies to its raw documentation.
type Language string

const (
	LanguageKotlin Language = "kotlin"
	LanguageJava   Language = "java"
)

// TypeRef points at a supertype together with the type arguments used at the
// reference site, e.g. `List2<E>` seen from `MutableList2<E>`.
type TypeRef struct {
	DRI       DRI      `json:"dri" yaml:"dri"`
	Arguments []string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// Parameter is a formal parameter of a function or constructor.
type Parameter struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Declaration is a node produced by the front-end. Declarations are immutable once
// the pipeline starts; derived data lives in an extra.Store, never on the node.
type Declaration struct {
	DRI      DRI
	Name     string
	Kind     Kind
	Language Language

	// SourceSets lists every source set the declaration exists in.
	SourceSets []SourceSetID

	// Docs holds the raw documentation comment per source set.
	Docs map[SourceSetID]string

	// Supertypes holds the ordered direct supertypes per source set. Only classlikes have them.
	Supertypes map[SourceSetID][]TypeRef

	TypeParams []string
	Params     []Parameter

	// Primary marks the primary constructor of a class.
	Primary bool

	Children []*Declaration
}

// ExistsIn reports whether the declaration is present in the given source set.
func (d *Declaration) ExistsIn(id SourceSetID) bool {
	for _, s := range d.SourceSets {
		if s == id {
			return true
		}
	}
	return false
}

// Doc returns the raw comment for a source set.
func (d *Declaration) Doc(id SourceSetID) (string, bool) {
	raw, ok := d.Docs[id]
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

// SupertypesIn returns the ordered direct supertypes in a source set.
func (d *Declaration) SupertypesIn(id SourceSetID) []TypeRef {
	return d.Supertypes[id]
}

// Members returns the direct children of the given kind, in declaration order.
func (d *Declaration) Members(kind Kind) []*Declaration {
	var out []*Declaration
	for _, c := range d.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Classlikes returns nested classlike children.
func (d *Declaration) Classlikes() []*Declaration {
	var out []*Declaration
	for _, c := range d.Children {
		if c.Kind.IsClasslike() {
			out = append(out, c)
		}
	}
	return out
}

// ParamTypes returns the parameter type names in order.
func (d *Declaration) ParamTypes() []string {
	out := make([]string, len(d.Params))
	for i, p := range d.Params {
		out[i] = p.Type
	}
	return out
}
