// Package inheritance resolves supertype relationships of a module: the direct
// inheritors of every classlike and, for undocumented members, the nearest
// ancestor member whose documentation applies.
//
// Both are computed per source set. A supertype edge pointing at a declaration
// that does not exist in the source set is tolerated; in multiplatform builds a
// common interface is often implemented only on some platforms.
package inheritance

import (
	"git.home.luguber.info/inful/apidoc/internal/extra"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// Inheritor describes one direct subtype.
type Inheritor struct {
	Name string    `json:"name"`
	DRI  model.DRI `json:"dri"`
}

// InheritorsInfo lists the direct subtypes of a classlike per source set, in
// discovery order.
type InheritorsInfo map[model.SourceSetID][]Inheritor

// InheritedDoc points at the ancestor member supplying documentation.
type InheritedDoc struct {
	From     model.DRI      `json:"from"`
	Owner    model.DRI      `json:"owner"`
	Distance int            `json:"distance"`
	Raw      string         `json:"raw"`
	Language model.Language `json:"language"`
}

// InheritedDocumentation holds at most one InheritedDoc per source set.
type InheritedDocumentation map[model.SourceSetID]InheritedDoc

var (
	// InheritorsKey stores InheritorsInfo on supertypes with at least one inheritor.
	InheritorsKey = extra.NewKey[InheritorsInfo]("inheritors")
	// InheritedDocsKey stores InheritedDocumentation on undocumented members.
	InheritedDocsKey = extra.NewKey[InheritedDocumentation]("inherited_docs")
)
