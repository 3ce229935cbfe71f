// Package content defines the renderable tree handed to renderers: pages that
// hold a tree of content nodes. Nodes carry a DCI (the declarations they
// describe and what kind of content they are) so renderers and tests can locate
// sections without depending on the tree layout.
package content

import (
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// Type discriminates node variants.
type Type string

const (
	TypeGroup  Type = "group"
	TypeTable  Type = "table"
	TypeText   Type = "text"
	TypeHeader Type = "header"
	TypeCode   Type = "code"
)

// Kind tells what a node represents.
type Kind string

const (
	KindMain                   Kind = "main"
	KindComment                Kind = "comment"
	KindBrief                  Kind = "brief"
	KindConstructors           Kind = "constructors"
	KindFunctions              Kind = "functions"
	KindProperties             Kind = "properties"
	KindClasslikes             Kind = "classlikes"
	KindInheritors             Kind = "inheritors"
	KindSymbol                 Kind = "symbol"
	KindParameters             Kind = "parameters"
	KindSourceSetDependentHint Kind = "source_set_dependent_hint"
	KindSample                 Kind = "sample"
	KindDeprecation            Kind = "deprecation"
)

// Style is a rendering hint on text nodes.
type Style string

const (
	StyleMarkup Style = "markup"
	StyleCode   Style = "code"
	StyleLink   Style = "link"
)

// DCI identifies the declarations a node documents and its kind.
type DCI struct {
	DRIs []model.DRI `json:"dris,omitempty"`
	Kind Kind        `json:"kind"`
}

// Node is one element of the content tree.
type Node struct {
	Type       Type                `json:"type"`
	DCI        DCI                 `json:"dci"`
	SourceSets []model.SourceSetID `json:"source_sets,omitempty"`
	Children   []*Node             `json:"children,omitempty"`

	// Text is set on text, header and code nodes.
	Text   string `json:"text,omitempty"`
	Style  Style  `json:"style,omitempty"`
	Target string `json:"target,omitempty"`
	// Level is the header level.
	Level int `json:"level,omitempty"`
}

// Group returns a group node.
func Group(kind Kind, dris []model.DRI, sets []model.SourceSetID, children ...*Node) *Node {
	return &Node{Type: TypeGroup, DCI: DCI{DRIs: dris, Kind: kind}, SourceSets: sets, Children: children}
}

// Table returns a table node whose children are rows.
func Table(kind Kind, dris []model.DRI, sets []model.SourceSetID, rows ...*Node) *Node {
	return &Node{Type: TypeTable, DCI: DCI{DRIs: dris, Kind: kind}, SourceSets: sets, Children: rows}
}

// Text returns a text node.
func Text(kind Kind, dris []model.DRI, sets []model.SourceSetID, text string) *Node {
	return &Node{Type: TypeText, DCI: DCI{DRIs: dris, Kind: kind}, SourceSets: sets, Text: text}
}

// Header returns a header node.
func Header(level int, kind Kind, dris []model.DRI, sets []model.SourceSetID, text string) *Node {
	return &Node{Type: TypeHeader, DCI: DCI{DRIs: dris, Kind: kind}, SourceSets: sets, Text: text, Level: level}
}

// Code returns a code block node.
func Code(kind Kind, dris []model.DRI, sets []model.SourceSetID, text string) *Node {
	return &Node{Type: TypeCode, DCI: DCI{DRIs: dris, Kind: kind}, SourceSets: sets, Text: text}
}

// PlainText concatenates the text of every text node below n, in order.
func (n *Node) PlainText() string {
	var out []byte
	Walk(n, func(c *Node) bool {
		if c.Type == TypeText {
			out = append(out, c.Text...)
		}
		return true
	})
	return string(out)
}

// Page is a unit of output.
type Page struct {
	Name          string      `json:"name"`
	Documentables []model.DRI `json:"documentables,omitempty"`
	Content       *Node       `json:"content,omitempty"`
	Children      []*Page     `json:"children,omitempty"`
}
