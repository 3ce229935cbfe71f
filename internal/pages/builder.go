// Package pages turns an enriched module into the page tree handed to renderers.
//
// The module page has one child per package. A package page lists its
// classlikes and top-level members; every classlike gets its own page, with
// nested classlikes as child pages. Member tables hold one row per overload
// group. Inside a row, a source-set-dependent hint alternates the signature of
// each overload with its brief.
package pages

import (
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/apidoc/internal/brief"
	"git.home.luguber.info/inful/apidoc/internal/comment"
	"git.home.luguber.info/inful/apidoc/internal/content"
	"git.home.luguber.info/inful/apidoc/internal/documentables"
	"git.home.luguber.info/inful/apidoc/internal/extra"
	"git.home.luguber.info/inful/apidoc/internal/inheritance"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"git.home.luguber.info/inful/apidoc/internal/util/sets"
)

// Builder builds pages from a module and the derived data in a store.
type Builder struct {
	module *model.Module
	store  *extra.Store
	logger *slog.Logger
	failed int
}

// NewBuilder returns a builder. store may be nil, in which case comments are
// parsed on demand and no inherited documentation is available.
func NewBuilder(m *model.Module, store *extra.Store, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{module: m, store: store, logger: logger}
}

// Failed returns how many classlike pages degraded to a bare header.
func (b *Builder) Failed() int { return b.failed }

// Build returns the module page.
func (b *Builder) Build() *content.Page {
	root := &content.Page{
		Name:    b.module.Name,
		Content: content.Group(content.KindMain, nil, b.allSets(), content.Header(1, content.KindMain, nil, b.allSets(), b.module.Name)),
	}
	for _, pkg := range b.module.Packages() {
		root.Children = append(root.Children, b.packagePage(pkg))
	}
	return root
}

func (b *Builder) allSets() []model.SourceSetID {
	out := make([]model.SourceSetID, len(b.module.SourceSets))
	for i, s := range b.module.SourceSets {
		out[i] = s.ID
	}
	return out
}

func (b *Builder) packagePage(pkg string) *content.Page {
	dri := model.DRI{Package: pkg}
	var classlikes, functions, properties []*model.Declaration
	for _, d := range b.module.Declarations {
		if d.DRI.Package != pkg {
			continue
		}
		switch {
		case d.Kind.IsClasslike():
			classlikes = append(classlikes, d)
		case d.Kind == model.KindFunction:
			functions = append(functions, d)
		case d.Kind == model.KindProperty:
			properties = append(properties, d)
		}
	}

	sets := b.allSets()
	main := content.Group(content.KindMain, []model.DRI{dri}, sets,
		content.Header(1, content.KindMain, []model.DRI{dri}, sets, "Package "+pkg))
	main.Children = append(main.Children, b.memberSections(dri, sets, nil, nil, functions, properties, classlikes)...)

	page := &content.Page{Name: pkg, Documentables: []model.DRI{dri}, Content: main}
	for _, c := range classlikes {
		page.Children = append(page.Children, b.classlikePage(c))
	}
	return page
}

// classlikePage builds the page of d. If building panics the page keeps only
// its header and the build continues with the next declaration.
func (b *Builder) classlikePage(d *model.Declaration) (page *content.Page) {
	dris := []model.DRI{d.DRI}
	defer func() {
		if r := recover(); r != nil {
			b.failed++
			b.logger.Error("page build failed",
				logfields.Page(d.Name),
				logfields.Declaration(d.DRI.String()),
				slog.String("panic", fmt.Sprint(r)))
			page = &content.Page{
				Name:          d.Name,
				Documentables: dris,
				Content:       content.Group(content.KindMain, dris, d.SourceSets, content.Header(1, content.KindMain, dris, d.SourceSets, d.Name)),
			}
		}
	}()

	main := content.Group(content.KindMain, dris, d.SourceSets,
		content.Header(1, content.KindMain, dris, d.SourceSets, d.Name))
	if summary := b.summary(d); summary != nil {
		main.Children = append(main.Children, summary)
	}
	main.Children = append(main.Children, b.description(d)...)
	if inh := b.inheritors(d); inh != nil {
		main.Children = append(main.Children, inh)
	}
	main.Children = append(main.Children, b.memberSections(d.DRI, d.SourceSets, d,
		d.Members(model.KindConstructor), d.Members(model.KindFunction), d.Members(model.KindProperty), d.Classlikes())...)

	page = &content.Page{Name: d.Name, Documentables: dris, Content: main}
	for _, c := range d.Classlikes() {
		page.Children = append(page.Children, b.classlikePage(c))
	}
	return page
}

// summary is the brief of the classlike itself, used by renderers for page
// listings.
func (b *Builder) summary(d *model.Declaration) *content.Node {
	for _, id := range d.SourceSets {
		if t := brief.Extract(documentables.Lookup(b.store, d, id)); !t.IsEmpty() {
			return spansNode(content.KindBrief, []model.DRI{d.DRI}, d.SourceSets, t)
		}
	}
	return nil
}

func (b *Builder) memberSections(owner model.DRI, sets []model.SourceSetID, ownerDecl *model.Declaration,
	constructors, functions, properties, classlikes []*model.Declaration,
) []*content.Node {
	var out []*content.Node
	if len(constructors) > 0 {
		out = append(out, b.section("Constructors", content.KindConstructors, owner, sets,
			[][]*model.Declaration{constructors}, ownerDecl))
	}
	if len(functions) > 0 {
		out = append(out, b.section("Functions", content.KindFunctions, owner, sets, overloads(functions), ownerDecl))
	}
	if len(properties) > 0 {
		out = append(out, b.section("Properties", content.KindProperties, owner, sets, overloads(properties), ownerDecl))
	}
	if len(classlikes) > 0 {
		out = append(out, b.section("Types", content.KindClasslikes, owner, sets, overloads(classlikes), ownerDecl))
	}
	return out
}

// overloads groups members by name, keeping the order of first appearance.
func overloads(members []*model.Declaration) [][]*model.Declaration {
	index := map[string]int{}
	var groups [][]*model.Declaration
	for _, m := range members {
		i, ok := index[m.Name]
		if !ok {
			i = len(groups)
			index[m.Name] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], m)
	}
	return groups
}

func (b *Builder) section(title string, kind content.Kind, owner model.DRI, sets []model.SourceSetID,
	groups [][]*model.Declaration, ownerDecl *model.Declaration,
) *content.Node {
	ownerDRIs := []model.DRI{owner}
	table := content.Table(kind, ownerDRIs, sets)
	for _, g := range groups {
		table.Children = append(table.Children, b.row(kind, g, ownerDecl))
	}
	return content.Group(kind, ownerDRIs, sets,
		content.Header(2, kind, ownerDRIs, sets, title),
		table,
	)
}

func (b *Builder) row(kind content.Kind, group []*model.Declaration, owner *model.Declaration) *content.Node {
	dris := make([]model.DRI, len(group))
	var ids []model.SourceSetID
	for i, m := range group {
		dris[i] = m.DRI
		ids = sets.Union(ids, m.SourceSets)
	}

	hint := content.Group(content.KindSourceSetDependentHint, dris, ids)
	for _, m := range group {
		for _, v := range b.briefVariants(m, owner) {
			hint.Children = append(hint.Children, signatureNode(m, v.sets))
			if !v.text.IsEmpty() {
				hint.Children = append(hint.Children, spansNode(content.KindComment, []model.DRI{m.DRI}, v.sets, v.text))
			}
		}
	}
	return content.Group(kind, dris, ids,
		content.Header(3, kind, dris, ids, group[0].Name),
		hint,
	)
}

type variant struct {
	text brief.Text
	sets []model.SourceSetID
}

// briefVariants returns the distinct briefs of m with the source sets sharing
// each, in source set order. Identical briefs collapse into one variant.
func (b *Builder) briefVariants(m, owner *model.Declaration) []variant {
	var out []variant
	index := map[string]int{}
	for _, id := range m.SourceSets {
		t := b.memberBrief(m, owner, id)
		key := t.Plain()
		if i, ok := index[key]; ok {
			out[i].sets = append(out[i].sets, id)
			continue
		}
		index[key] = len(out)
		out = append(out, variant{text: t, sets: []model.SourceSetID{id}})
	}
	return out
}

// memberBrief resolves the brief of a member in one source set.
//
// The primary constructor is documented by the owner's @constructor tag.
// Properties fall back to the owner's @property tag. Functions and properties
// without documentation of their own use inherited documentation. Parameter
// tags never document anything but their parameter.
func (b *Builder) memberBrief(m, owner *model.Declaration, id model.SourceSetID) brief.Text {
	own := documentables.Lookup(b.store, m, id)

	switch m.Kind {
	case model.KindConstructor:
		if m.Primary && owner != nil {
			oc := documentables.Lookup(b.store, owner, id)
			if oc.Constructor != "" {
				return brief.Of(oc.Constructor, oc.Dialect)
			}
		}
		return brief.Extract(own)
	case model.KindProperty:
		if own.HasDescription() {
			return brief.Extract(own)
		}
		if owner != nil {
			oc := documentables.Lookup(b.store, owner, id)
			if text, ok := oc.Properties[m.Name]; ok {
				return brief.Of(text, oc.Dialect)
			}
		}
	default:
		if own.HasDescription() || m.Kind.IsClasslike() {
			return brief.Extract(own)
		}
	}
	return b.inheritedBrief(m, id)
}

// Brief resolves the brief shown for d in one source set, the same text its
// row in the owner's member table carries.
func (b *Builder) Brief(d *model.Declaration, id model.SourceSetID) brief.Text {
	owner, _ := b.module.Parent(d)
	return b.memberBrief(d, owner, id)
}

func (b *Builder) inheritedBrief(m *model.Declaration, id model.SourceSetID) brief.Text {
	if b.store == nil {
		return nil
	}
	docs, ok := extra.Get(b.store, inheritance.InheritedDocsKey, m.DRI)
	if !ok {
		return nil
	}
	doc, ok := docs[id]
	if !ok {
		return nil
	}
	if from, ok := b.module.LookupIn(doc.From, id); ok {
		return brief.Extract(documentables.Lookup(b.store, from, id))
	}
	return brief.Of(doc.Raw, comment.DialectFor(string(doc.Language)))
}

func signatureNode(m *model.Declaration, sets []model.SourceSetID) *content.Node {
	dris := []model.DRI{m.DRI}
	return content.Group(content.KindSymbol, dris, sets, content.Text(content.KindSymbol, dris, sets, Signature(m)))
}

// Signature renders a one-line declaration summary.
func Signature(m *model.Declaration) string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		if m.Language == model.LanguageJava {
			params[i] = p.Type + " " + p.Name
		} else {
			params[i] = p.Name + ": " + p.Type
		}
	}
	var generics string
	if len(m.TypeParams) > 0 {
		generics = "<" + strings.Join(m.TypeParams, ", ") + ">"
	}
	switch m.Kind {
	case model.KindConstructor:
		return "constructor(" + strings.Join(params, ", ") + ")"
	case model.KindFunction:
		return "fun " + generics + m.Name + "(" + strings.Join(params, ", ") + ")"
	case model.KindProperty:
		return "val " + m.Name
	default:
		return string(m.Kind) + " " + m.Name + generics
	}
}

// spansNode renders inline spans as a group of text nodes.
func spansNode(kind content.Kind, dris []model.DRI, sets []model.SourceSetID, spans []comment.Span) *content.Node {
	g := content.Group(kind, dris, sets)
	for _, s := range spans {
		n := content.Text(kind, dris, sets, s.Text)
		switch s.Kind {
		case comment.SpanMarkup:
			n.Style = content.StyleMarkup
		case comment.SpanCode:
			n.Style = content.StyleCode
		case comment.SpanLink:
			n.Style = content.StyleLink
			n.Target = s.Target
		}
		g.Children = append(g.Children, n)
	}
	return g
}
