package pages

import (
	"sort"

	"git.home.luguber.info/inful/apidoc/internal/comment"
	"git.home.luguber.info/inful/apidoc/internal/content"
	"git.home.luguber.info/inful/apidoc/internal/documentables"
	"git.home.luguber.info/inful/apidoc/internal/extra"
	"git.home.luguber.info/inful/apidoc/internal/inheritance"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// description renders the full comment of d. Source sets with the same
// comment text share one group.
func (b *Builder) description(d *model.Declaration) []*content.Node {
	dris := []model.DRI{d.DRI}
	type entry struct {
		c    *comment.Comment
		sets []model.SourceSetID
	}
	var entries []*entry
	byText := map[string]*entry{}
	for _, id := range d.SourceSets {
		c := documentables.Lookup(b.store, d, id)
		if c.IsEmpty() {
			continue
		}
		key, _ := d.Doc(id)
		if e, ok := byText[key]; ok {
			e.sets = append(e.sets, id)
			continue
		}
		e := &entry{c: c, sets: []model.SourceSetID{id}}
		byText[key] = e
		entries = append(entries, e)
	}

	var out []*content.Node
	for _, e := range entries {
		g := content.Group(content.KindComment, dris, e.sets)
		for _, block := range e.c.Description {
			g.Children = append(g.Children, spansNode(content.KindComment, dris, e.sets, block))
		}
		if e.c.Deprecated != "" {
			g.Children = append(g.Children, content.Group(content.KindDeprecation, dris, e.sets,
				content.Text(content.KindDeprecation, dris, e.sets, e.c.Deprecated)))
		}
		if params := parametersTable(d, e.c, e.sets); params != nil {
			g.Children = append(g.Children, params)
		}
		for _, s := range e.c.Samples {
			g.Children = append(g.Children, content.Code(content.KindSample, dris, e.sets, s))
		}
		out = append(out, g)
	}
	return out
}

// parametersTable lists @param and @property documentation, sorted by name.
func parametersTable(d *model.Declaration, c *comment.Comment, sets []model.SourceSetID) *content.Node {
	if len(c.Params) == 0 && len(c.Properties) == 0 {
		return nil
	}
	dris := []model.DRI{d.DRI}
	merged := make(map[string]string, len(c.Params)+len(c.Properties))
	for k, v := range c.Properties {
		merged[k] = v
	}
	for k, v := range c.Params {
		merged[k] = v
	}
	names := make([]string, 0, len(merged))
	for k := range merged {
		names = append(names, k)
	}
	sort.Strings(names)

	table := content.Table(content.KindParameters, dris, sets)
	for _, name := range names {
		table.Children = append(table.Children, content.Group(content.KindParameters, dris, sets,
			content.Text(content.KindSymbol, dris, sets, name),
			content.Text(content.KindParameters, dris, sets, merged[name]),
		))
	}
	return table
}

// inheritors lists the direct subtypes of d per source set.
func (b *Builder) inheritors(d *model.Declaration) *content.Node {
	if b.store == nil {
		return nil
	}
	info, ok := extra.Get(b.store, inheritance.InheritorsKey, d.DRI)
	if !ok {
		return nil
	}
	dris := []model.DRI{d.DRI}
	g := content.Group(content.KindInheritors, dris, d.SourceSets,
		content.Header(2, content.KindInheritors, dris, d.SourceSets, "Inheritors"))
	for _, id := range d.SourceSets {
		list := info[id]
		if len(list) == 0 {
			continue
		}
		sets := []model.SourceSetID{id}
		perSet := content.Group(content.KindInheritors, dris, sets)
		for _, in := range list {
			n := content.Text(content.KindInheritors, []model.DRI{in.DRI}, sets, in.Name)
			n.Style = content.StyleLink
			n.Target = in.DRI.String()
			perSet.Children = append(perSet.Children, n)
		}
		g.Children = append(g.Children, perSet)
	}
	return g
}
