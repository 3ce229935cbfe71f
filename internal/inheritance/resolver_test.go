package inheritance

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"git.home.luguber.info/inful/apidoc/internal/comment"
	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/documentables"
	"git.home.luguber.info/inful/apidoc/internal/extra"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pkg = model.DRI{Package: "inheritors"}

func quiet() *diag.Collector {
	return diag.NewCollector(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func classlike(name string, kind model.Kind, sets []model.SourceSetID, children ...*model.Declaration) *model.Declaration {
	return &model.Declaration{
		DRI:        pkg.WithClass(name),
		Name:       name,
		Kind:       kind,
		Language:   model.LanguageKotlin,
		SourceSets: sets,
		Supertypes: map[model.SourceSetID][]model.TypeRef{},
		Children:   children,
	}
}

func extends(d *model.Declaration, id model.SourceSetID, supers ...string) *model.Declaration {
	for _, s := range supers {
		d.Supertypes[id] = append(d.Supertypes[id], model.TypeRef{DRI: pkg.WithClass(s)})
	}
	return d
}

func extendsGeneric(d *model.Declaration, id model.SourceSetID, super string, args ...string) *model.Declaration {
	d.Supertypes[id] = append(d.Supertypes[id], model.TypeRef{DRI: pkg.WithClass(super), Arguments: args})
	return d
}

func fn(owner, name, doc string, sets []model.SourceSetID, params ...model.Parameter) *model.Declaration {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	d := &model.Declaration{
		DRI:        pkg.WithClass(owner).WithCallable(name, types...),
		Name:       name,
		Kind:       model.KindFunction,
		Language:   model.LanguageKotlin,
		SourceSets: sets,
		Params:     params,
	}
	if doc != "" {
		d.Docs = map[model.SourceSetID]string{}
		for _, s := range sets {
			d.Docs[s] = doc
		}
	}
	return d
}

var jvm = []model.SourceSetID{"jvm"}

func newModule(t *testing.T, sets []model.SourceSetID, decls ...*model.Declaration) *model.Module {
	t.Helper()
	ss := make([]model.SourceSet, len(sets))
	for i, id := range sets {
		ss[i] = model.SourceSet{ID: id, Platform: model.NormalizePlatform(string(id))}
	}
	m, err := model.NewModule("test", ss, decls)
	require.NoError(t, err)
	return m
}

func names(list []Inheritor) []string {
	out := make([]string, len(list))
	for i, in := range list {
		out[i] = in.Name
	}
	return out
}

func TestInheritors_Simple(t *testing.T) {
	m := newModule(t, jvm,
		classlike("A", model.KindInterface, jvm),
		extends(classlike("B", model.KindClass, jvm), "jvm", "A"),
	)

	info := NewResolver().Inheritors(m, quiet())

	require.Len(t, info, 1)
	a := info[pkg.WithClass("A").String()]
	require.Len(t, a, 1)
	assert.Equal(t, []string{"B"}, names(a["jvm"]))
}

func TestInheritors_Sealed(t *testing.T) {
	m := newModule(t, jvm,
		classlike("A", model.KindClass, jvm),
		extends(classlike("B", model.KindClass, jvm), "jvm", "A"),
		extends(classlike("C", model.KindClass, jvm), "jvm", "A"),
		classlike("D", model.KindClass, jvm),
	)

	info := NewResolver().Inheritors(m, quiet())
	assert.Equal(t, []string{"B", "C"}, names(info[pkg.WithClass("A").String()]["jvm"]))
	assert.NotContains(t, info, pkg.WithClass("D").String())
}

func TestInheritors_Multiplatform(t *testing.T) {
	both := []model.SourceSetID{"jvm", "js"}
	b := classlike("B", model.KindClass, both)
	extends(b, "jvm", "A")
	extends(b, "js", "A")
	m := newModule(t, both,
		classlike("A", model.KindInterface, both),
		b,
		extends(classlike("C", model.KindClass, []model.SourceSetID{"js"}), "js", "A"),
	)

	info := NewResolver().Inheritors(m, quiet())[pkg.WithClass("A").String()]

	require.Len(t, info, 2)
	assert.ElementsMatch(t, []string{"B"}, names(info["jvm"]))
	assert.ElementsMatch(t, []string{"B", "C"}, names(info["js"]))
}

func TestInheritors_DirectOnlyAndNoDuplicates(t *testing.T) {
	m := newModule(t, jvm,
		classlike("A", model.KindInterface, jvm),
		extends(classlike("B", model.KindInterface, jvm), "jvm", "A"),
		extends(classlike("C", model.KindClass, jvm), "jvm", "B", "B"),
	)

	info := NewResolver().Inheritors(m, quiet())
	assert.Equal(t, []string{"B"}, names(info[pkg.WithClass("A").String()]["jvm"]))
	assert.Equal(t, []string{"C"}, names(info[pkg.WithClass("B").String()]["jvm"]))
}

func TestInheritors_MissingSupertypeIsTolerated(t *testing.T) {
	diags := quiet()
	m := newModule(t, []model.SourceSetID{"jvm", "js"},
		classlike("A", model.KindInterface, []model.SourceSetID{"jvm"}),
		extends(classlike("B", model.KindClass, []model.SourceSetID{"js"}), "js", "A", "Missing"),
	)

	info := NewResolver().Inheritors(m, diags)

	assert.Empty(t, info)
	assert.Equal(t, 2, diags.Count(diag.StructuralInconsistency))
}

// diamondModule mirrors a collection hierarchy where documentation lives only
// on the root interface and every path re-declares the members undocumented.
func diamondModule(t *testing.T) *model.Module {
	t.Helper()
	elem := model.Parameter{Name: "element", Type: "E"}

	collection := classlike("Collection2", model.KindInterface, jvm,
		fn("Collection2", "isEmpty", "Returns `true` if the collection is empty (contains no elements), `false` otherwise.", jvm),
		fn("Collection2", "contains", "Checks if the specified element is contained in this collection.", jvm, elem),
	)
	collection.TypeParams = []string{"E"}

	mutableCollection := extendsGeneric(classlike("MutableCollection2", model.KindInterface, jvm), "jvm", "Collection2", "E")
	mutableCollection.TypeParams = []string{"E"}
	extendsGeneric(mutableCollection, "jvm", "MutableIterable2", "E")

	list := extendsGeneric(classlike("List2", model.KindInterface, jvm,
		fn("List2", "isEmpty", "", jvm),
		fn("List2", "contains", "", jvm, elem),
	), "jvm", "Collection2", "E")
	list.TypeParams = []string{"E"}

	mutableList := extendsGeneric(classlike("MutableList2", model.KindInterface, jvm), "jvm", "List2", "E")
	extendsGeneric(mutableList, "jvm", "MutableCollection2", "E")
	mutableList.TypeParams = []string{"E"}

	abstract := extendsGeneric(classlike("AbstractMutableList2", model.KindClass, jvm,
		fn("AbstractMutableList2", "isEmpty", "", jvm),
		fn("AbstractMutableList2", "contains", "", jvm, elem),
	), "jvm", "MutableList2", "E")
	abstract.TypeParams = []string{"E"}

	deque := extendsGeneric(classlike("ArrayDeque2", model.KindClass, jvm,
		fn("ArrayDeque2", "isEmpty", "", jvm),
		fn("ArrayDeque2", "contains", "", jvm, elem),
	), "jvm", "AbstractMutableList2", "E")
	deque.TypeParams = []string{"E"}

	return newModule(t, jvm, collection, mutableCollection, list, mutableList, abstract, deque)
}

func TestInheritedDocumentation_Diamond(t *testing.T) {
	m := diamondModule(t)
	r := NewResolver()
	diags := quiet()

	for _, name := range []string{"isEmpty", "contains"} {
		var member *model.Declaration
		for _, c := range mustLookup(t, m, pkg.WithClass("ArrayDeque2")).Children {
			if c.Name == name {
				member = c
			}
		}
		require.NotNil(t, member, name)

		docs := r.InheritedDocumentation(m, nil, member, diags)
		require.Len(t, docs, 1, name)
		assert.Equal(t, "Collection2", docs["jvm"].Owner.SimpleName(), name)
		assert.Equal(t, 4, docs["jvm"].Distance, name)
	}
	assert.Zero(t, diags.Count(diag.AmbiguousInheritanceTie))
}

func TestInheritedDocumentation_GenericSubstitution(t *testing.T) {
	base := classlike("Box", model.KindInterface, jvm,
		fn("Box", "put", "Stores the value.", jvm, model.Parameter{Name: "v", Type: "List<T>"}),
	)
	base.TypeParams = []string{"T"}
	impl := extendsGeneric(classlike("StringBox", model.KindClass, jvm,
		fn("StringBox", "put", "", jvm, model.Parameter{Name: "v", Type: "List<String>"}),
		fn("StringBox", "put", "", jvm, model.Parameter{Name: "v", Type: "Int"}),
	), "jvm", "Box", "String")
	m := newModule(t, jvm, base, impl)
	r := NewResolver()

	docs := r.InheritedDocumentation(m, nil, impl.Children[0], quiet())
	require.Len(t, docs, 1)
	assert.Equal(t, "Stores the value.", docs["jvm"].Raw)

	assert.Empty(t, r.InheritedDocumentation(m, nil, impl.Children[1], quiet()))
}

func TestInheritedDocumentation_NearestWinsAndTieIsReported(t *testing.T) {
	m := newModule(t, jvm,
		classlike("Root", model.KindInterface, jvm, fn("Root", "f", "From root.", jvm)),
		extends(classlike("Left", model.KindInterface, jvm, fn("Left", "f", "From left.", jvm)), "jvm", "Root"),
		extends(classlike("Right", model.KindInterface, jvm, fn("Right", "f", "From right.", jvm)), "jvm", "Root"),
		extends(classlike("Impl", model.KindClass, jvm, fn("Impl", "f", "", jvm)), "jvm", "Left", "Right"),
	)
	diags := quiet()

	impl := mustLookup(t, m, pkg.WithClass("Impl"))
	docs := NewResolver().InheritedDocumentation(m, nil, impl.Children[0], diags)

	require.Len(t, docs, 1)
	assert.Equal(t, "From left.", docs["jvm"].Raw)
	assert.Equal(t, 1, docs["jvm"].Distance)

	all := diags.All()
	require.Len(t, all, 1)
	assert.Equal(t, diag.AmbiguousInheritanceTie, all[0].Kind)
	assert.Equal(t, pkg.WithClass("Right").WithCallable("f").String(), all[0].Context["ignored"])
}

func TestInheritedDocumentation_DocumentedMemberAndMissingAncestor(t *testing.T) {
	diags := quiet()
	m := newModule(t, jvm,
		classlike("A", model.KindInterface, jvm, fn("A", "f", "Doc.", jvm)),
		extends(classlike("B", model.KindClass, jvm,
			fn("B", "f", "Own doc.", jvm),
			fn("B", "g", "", jvm),
		), "jvm", "A"),
	)
	b := mustLookup(t, m, pkg.WithClass("B"))
	r := NewResolver()

	assert.Empty(t, r.InheritedDocumentation(m, nil, b.Children[0], diags))
	assert.Empty(t, r.InheritedDocumentation(m, nil, b.Children[1], diags))
	assert.Equal(t, 1, diags.Count(diag.MissingDocumentation))
}

func TestInheritedDocumentation_ReadsStoredComments(t *testing.T) {
	m := newModule(t, jvm,
		classlike("A", model.KindInterface, jvm, fn("A", "f", "Doc.", jvm)),
		extends(classlike("B", model.KindClass, jvm, fn("B", "f", "", jvm)), "jvm", "A"),
	)
	a := mustLookup(t, m, pkg.WithClass("A"))
	b := mustLookup(t, m, pkg.WithClass("B"))
	r := NewResolver()

	// A comment that failed to parse is stored as empty; its raw text must not
	// be parsed again.
	store := extra.NewStore()
	require.NoError(t, extra.Set(store, documentables.CommentsKey, a.Children[0].DRI,
		documentables.Comments{"jvm": comment.Empty(comment.KDoc)}))

	diags := quiet()
	assert.Empty(t, r.InheritedDocumentation(m, store, b.Children[0], diags))
	assert.Equal(t, 1, diags.Count(diag.MissingDocumentation))

	docs := r.InheritedDocumentation(m, extra.NewStore(), b.Children[0], quiet())
	require.Len(t, docs, 1)
	assert.Equal(t, a.Children[0].DRI, docs["jvm"].From)
}

func TestInheritedDocumentation_PerSourceSet(t *testing.T) {
	both := []model.SourceSetID{"jvm", "js"}
	a := classlike("A", model.KindInterface, both, fn("A", "f", "", both))
	a.Children[0].Docs = map[model.SourceSetID]string{"jvm": "Only on jvm."}
	b := classlike("B", model.KindClass, both, fn("B", "f", "", both))
	extends(b, "jvm", "A")
	extends(b, "js", "A")
	m := newModule(t, both, a, b)

	docs := NewResolver().InheritedDocumentation(m, nil, b.Children[0], quiet())
	require.Len(t, docs, 1)
	assert.Contains(t, docs, model.SourceSetID("jvm"))
}

func TestResolve_StoresAndIsIdempotent(t *testing.T) {
	m := diamondModule(t)
	r := NewResolver(WithWorkers(2))

	run := func() *extra.Store {
		store := extra.NewStore()
		stats, err := r.Resolve(context.Background(), m, store, quiet())
		require.NoError(t, err)
		assert.Equal(t, 5, stats.Supertypes)
		assert.Equal(t, 6, stats.Inherited)
		assert.Zero(t, stats.Failed)
		return store
	}
	first, second := run(), run()

	collection := pkg.WithClass("Collection2")
	a, ok := extra.Get(first, InheritorsKey, collection)
	require.True(t, ok)
	b, _ := extra.Get(second, InheritorsKey, collection)
	assert.Equal(t, a, b)
	assert.Equal(t, []string{"MutableCollection2", "List2"}, names(a["jvm"]))

	isEmpty := pkg.WithClass("ArrayDeque2").WithCallable("isEmpty")
	docs1, ok := extra.Get(first, InheritedDocsKey, isEmpty)
	require.True(t, ok)
	docs2, _ := extra.Get(second, InheritedDocsKey, isEmpty)
	assert.Equal(t, docs1, docs2)
}

func TestResolve_Cancelled(t *testing.T) {
	m := diamondModule(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver().Resolve(ctx, m, extra.NewStore(), quiet())
	assert.Error(t, err)
}

func mustLookup(t *testing.T, m *model.Module, dri model.DRI) *model.Declaration {
	t.Helper()
	d, ok := m.Lookup(dri)
	require.True(t, ok, dri.String())
	return d
}
