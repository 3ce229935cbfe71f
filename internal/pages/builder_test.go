package pages

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"git.home.luguber.info/inful/apidoc/internal/content"
	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/documentables"
	"git.home.luguber.info/inful/apidoc/internal/extra"
	"git.home.luguber.info/inful/apidoc/internal/inheritance"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pkg = model.DRI{Package: "test"}
	jvm = []model.SourceSetID{"jvm"}
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// build runs the documentables stage and the pages stage over decls.
func build(t *testing.T, sets []model.SourceSetID, decls ...*model.Declaration) *content.Page {
	t.Helper()
	ss := make([]model.SourceSet, len(sets))
	for i, id := range sets {
		ss[i] = model.SourceSet{ID: id}
	}
	m, err := model.NewModule("test", ss, decls)
	require.NoError(t, err)

	store := extra.NewStore()
	diags := diag.NewCollector(quietLogger())
	_, err = documentables.NewParser(2, quietLogger()).Parse(context.Background(), m, store, diags)
	require.NoError(t, err)
	_, err = inheritance.NewResolver(inheritance.WithLogger(quietLogger())).Resolve(context.Background(), m, store, diags)
	require.NoError(t, err)
	store.Seal()

	return NewBuilder(m, store, quietLogger()).Build()
}

func docs(sets []model.SourceSetID, raw string) map[model.SourceSetID]string {
	if raw == "" {
		return nil
	}
	out := map[model.SourceSetID]string{}
	for _, s := range sets {
		out[s] = raw
	}
	return out
}

func class(name string, lang model.Language, doc string, children ...*model.Declaration) *model.Declaration {
	return &model.Declaration{
		DRI: pkg.WithClass(name), Name: name, Kind: model.KindClass, Language: lang,
		SourceSets: jvm, Docs: docs(jvm, doc), Children: children,
	}
}

func constructor(owner string, primary bool, doc string, params ...model.Parameter) *model.Declaration {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return &model.Declaration{
		DRI: pkg.WithClass(owner).WithCallable(owner, types...), Name: owner, Kind: model.KindConstructor,
		Language: model.LanguageKotlin, SourceSets: jvm, Docs: docs(jvm, doc), Params: params, Primary: primary,
	}
}

func function(owner, name string, lang model.Language, doc string) *model.Declaration {
	return &model.Declaration{
		DRI: pkg.WithClass(owner).WithCallable(name), Name: name, Kind: model.KindFunction,
		Language: lang, SourceSets: jvm, Docs: docs(jvm, doc),
	}
}

func classPage(t *testing.T, root *content.Page, name string) *content.Page {
	t.Helper()
	p := content.PageDFS(root, func(p *content.Page) bool {
		return p.Name == name && len(p.Documentables) > 0 && p.Documentables[0].Equal(pkg.WithClass(name))
	})
	require.NotNil(t, p, "page %s", name)
	return p
}

func table(t *testing.T, page *content.Page, kind content.Kind) *content.Node {
	t.Helper()
	n := content.DFS(page.Content, content.Kinds(content.TypeTable, kind))
	require.NotNil(t, n, "table %s", kind)
	return n
}

func isCommentText(n *content.Node) bool {
	return n.Type == content.TypeText && n.DCI.Kind == content.KindComment
}

const documentedConstructors = `/**
 * Dummy text.
 *
 * @constructor constructor docs
 * @param exampleParameter dummy parameter.
 */`

func exampleWithConstructors() *model.Declaration {
	return class("Example", model.LanguageKotlin, documentedConstructors,
		constructor("Example", true, "", model.Parameter{Name: "exampleParameter", Type: "kotlin.Int"}),
		constructor("Example", false, "/**\n * secondary constructor\n * @param param1 param1 docs\n */", model.Parameter{Name: "param1", Type: "kotlin.String"}),
	)
}

func constructorBrief(t *testing.T, root *content.Page, paramType string) string {
	t.Helper()
	ctors := table(t, classPage(t, root, "Example"), content.KindConstructors)
	hint := content.DFS(ctors, content.Kinds(content.TypeGroup, content.KindSourceSetDependentHint))
	require.NotNil(t, hint)

	idx := -1
	for i, c := range hint.Children {
		if c.DCI.DRIs[0].Callable != nil && len(c.DCI.DRIs[0].Callable.Params) > 0 && c.DCI.DRIs[0].Callable.Params[0] == paramType {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0, "constructor taking %s", paramType)
	require.Less(t, idx+1, len(hint.Children))

	text := content.DFS(hint.Children[idx+1], isCommentText)
	require.NotNil(t, text)
	return text.Text
}

func TestConstructors_PrimaryUsesConstructorTag(t *testing.T) {
	root := build(t, jvm, exampleWithConstructors())
	assert.Equal(t, "constructor docs", constructorBrief(t, root, "kotlin.Int"))
}

func TestConstructors_SecondaryUsesOwnDescription(t *testing.T) {
	root := build(t, jvm, exampleWithConstructors())
	assert.Equal(t, "secondary constructor", constructorBrief(t, root, "kotlin.String"))
}

func TestConstructors_AllInOneRow(t *testing.T) {
	root := build(t, jvm, exampleWithConstructors())
	ctors := table(t, classPage(t, root, "Example"), content.KindConstructors)

	require.Len(t, ctors.Children, 1)
	for _, n := range content.FindAll(ctors, isCommentText) {
		assert.NotContains(t, n.Text, "dummy parameter")
		assert.NotContains(t, n.Text, "param1 docs")
	}
}

func TestConstructors_ParamTagNeverDocumentsPrimary(t *testing.T) {
	root := build(t, jvm, class("Example", model.LanguageKotlin,
		"/**\n * Dummy text.\n *\n * @param exampleParameter dummy parameter.\n */",
		constructor("Example", true, "", model.Parameter{Name: "exampleParameter", Type: "kotlin.Int"}),
	))

	ctors := table(t, classPage(t, root, "Example"), content.KindConstructors)
	require.Len(t, ctors.Children, 1)
	assert.Nil(t, content.DFS(ctors.Children[0], isCommentText), "expected no primary constructor docs")
}

// singleFunctionBrief returns the brief group of the only function of Example.
func singleFunctionBrief(t *testing.T, root *content.Page) *content.Node {
	t.Helper()
	fns := table(t, classPage(t, root, "Example"), content.KindFunctions)
	require.Len(t, fns.Children, 1)

	g := content.DFS(fns.Children[0], func(n *content.Node) bool {
		if n.Type != content.TypeGroup || n.DCI.Kind != content.KindComment {
			return false
		}
		for _, c := range n.Children {
			if c.Type != content.TypeText {
				return false
			}
		}
		return true
	})
	require.NotNil(t, g)
	return g
}

func joined(n *content.Node) string {
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

func TestFunctionBriefs(t *testing.T) {
	tests := []struct {
		name string
		lang model.Language
		doc  string
		want string
	}{
		{
			name: "kotlin html",
			lang: model.LanguageKotlin,
			doc:  "/**\n * This is an example <!-- not visible --> of html\n *\n * This is definitely not a brief\n */",
			want: "This is an example <!-- not visible --> of html",
		},
		{
			name: "kotlin i.e",
			lang: model.LanguageKotlin,
			doc:  "/**\n * The user token, i.e. \"Bearer xyz\". Throw an exception if not available.\n *\n * This is definitely not a brief\n */",
			want: `The user token, i.e. "Bearer xyz". Throw an exception if not available.`,
		},
		{
			name: "kotlin e.g",
			lang: model.LanguageKotlin,
			doc:  "/**\n * The user token, e.g. \"Bearer xyz\". Throw an exception if not available.\n *\n * This is definitely not a brief\n */",
			want: `The user token, e.g. "Bearer xyz". Throw an exception if not available.`,
		},
		{
			name: "java first sentence",
			lang: model.LanguageJava,
			doc:  "/**\n * The user token, or not. This is definitely not a brief in java\n */",
			want: "The user token, or not.",
		},
		{
			name: "java i.e",
			lang: model.LanguageJava,
			doc:  "/**\n * The user token, i.e. \"Bearer xyz\". This is definitely not a brief in java\n */",
			want: `The user token, i.e. "Bearer xyz".`,
		},
		{
			name: "java html comment",
			lang: model.LanguageJava,
			doc:  "/**\n * This is a simulation of Prof.<!-- --> Knuth's MIX computer. This is definitely not a brief in java\n */",
			want: "This is a simulation of Prof.<!-- --> Knuth's MIX computer.",
		},
		{
			name: "java html comment at the end",
			lang: model.LanguageJava,
			doc:  "/**\n * This is a simulation of Prof.<!-- --> Knuth's MIX computer. This is definitely not a brief in java <!-- -->\n */",
			want: "This is a simulation of Prof.<!-- --> Knuth's MIX computer.",
		},
		{
			name: "java inline code with type arguments",
			lang: model.LanguageJava,
			doc:  "/**\n * Returns the {@code List<T>} of items. Second sentence.\n */",
			want: "Returns the List<T> of items.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := build(t, jvm, class("Example", tt.lang, "", function("Example", "test", tt.lang, tt.doc)))
			assert.Equal(t, tt.want, joined(singleFunctionBrief(t, root)))
		})
	}
}

func TestFunctions_OverloadsShareARow(t *testing.T) {
	a := function("Example", "run", model.LanguageKotlin, "Runs once.")
	b := function("Example", "run", model.LanguageKotlin, "Runs n times.")
	b.DRI = pkg.WithClass("Example").WithCallable("run", "kotlin.Int")
	b.Params = []model.Parameter{{Name: "n", Type: "kotlin.Int"}}
	c := function("Example", "stop", model.LanguageKotlin, "")

	root := build(t, jvm, class("Example", model.LanguageKotlin, "", a, b, c))
	fns := table(t, classPage(t, root, "Example"), content.KindFunctions)

	require.Len(t, fns.Children, 2)
	hint := content.DFS(fns.Children[0], content.Kinds(content.TypeGroup, content.KindSourceSetDependentHint))
	require.Len(t, hint.Children, 4)
	assert.Equal(t, content.KindSymbol, hint.Children[0].DCI.Kind)
	assert.Equal(t, "fun run()", hint.Children[0].PlainText())
	assert.Equal(t, "Runs once.", hint.Children[1].PlainText())
	assert.Equal(t, "fun run(n: kotlin.Int)", hint.Children[2].PlainText())
	assert.Equal(t, "Runs n times.", hint.Children[3].PlainText())

	stop := content.DFS(fns.Children[1], content.Kinds(content.TypeGroup, content.KindSourceSetDependentHint))
	assert.Len(t, stop.Children, 1, "no brief, no comment node")
}

func TestSourceSetDependentBriefs(t *testing.T) {
	both := []model.SourceSetID{"jvm", "js"}
	same := &model.Declaration{
		DRI: pkg.WithClass("Example").WithCallable("same"), Name: "same", Kind: model.KindFunction,
		Language: model.LanguageKotlin, SourceSets: both, Docs: docs(both, "Shared."),
	}
	differs := &model.Declaration{
		DRI: pkg.WithClass("Example").WithCallable("differs"), Name: "differs", Kind: model.KindFunction,
		Language: model.LanguageKotlin, SourceSets: both,
		Docs: map[model.SourceSetID]string{"jvm": "On jvm.", "js": "On js."},
	}
	owner := &model.Declaration{
		DRI: pkg.WithClass("Example"), Name: "Example", Kind: model.KindClass, Language: model.LanguageKotlin,
		SourceSets: both, Children: []*model.Declaration{same, differs},
	}

	root := build(t, both, owner)
	fns := table(t, classPage(t, root, "Example"), content.KindFunctions)
	require.Len(t, fns.Children, 2)

	sameHint := content.DFS(fns.Children[0], content.Kinds(content.TypeGroup, content.KindSourceSetDependentHint))
	require.Len(t, sameHint.Children, 2)
	assert.Equal(t, both, sameHint.Children[1].SourceSets)

	diffHint := content.DFS(fns.Children[1], content.Kinds(content.TypeGroup, content.KindSourceSetDependentHint))
	require.Len(t, diffHint.Children, 4)
	assert.Equal(t, []model.SourceSetID{"jvm"}, diffHint.Children[1].SourceSets)
	assert.Equal(t, "On jvm.", diffHint.Children[1].PlainText())
	assert.Equal(t, []model.SourceSetID{"js"}, diffHint.Children[3].SourceSets)
	assert.Equal(t, "On js.", diffHint.Children[3].PlainText())
}

func TestInheritedBriefAndInheritors(t *testing.T) {
	base := &model.Declaration{
		DRI: pkg.WithClass("Base"), Name: "Base", Kind: model.KindInterface, Language: model.LanguageKotlin, SourceSets: jvm,
		Children: []*model.Declaration{function("Base", "size", model.LanguageKotlin, "Returns the size. Always positive.")},
	}
	impl := class("Impl", model.LanguageJava, "", function("Impl", "size", model.LanguageJava, ""))
	impl.Supertypes = map[model.SourceSetID][]model.TypeRef{"jvm": {{DRI: base.DRI}}}

	root := build(t, jvm, base, impl)

	implFns := table(t, classPage(t, root, "Impl"), content.KindFunctions)
	brief := content.DFS(implFns, content.Kinds(content.TypeGroup, content.KindComment))
	require.NotNil(t, brief)
	// The inherited comment keeps its own dialect: a KDoc brief is the whole paragraph.
	assert.Equal(t, "Returns the size. Always positive.", brief.PlainText())

	inheritors := content.DFS(classPage(t, root, "Base").Content, content.Kinds(content.TypeGroup, content.KindInheritors))
	require.NotNil(t, inheritors)
	names := content.FindAll(inheritors, content.Kinds(content.TypeText, content.KindInheritors))
	require.Len(t, names, 1)
	assert.Equal(t, "Impl", names[0].Text)
	assert.Equal(t, impl.DRI.String(), names[0].Target)
}

func TestPropertyFallsBackToPropertyTag(t *testing.T) {
	prop := &model.Declaration{
		DRI: pkg.WithClass("Example").WithCallable("size"), Name: "size", Kind: model.KindProperty,
		Language: model.LanguageKotlin, SourceSets: jvm,
	}
	root := build(t, jvm, class("Example", model.LanguageKotlin, "Example.\n\n@property size the current size", prop))

	props := table(t, classPage(t, root, "Example"), content.KindProperties)
	assert.Equal(t, "the current size", content.DFS(props, content.Kinds(content.TypeGroup, content.KindComment)).PlainText())

	params := content.DFS(classPage(t, root, "Example").Content, content.Kinds(content.TypeTable, content.KindParameters))
	require.NotNil(t, params)
	assert.Len(t, params.Children, 1)
}

func TestPageTree(t *testing.T) {
	nested := &model.Declaration{
		DRI: pkg.WithClass("Outer").WithClass("Inner"), Name: "Inner", Kind: model.KindObject,
		Language: model.LanguageKotlin, SourceSets: jvm, Docs: docs(jvm, "Inner object."),
	}
	outer := class("Outer", model.LanguageKotlin, "Outer class. Details.", nested)
	top := &model.Declaration{
		DRI: pkg.WithCallable("main"), Name: "main", Kind: model.KindFunction, Language: model.LanguageKotlin, SourceSets: jvm,
	}

	root := build(t, jvm, outer, top)

	var names []string
	for _, p := range content.Pages(root) {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"test", "test", "Outer", "Inner"}, names); diff != "" {
		t.Fatalf("page tree mismatch (-want +got):\n%s", diff)
	}

	pkgPage := root.Children[0]
	assert.NotNil(t, content.DFS(pkgPage.Content, content.Kinds(content.TypeTable, content.KindFunctions)))
	types := content.DFS(pkgPage.Content, content.Kinds(content.TypeTable, content.KindClasslikes))
	require.NotNil(t, types)
	assert.Equal(t, "Outer class. Details.", content.DFS(types, content.Kinds(content.TypeGroup, content.KindComment)).PlainText())

	outerPage := classPage(t, root, "Outer")
	summary := content.DFS(outerPage.Content, content.Kinds(content.TypeGroup, content.KindBrief))
	require.NotNil(t, summary)
	assert.Equal(t, "Outer class. Details.", summary.PlainText())
	assert.NotNil(t, content.DFS(outerPage.Content, content.Kinds(content.TypeTable, content.KindClasslikes)))
}

func TestSignature(t *testing.T) {
	fn := &model.Declaration{Name: "map", Kind: model.KindFunction, TypeParams: []string{"R"},
		Params: []model.Parameter{{Name: "f", Type: "(T) -> R"}}}
	assert.Equal(t, "fun <R>map(f: (T) -> R)", Signature(fn))

	java := &model.Declaration{Name: "get", Kind: model.KindFunction, Language: model.LanguageJava,
		Params: []model.Parameter{{Name: "i", Type: "int"}}}
	assert.Equal(t, "fun get(int i)", Signature(java))
	assert.Equal(t, "val size", Signature(&model.Declaration{Name: "size", Kind: model.KindProperty}))
	assert.Equal(t, "interface List<E>", Signature(&model.Declaration{Name: "List", Kind: model.KindInterface, TypeParams: []string{"E"}}))
}

func TestBuilder_BriefMatchesMemberRow(t *testing.T) {
	ex := exampleWithConstructors()
	m, err := model.NewModule("test", []model.SourceSet{{ID: "jvm"}}, []*model.Declaration{ex})
	require.NoError(t, err)

	b := NewBuilder(m, nil, quietLogger())
	assert.Equal(t, "constructor docs", b.Brief(ex.Children[0], "jvm").Plain())
	assert.Equal(t, "secondary constructor", b.Brief(ex.Children[1], "jvm").Plain())
	assert.Equal(t, "Dummy text.", b.Brief(ex, "jvm").Plain())
}
