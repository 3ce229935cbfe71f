package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

func TestLoadFile_YAML(t *testing.T) {
	m, err := LoadFile("testdata/collections.yaml")
	require.NoError(t, err)

	assert.Equal(t, "collections", m.Name)
	require.Len(t, m.SourceSets, 2)
	assert.Equal(t, model.PlatformJS, m.SourceSets[1].Platform)

	pkg := model.DRI{Package: "collections"}
	coll, ok := m.Lookup(pkg.WithClass("Collection2"))
	require.True(t, ok)
	assert.Equal(t, model.LanguageKotlin, coll.Language)
	assert.Equal(t, []model.SourceSetID{"jvm", "js"}, coll.SourceSets)
	doc, ok := coll.Doc("js")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(doc, "A generic collection"))

	add, ok := m.Lookup(pkg.WithClass("Collection2").WithCallable("add", "E"))
	require.True(t, ok)
	assert.Equal(t, model.KindFunction, add.Kind)
	parent, ok := m.Parent(add)
	require.True(t, ok)
	assert.Same(t, coll, parent)

	list, ok := m.Lookup(pkg.WithClass("List2"))
	require.True(t, ok)
	assert.Equal(t, []model.TypeRef{{DRI: pkg.WithClass("Collection2"), Arguments: []string{"E"}}}, list.SupertypesIn("js"))
	assert.Nil(t, list.Docs)

	arr, ok := m.Lookup(pkg.WithClass("ArrayList2"))
	require.True(t, ok)
	assert.Equal(t, model.LanguageJava, arr.Language)
	assert.Equal(t, []model.SourceSetID{"jvm"}, arr.SourceSets)

	itr, ok := m.Lookup(pkg.WithClass("ArrayList2").WithClass("Itr"))
	require.True(t, ok)
	assert.Equal(t, model.LanguageJava, itr.Language, "members inherit the language of their owner")
	assert.Equal(t, []model.SourceSetID{"jvm"}, itr.SourceSets)

	ctor := arr.Members(model.KindConstructor)
	require.Len(t, ctor, 1)
	assert.True(t, ctor[0].Primary)
}

func TestLoadFile_JSON(t *testing.T) {
	m, err := LoadFile("testdata/tiny.json")
	require.NoError(t, err)
	assert.Equal(t, model.PlatformJVM, m.SourceSets[0].Platform)
	thing, ok := m.Lookup(model.DRI{Package: "t"}.WithClass("Thing"))
	require.True(t, ok)
	assert.Equal(t, model.KindObject, thing.Kind)
}

func TestDecode_PerSourceSetOverrides(t *testing.T) {
	m, err := Decode(strings.NewReader(`
module: m
source_sets: [{id: jvm}, {id: js}]
declarations:
  - package: p
    name: A
    kind: class
    doc: shared
    docs: {js: "js only"}
    supertypes: [{class: Base}]
    supertypes_in: {js: [{package: q, class: JsBase}]}
`), FormatYAML)
	require.NoError(t, err)
	a, ok := m.Lookup(model.DRI{Package: "p"}.WithClass("A"))
	require.True(t, ok)

	jvmDoc, _ := a.Doc("jvm")
	jsDoc, _ := a.Doc("js")
	assert.Equal(t, "shared", jvmDoc)
	assert.Equal(t, "js only", jsDoc)
	assert.Equal(t, "p/Base", a.SupertypesIn("jvm")[0].DRI.String())
	assert.Equal(t, "q/JsBase", a.SupertypesIn("js")[0].DRI.String())
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		category errors.ErrorCategory
	}{
		{"empty", "", errors.CategoryInput},
		{"unknown field", "module: m\nsurprise: 1", errors.CategoryInput},
		{"no module", "source_sets: [{id: jvm}]", errors.CategoryInput},
		{"no source sets", "module: m", errors.CategoryInput},
		{"no package", "module: m\nsource_sets: [{id: jvm}]\ndeclarations: [{name: A, kind: class}]", errors.CategoryInput},
		{"bad kind", "module: m\nsource_sets: [{id: jvm}]\ndeclarations: [{package: p, name: A, kind: trait}]", errors.CategoryInput},
		{"member with members", "module: m\nsource_sets: [{id: jvm}]\ndeclarations: [{package: p, name: f, kind: function, members: [{name: g, kind: function}]}]", errors.CategoryInput},
		{"top-level constructor", "module: m\nsource_sets: [{id: jvm}]\ndeclarations: [{package: p, name: A, kind: constructor}]", errors.CategoryInput},
		{"unknown source set", "module: m\nsource_sets: [{id: jvm}]\ndeclarations: [{package: p, name: A, kind: class, source_sets: [js]}]", errors.CategoryModel},
		{"duplicate", "module: m\nsource_sets: [{id: jvm}]\ndeclarations: [{package: p, name: A, kind: class}, {package: p, name: A, kind: class}]", errors.CategoryModel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.input), FormatYAML)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, tc.category), "got %v", err)
		})
	}
}

func TestLoadFile_MissingAddsPath(t *testing.T) {
	_, err := LoadFile("testdata/nope.yaml")
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryInput, ce.Category())
	path, _ := ce.Context().GetString("path")
	assert.Equal(t, "testdata/nope.yaml", path)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("a/b.JSON"))
	assert.Equal(t, FormatYAML, FormatFor("a/b.yml"))
	assert.Equal(t, FormatYAML, FormatFor("decls"))
}
