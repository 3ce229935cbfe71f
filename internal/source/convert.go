package source

import (
	"fmt"

	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// Build converts the file into a model.Module.
func (f *File) Build() (*model.Module, error) {
	if f.Module == "" {
		return nil, errors.InputError("module name is required").Build()
	}
	if len(f.SourceSets) == 0 {
		return nil, errors.InputError("at least one source set is required").
			WithContext("module", f.Module).
			Build()
	}
	sets := make([]model.SourceSet, len(f.SourceSets))
	all := make([]model.SourceSetID, len(f.SourceSets))
	for i, s := range f.SourceSets {
		if s.ID == "" {
			return nil, errors.InputError("source set without id").
				WithContext("index", i).
				Build()
		}
		if s.Platform == "" {
			s.Platform = model.NormalizePlatform(string(s.ID))
		} else {
			s.Platform = model.NormalizePlatform(string(s.Platform))
		}
		sets[i] = s
		all[i] = s.ID
	}

	decls := make([]*model.Declaration, 0, len(f.Declarations))
	for i := range f.Declarations {
		d, err := convert(&f.Declarations[i], nil, all)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return model.NewModule(f.Module, sets, decls)
}

func convert(in *Declaration, parent *model.Declaration, inherited []model.SourceSetID) (*model.Declaration, error) {
	if in.Name == "" {
		return nil, errors.InputError("declaration without name").Build()
	}
	if parent == nil && in.Package == "" {
		return nil, errors.InputError("top-level declaration without package").
			WithContext("name", in.Name).
			Build()
	}
	switch in.Kind {
	case model.KindClass, model.KindInterface, model.KindObject, model.KindEnum,
		model.KindFunction, model.KindProperty, model.KindConstructor:
	default:
		return nil, errors.InputError(fmt.Sprintf("unknown declaration kind %q", in.Kind)).
			WithContext("name", in.Name).
			Build()
	}
	if in.Kind.IsMember() && len(in.Members) > 0 {
		return nil, errors.InputError("only classlikes can have members").
			WithContext("name", in.Name).
			Build()
	}
	if in.Kind == model.KindConstructor && (parent == nil || !parent.Kind.IsClasslike()) {
		return nil, errors.InputError("constructor outside a classlike").
			WithContext("name", in.Name).
			Build()
	}

	d := &model.Declaration{
		Name:       in.Name,
		Kind:       in.Kind,
		Language:   in.Language,
		SourceSets: in.SourceSets,
		TypeParams: in.TypeParams,
		Params:     in.Params,
		Primary:    in.Primary,
	}
	if len(d.SourceSets) == 0 {
		d.SourceSets = inherited
	}

	var scope model.DRI
	if parent != nil {
		scope = parent.DRI
		if d.Language == "" {
			d.Language = parent.Language
		}
	} else {
		scope = model.DRI{Package: in.Package}
	}
	if d.Language == "" {
		d.Language = model.LanguageKotlin
	}

	if in.Kind.IsClasslike() {
		d.DRI = scope.WithClass(in.Name)
	} else {
		d.DRI = scope.WithCallable(in.Name, d.ParamTypes()...)
	}

	d.Docs = docs(in, d.SourceSets)
	d.Supertypes = supertypes(in, d)

	for i := range in.Members {
		c, err := convert(&in.Members[i], d, d.SourceSets)
		if err != nil {
			return nil, err
		}
		d.Children = append(d.Children, c)
	}
	return d, nil
}

func docs(in *Declaration, sets []model.SourceSetID) map[model.SourceSetID]string {
	if in.Doc == "" && len(in.Docs) == 0 {
		return nil
	}
	out := make(map[model.SourceSetID]string, len(sets))
	if in.Doc != "" {
		for _, s := range sets {
			out[s] = in.Doc
		}
	}
	for s, doc := range in.Docs {
		out[s] = doc
	}
	return out
}

func supertypes(in *Declaration, d *model.Declaration) map[model.SourceSetID][]model.TypeRef {
	if !d.Kind.IsClasslike() || (len(in.Supertypes) == 0 && len(in.SupertypesIn) == 0) {
		return nil
	}
	ref := func(s Supertype) model.TypeRef {
		pkg := s.Package
		if pkg == "" {
			pkg = d.DRI.Package
		}
		return model.TypeRef{DRI: model.DRI{Package: pkg}.WithClass(s.Class), Arguments: s.Arguments}
	}
	out := make(map[model.SourceSetID][]model.TypeRef, len(d.SourceSets))
	for _, id := range d.SourceSets {
		list := in.Supertypes
		if override, ok := in.SupertypesIn[id]; ok {
			list = override
		}
		for _, s := range list {
			out[id] = append(out[id], ref(s))
		}
	}
	return out
}
