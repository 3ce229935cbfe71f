package inheritance

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/documentables"
	"git.home.luguber.info/inful/apidoc/internal/extra"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// Resolver computes inheritors and inherited documentation.
type Resolver struct {
	workers int
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWorkers bounds the number of top-level declarations resolved concurrently.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver returns a resolver using one worker per CPU by default.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{workers: runtime.GOMAXPROCS(0), logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats summarizes one Resolve run.
type Stats struct {
	Supertypes int
	Inherited  int
	Failed     int
}

// Inheritors returns the direct subtypes of every classlike, keyed by DRI string.
// Classlikes without inheritors have no entry.
func (r *Resolver) Inheritors(m *model.Module, diags *diag.Collector) map[string]InheritorsInfo {
	out := make(map[string]InheritorsInfo)
	m.Walk(func(d, _ *model.Declaration) bool {
		if !d.Kind.IsClasslike() {
			return true
		}
		for _, id := range d.SourceSets {
			for _, ref := range d.SupertypesIn(id) {
				super, ok := m.LookupIn(ref.DRI, id)
				if !ok {
					if diags != nil {
						diags.Report(diag.New(diag.StructuralInconsistency,
							"supertype %s is not declared in source set %s", ref.DRI, id).
							At(d.DRI.String(), string(id)))
					}
					continue
				}
				key := super.DRI.String()
				info := out[key]
				if info == nil {
					info = make(InheritorsInfo)
					out[key] = info
				}
				if !containsDRI(info[id], d.DRI) {
					info[id] = append(info[id], Inheritor{Name: d.Name, DRI: d.DRI})
				}
			}
		}
		return true
	})
	return out
}

func containsDRI(list []Inheritor, dri model.DRI) bool {
	for _, i := range list {
		if i.DRI.Equal(dri) {
			return true
		}
	}
	return false
}

// InheritedDocumentation finds documentation for an undocumented member by
// walking its owner's supertypes breadth-first in every source set of the
// member. Each ancestor is visited once, so diamonds contribute a single
// entry. Among documented candidates at the same distance the one reached
// first in declared supertype order wins. Comments are read from the
// documentables entries in store.
func (r *Resolver) InheritedDocumentation(m *model.Module, store *extra.Store, member *model.Declaration, diags *diag.Collector) InheritedDocumentation {
	if member.Kind != model.KindFunction && member.Kind != model.KindProperty {
		return nil
	}
	owner, ok := m.Parent(member)
	if !ok || !owner.Kind.IsClasslike() {
		return nil
	}

	var out InheritedDocumentation
	for _, id := range member.SourceSets {
		if documented(store, member, id) {
			continue
		}
		found, ok := r.nearest(m, store, owner, member, id, diags)
		if !ok {
			continue
		}
		if out == nil {
			out = make(InheritedDocumentation)
		}
		out[id] = found
	}
	return out
}

type visit struct {
	decl  *model.Declaration
	subst map[string]string
}

func (r *Resolver) nearest(m *model.Module, store *extra.Store, owner, member *model.Declaration, id model.SourceSetID, diags *diag.Collector) (InheritedDoc, bool) {
	seen := map[string]bool{owner.DRI.String(): true}
	level := []visit{{decl: owner, subst: map[string]string{}}}
	want := member.ParamTypes()

	for distance := 1; len(level) > 0; distance++ {
		var next []visit
		var hits []InheritedDoc
		for _, v := range level {
			for _, ref := range v.decl.SupertypesIn(id) {
				super, ok := m.LookupIn(ref.DRI, id)
				if !ok {
					continue
				}
				key := super.DRI.String()
				if seen[key] {
					continue
				}
				seen[key] = true

				subst := bindArguments(super.TypeParams, ref.Arguments, v.subst)
				next = append(next, visit{decl: super, subst: subst})

				candidate := matchingMember(super, member, want, subst, id)
				if candidate == nil || !documented(store, candidate, id) {
					continue
				}
				raw, _ := candidate.Doc(id)
				hits = append(hits, InheritedDoc{
					From:     candidate.DRI,
					Owner:    super.DRI,
					Distance: distance,
					Raw:      raw,
					Language: candidate.Language,
				})
			}
		}
		if len(hits) > 0 {
			if len(hits) > 1 && diags != nil {
				others := make([]string, 0, len(hits)-1)
				for _, h := range hits[1:] {
					others = append(others, h.From.String())
				}
				diags.Report(diag.New(diag.AmbiguousInheritanceTie,
					"%d documented ancestors at distance %d, using %s", len(hits), distance, hits[0].From).
					At(member.DRI.String(), string(id)).
					With("ignored", strings.Join(others, ",")))
			}
			return hits[0], true
		}
		level = next
	}
	if diags != nil {
		diags.Report(diag.New(diag.MissingDocumentation, "no documented ancestor for %s", member.Name).
			At(member.DRI.String(), string(id)))
	}
	return InheritedDoc{}, false
}

// documented reports whether d carries a non-empty comment in the source set.
func documented(store *extra.Store, d *model.Declaration, id model.SourceSetID) bool {
	if _, ok := d.Doc(id); !ok {
		return false
	}
	return !documentables.Lookup(store, d, id).IsEmpty()
}

// matchingMember returns the member of super with the same name, kind and
// parameter types as the inheriting member once super's type parameters are
// substituted.
func matchingMember(super, member *model.Declaration, want []string, subst map[string]string, id model.SourceSetID) *model.Declaration {
	for _, c := range super.Children {
		if c.Kind != member.Kind || c.Name != member.Name || !c.ExistsIn(id) || len(c.Params) != len(want) {
			continue
		}
		match := true
		for i, p := range c.Params {
			if substitute(p.Type, subst) != want[i] {
				match = false
				break
			}
		}
		if match {
			return c
		}
	}
	return nil
}

// bindArguments maps the type parameters of a supertype onto the arguments
// given at the reference site, expressed in the inheriting member's terms.
func bindArguments(params, args []string, outer map[string]string) map[string]string {
	subst := make(map[string]string, len(params))
	for i, p := range params {
		if i >= len(args) {
			break
		}
		subst[p] = substitute(args[i], outer)
	}
	return subst
}

var identifier = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_.]*`)

func substitute(typ string, subst map[string]string) string {
	if len(subst) == 0 {
		return typ
	}
	return identifier.ReplaceAllStringFunc(typ, func(name string) string {
		if v, ok := subst[name]; ok {
			return v
		}
		return name
	})
}

// Resolve computes inheritors and inherited documentation for the whole module
// and records them in store. Top-level declarations are processed concurrently.
// A panic while resolving one declaration is logged and only that declaration
// loses its derived data.
func (r *Resolver) Resolve(ctx context.Context, m *model.Module, store *extra.Store, diags *diag.Collector) (Stats, error) {
	inheritors := r.Inheritors(m, diags)

	var supertypes, inherited, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, top := range m.Declarations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer func() {
				if p := recover(); p != nil {
					failed.Add(1)
					r.logger.Error("inheritance resolution failed",
						logfields.Declaration(top.DRI.String()),
						slog.String("panic", fmt.Sprint(p)))
				}
			}()
			return r.resolveTree(m, top, inheritors, store, diags, &supertypes, &inherited)
		})
	}
	if err := g.Wait(); err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return Stats{}, ce
		}
		return Stats{}, errors.WrapError(err, errors.CategoryInheritance, "inheritance resolution aborted").Build()
	}
	return Stats{
		Supertypes: int(supertypes.Load()),
		Inherited:  int(inherited.Load()),
		Failed:     int(failed.Load()),
	}, nil
}

func (r *Resolver) resolveTree(m *model.Module, top *model.Declaration, inheritors map[string]InheritorsInfo,
	store *extra.Store, diags *diag.Collector, supertypes, inherited *atomic.Int64,
) error {
	var walk func(d *model.Declaration) error
	walk = func(d *model.Declaration) error {
		if info, ok := inheritors[d.DRI.String()]; ok {
			if err := extra.Set(store, InheritorsKey, d.DRI, info); err != nil {
				return err
			}
			supertypes.Add(1)
		}
		if docs := r.InheritedDocumentation(m, store, d, diags); len(docs) > 0 {
			if err := extra.Set(store, InheritedDocsKey, d.DRI, docs); err != nil {
				return err
			}
			inherited.Add(1)
		}
		for _, c := range d.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(top)
}
