// Package documentables parses the raw comments of a module once per build and
// attaches the structured comments to the extra store, where the pages stage
// picks them up.
package documentables

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/apidoc/internal/comment"
	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/extra"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// Comments maps each source set to the parsed comment of a declaration.
type Comments map[model.SourceSetID]*comment.Comment

// CommentsKey stores Comments on every declaration that has at least one raw comment.
var CommentsKey = extra.NewKey[Comments]("comments")

// Stats counts parsed comments per dialect.
type Stats struct {
	Parsed map[comment.Dialect]int
	Failed int
}

// Parser parses the comments of a module in parallel.
type Parser struct {
	Workers int
	Logger  *slog.Logger

	// parse is swapped in tests to simulate a crashing parser.
	parse func(raw string, d comment.Dialect) (*comment.Comment, []diag.Diagnostic)
}

// NewParser returns a parser bounded to workers concurrent top-level declarations.
func NewParser(workers int, logger *slog.Logger) *Parser {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{Workers: workers, Logger: logger, parse: comment.Parse}
}

// Parse parses every raw comment of the module into store. A comment whose
// parsing panics degrades to an empty comment; its siblings are unaffected.
func (p *Parser) Parse(ctx context.Context, m *model.Module, store *extra.Store, diags *diag.Collector) (Stats, error) {
	var mu sync.Mutex
	stats := Stats{Parsed: map[comment.Dialect]int{}}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for _, top := range m.Declarations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			local := map[comment.Dialect]int{}
			failed := 0
			var walk func(d *model.Declaration) error
			walk = func(d *model.Declaration) error {
				if comments, n := p.parseDeclaration(d, diags); len(comments) > 0 {
					if err := extra.Set(store, CommentsKey, d.DRI, comments); err != nil {
						return err
					}
					local[comment.DialectFor(string(d.Language))] += len(comments)
					failed += n
				}
				for _, c := range d.Children {
					if err := walk(c); err != nil {
						return err
					}
				}
				return nil
			}
			if err := walk(top); err != nil {
				return err
			}
			mu.Lock()
			for k, v := range local {
				stats.Parsed[k] += v
			}
			stats.Failed += failed
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if _, ok := errors.AsClassified(err); ok {
			return stats, err
		}
		return stats, errors.WrapError(err, errors.CategoryComment, "comment parsing aborted").Build()
	}
	return stats, nil
}

func (p *Parser) parseDeclaration(d *model.Declaration, diags *diag.Collector) (Comments, int) {
	if len(d.Docs) == 0 {
		return nil, 0
	}
	dialect := comment.DialectFor(string(d.Language))
	out := make(Comments, len(d.Docs))
	failed := 0
	for _, id := range d.SourceSets {
		raw, ok := d.Doc(id)
		if !ok {
			continue
		}
		c, problems, err := p.safeParse(raw, dialect)
		if err != nil {
			failed++
			p.Logger.Error("comment parsing failed",
				logfields.Declaration(d.DRI.String()),
				logfields.SourceSet(string(id)),
				logfields.Dialect(string(dialect)),
				logfields.Error(err))
		}
		for i := range problems {
			problems[i] = problems[i].At(d.DRI.String(), string(id))
		}
		if diags != nil {
			diags.Report(problems...)
		}
		out[id] = c
	}
	return out, failed
}

func (p *Parser) safeParse(raw string, d comment.Dialect) (c *comment.Comment, problems []diag.Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, problems = comment.Empty(d), nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	c, problems = p.parse(raw, d)
	return c, problems, nil
}

// Lookup returns the parsed comment of d in a source set, parsing on demand
// when the store has none. A parser panic yields an empty comment.
func Lookup(store *extra.Store, d *model.Declaration, id model.SourceSetID) (c *comment.Comment) {
	dialect := comment.DialectFor(string(d.Language))
	if store != nil {
		if comments, ok := extra.Get(store, CommentsKey, d.DRI); ok {
			if c, ok := comments[id]; ok && c != nil {
				return c
			}
			return comment.Empty(dialect)
		}
	}
	raw, ok := d.Doc(id)
	if !ok {
		return comment.Empty(dialect)
	}
	defer func() {
		if recover() != nil {
			c = comment.Empty(dialect)
		}
	}()
	c, _ = comment.Parse(raw, dialect)
	return c
}
