// Package diag holds the recoverable problems found while transforming declarations.
//
// None of these stop a build. They are collected per build, logged, counted and
// journaled, and the affected declaration degrades to empty documentation.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"git.home.luguber.info/inful/apidoc/internal/logfields"
)

// Kind classifies a diagnostic.
type Kind string

const (
	// MalformedCommentSyntax is an unrecognized tag structure, kept as opaque text.
	MalformedCommentSyntax Kind = "malformed_comment_syntax"
	// AmbiguousInheritanceTie means two ancestors at the same distance were documented.
	AmbiguousInheritanceTie Kind = "ambiguous_inheritance_tie"
	// MissingDocumentation means neither a member nor its ancestors carry a comment.
	MissingDocumentation Kind = "missing_documentation"
	// StructuralInconsistency is an edge to a declaration absent from the source set.
	StructuralInconsistency Kind = "structural_inconsistency"
)

// Level returns the log level the kind is reported at.
func (k Kind) Level() slog.Level {
	switch k {
	case MalformedCommentSyntax, AmbiguousInheritanceTie:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// Diagnostic is one recoverable problem.
type Diagnostic struct {
	Kind      Kind              `json:"kind"`
	Message   string            `json:"message"`
	DRI       string            `json:"dri,omitempty"`
	SourceSet string            `json:"source_set,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// New creates a diagnostic with a formatted message.
func New(kind Kind, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At returns a copy located at a declaration and source set.
func (d Diagnostic) At(dri, sourceSet string) Diagnostic {
	d.DRI = dri
	d.SourceSet = sourceSet
	return d
}

// With returns a copy with an extra context value.
func (d Diagnostic) With(key, value string) Diagnostic {
	ctx := make(map[string]string, len(d.Context)+1)
	for k, v := range d.Context {
		ctx[k] = v
	}
	ctx[key] = value
	d.Context = ctx
	return d
}

func (d Diagnostic) String() string {
	if d.DRI == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Kind, d.Message, d.DRI)
}

// Collector gathers diagnostics from concurrent workers.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
	log   *slog.Logger
}

// NewCollector returns a collector that logs every diagnostic it receives.
// A nil logger falls back to slog.Default.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{log: logger}
}

// Report records diagnostics.
func (c *Collector) Report(ds ...Diagnostic) {
	if len(ds) == 0 {
		return
	}
	c.mu.Lock()
	c.items = append(c.items, ds...)
	c.mu.Unlock()
	for _, d := range ds {
		c.log.LogAttrs(context.Background(), d.Kind.Level(), d.Message,
			slog.String("kind", string(d.Kind)),
			logfields.Declaration(d.DRI),
			logfields.SourceSet(d.SourceSet))
	}
}

// All returns the diagnostics sorted by declaration, source set and kind, so
// output is stable regardless of worker scheduling.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	out := append([]Diagnostic(nil), c.items...)
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DRI != out[j].DRI {
			return out[i].DRI < out[j].DRI
		}
		if out[i].SourceSet != out[j].SourceSet {
			return out[i].SourceSet < out[j].SourceSet
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Count returns how many diagnostics of a kind were reported.
func (c *Collector) Count(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns how many diagnostics were reported.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CountAtLeast returns how many diagnostics are reported at level or above.
func (c *Collector) CountAtLeast(level slog.Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Kind.Level() >= level {
			n++
		}
	}
	return n
}
