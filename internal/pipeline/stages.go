package pipeline

import (
	"context"

	"git.home.luguber.info/inful/apidoc/internal/content"
	"git.home.luguber.info/inful/apidoc/internal/documentables"
	"git.home.luguber.info/inful/apidoc/internal/inheritance"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/pages"
)

// NewRegistry returns a registry holding the standard stages.
func NewRegistry() *CommandRegistry {
	r := NewCommandRegistry()
	r.Register(NewDocumentablesCommand())
	r.Register(NewPagesCommand())
	r.Register(NewHandoffCommand())
	return r
}

// DocumentablesCommand parses every comment and resolves inheritance, then
// seals the store.
type DocumentablesCommand struct {
	BaseCommand
}

func NewDocumentablesCommand() *DocumentablesCommand {
	return &DocumentablesCommand{
		BaseCommand: NewBaseCommand(CommandMetadata{
			Name:        StageDocumentables,
			Description: "Parse comments and resolve inherited documentation",
		}),
	}
}

func (c *DocumentablesCommand) Execute(ctx context.Context, bs *BuildState) StageExecution {
	stats, err := documentables.NewParser(bs.Workers, bs.Logger).Parse(ctx, bs.Module, bs.Store, bs.Diagnostics)
	bs.Comments = stats
	for dialect, n := range stats.Parsed {
		bs.Recorder.AddCommentsParsed(string(dialect), n)
	}
	if err != nil {
		return ExecutionFailure(err)
	}

	resolver := inheritance.NewResolver(inheritance.WithWorkers(bs.Workers), inheritance.WithLogger(bs.Logger))
	istats, err := resolver.Resolve(ctx, bs.Module, bs.Store, bs.Diagnostics)
	if err != nil {
		return ExecutionFailure(err)
	}
	bs.Inheritance = istats
	bs.Store.Seal()

	bs.Logger.Debug("Documentables ready",
		logfields.Count(bs.Store.Len()),
		"supertypes", istats.Supertypes,
		"inherited", istats.Inherited)
	return ExecutionSuccess()
}

// PagesCommand builds the page tree from the sealed store.
type PagesCommand struct {
	BaseCommand
}

func NewPagesCommand() *PagesCommand {
	return &PagesCommand{
		BaseCommand: NewBaseCommand(CommandMetadata{
			Name:         StagePages,
			Description:  "Build the page tree",
			Dependencies: []StageName{StageDocumentables},
		}),
	}
}

func (c *PagesCommand) Execute(ctx context.Context, bs *BuildState) StageExecution {
	if err := ctx.Err(); err != nil {
		return ExecutionFailure(err)
	}
	b := pages.NewBuilder(bs.Module, bs.Store, bs.Logger)
	bs.Root = b.Build()
	bs.Pages = len(content.Pages(bs.Root))
	bs.FailedPages = b.Failed()
	bs.Recorder.SetPages(bs.Pages)
	return ExecutionSuccess()
}

// HandoffCommand delivers the page tree to the configured publisher. It is
// skipped when no publisher is configured.
type HandoffCommand struct {
	BaseCommand
}

func NewHandoffCommand() *HandoffCommand {
	return &HandoffCommand{
		BaseCommand: NewBaseCommand(CommandMetadata{
			Name:         StageHandoff,
			Description:  "Hand the page tree over to renderers",
			Dependencies: []StageName{StagePages},
			SkipIf:       func(bs *BuildState) bool { return bs.Publisher == nil },
		}),
	}
}

func (c *HandoffCommand) Execute(ctx context.Context, bs *BuildState) StageExecution {
	err := bs.Retry.Do(ctx, bs.Logger, string(StageHandoff), func() error {
		n, err := bs.Publisher.Publish(ctx, bs.ID, bs.Root)
		bs.Published = n
		return err
	})
	if err != nil {
		return ExecutionFailure(err)
	}
	return ExecutionSuccess()
}
