package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/apidoc/internal/logfields"
)

// StageCommand is one stage of a documentation build.
type StageCommand interface {
	Name() StageName
	Execute(ctx context.Context, bs *BuildState) StageExecution
	// Description is logged when the stage starts.
	Description() string
	// Dependencies must succeed before the stage runs.
	Dependencies() []StageName
}

// CommandMetadata describes a stage.
type CommandMetadata struct {
	Name         StageName
	Description  string
	Dependencies []StageName
	// Optional stages may fail without failing the build.
	Optional bool
	// SkipIf turns the stage into a no-op for builds it does not apply to,
	// such as handoff without a publisher.
	SkipIf func(*BuildState) bool
}

// BaseCommand implements the metadata half of StageCommand. Stages embed it
// and add Execute.
type BaseCommand struct {
	metadata CommandMetadata
}

func NewBaseCommand(metadata CommandMetadata) BaseCommand {
	return BaseCommand{metadata: metadata}
}

func (c BaseCommand) Name() StageName           { return c.metadata.Name }
func (c BaseCommand) Description() string       { return c.metadata.Description }
func (c BaseCommand) Dependencies() []StageName { return c.metadata.Dependencies }
func (c BaseCommand) IsOptional() bool          { return c.metadata.Optional }

func (c BaseCommand) ShouldSkip(bs *BuildState) bool {
	return c.metadata.SkipIf != nil && c.metadata.SkipIf(bs)
}

func (c BaseCommand) LogStageSkipped(bs *BuildState) {
	bs.Logger.Info("Stage skipped", logfields.Stage(string(c.Name())))
}

// CommandRegistry holds the stages a pipeline can plan over, by name.
type CommandRegistry struct {
	commands map[StageName]StageCommand
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[StageName]StageCommand)}
}

// Register adds a stage, replacing one with the same name.
func (r *CommandRegistry) Register(cmd StageCommand) {
	r.commands[cmd.Name()] = cmd
}

func (r *CommandRegistry) Get(name StageName) (StageCommand, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns the registered stage names in no particular order.
func (r *CommandRegistry) List() []StageName {
	names := make([]StageName, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	return names
}

// DependencyError reports a stage depending on a stage that is not registered.
type DependencyError struct {
	Command    StageName
	Dependency StageName
}

func (e *DependencyError) Error() string {
	return "stage " + string(e.Command) + " depends on unregistered stage " + string(e.Dependency)
}

// ExecutionError ties a stage failure to the stage that produced it.
type ExecutionError struct {
	Command StageName
	Cause   error
}

func (e *ExecutionError) Error() string {
	return "stage " + string(e.Command) + " failed: " + e.Cause.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

func stageAttr(cmd StageCommand) slog.Attr { return logfields.Stage(string(cmd.Name())) }
