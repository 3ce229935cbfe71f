package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/apidoc/internal/eventstore"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/metrics"
)

// Middleware wraps command execution with a cross-cutting concern.
type Middleware func(StageCommand) StageCommand

// Chain applies middleware to a command; the first middleware is outermost.
func Chain(cmd StageCommand, middlewares ...Middleware) StageCommand {
	for i := len(middlewares) - 1; i >= 0; i-- {
		cmd = middlewares[i](cmd)
	}
	return cmd
}

// Command wraps another command to provide middleware functionality.
type Command struct {
	wrapped StageCommand
	execute func(ctx context.Context, bs *BuildState) StageExecution
}

// NewCommand creates a new middleware command that wraps another command.
func NewCommand(wrapped StageCommand, execute func(ctx context.Context, bs *BuildState) StageExecution) *Command {
	return &Command{wrapped: wrapped, execute: execute}
}

func (m *Command) Name() StageName           { return m.wrapped.Name() }
func (m *Command) Description() string       { return m.wrapped.Description() }
func (m *Command) Dependencies() []StageName { return m.wrapped.Dependencies() }

// IsOptional forwards to the wrapped command.
func (m *Command) IsOptional() bool {
	if o, ok := m.wrapped.(interface{ IsOptional() bool }); ok {
		return o.IsOptional()
	}
	return false
}

func (m *Command) Execute(ctx context.Context, bs *BuildState) StageExecution {
	return m.execute(ctx, bs)
}

// ContextMiddleware fails a stage whose context is already done.
func ContextMiddleware() Middleware {
	return func(cmd StageCommand) StageCommand {
		return NewCommand(cmd, func(ctx context.Context, bs *BuildState) StageExecution {
			if err := ctx.Err(); err != nil {
				return ExecutionFailure(err)
			}
			return cmd.Execute(ctx, bs)
		})
	}
}

// ErrorHandlingMiddleware wraps stage errors with the stage name.
func ErrorHandlingMiddleware() Middleware {
	return func(cmd StageCommand) StageCommand {
		return NewCommand(cmd, func(ctx context.Context, bs *BuildState) StageExecution {
			result := cmd.Execute(ctx, bs)
			if result.Err != nil {
				var execErr *ExecutionError
				if !stderrors.As(result.Err, &execErr) {
					result.Err = &ExecutionError{Command: cmd.Name(), Cause: result.Err}
				}
			}
			return result
		})
	}
}

// LoggingMiddleware logs stage start and outcome.
func LoggingMiddleware() Middleware {
	return func(cmd StageCommand) StageCommand {
		return NewCommand(cmd, func(ctx context.Context, bs *BuildState) StageExecution {
			bs.Logger.Info("Starting stage", stageAttr(cmd), slog.String("description", cmd.Description()))
			start := time.Now()
			result := cmd.Execute(ctx, bs)
			ms := float64(time.Since(start).Microseconds()) / 1000
			if result.IsSuccess() {
				bs.Logger.Info("Stage completed", stageAttr(cmd), logfields.DurationMS(ms))
			} else {
				bs.Logger.Error("Stage failed", stageAttr(cmd), logfields.DurationMS(ms), logfields.Error(result.Err))
			}
			return result
		})
	}
}

// SkipMiddleware honours the SkipIf condition of commands built on BaseCommand.
func SkipMiddleware() Middleware {
	return func(cmd StageCommand) StageCommand {
		return NewCommand(cmd, func(ctx context.Context, bs *BuildState) StageExecution {
			if skipper, ok := cmd.(interface{ ShouldSkip(*BuildState) bool }); ok && skipper.ShouldSkip(bs) {
				if l, ok := cmd.(interface{ LogStageSkipped(*BuildState) }); ok {
					l.LogStageSkipped(bs)
				}
				return ExecutionSuccess()
			}
			return cmd.Execute(ctx, bs)
		})
	}
}

// RecoveryMiddleware turns a panicking stage into an internal error so the
// build reports a failed stage instead of crashing.
func RecoveryMiddleware() Middleware {
	return func(cmd StageCommand) StageCommand {
		return NewCommand(cmd, func(ctx context.Context, bs *BuildState) (result StageExecution) {
			defer func() {
				if p := recover(); p != nil {
					result = ExecutionFailure(errors.InternalError("stage panicked").
						WithContext("stage", string(cmd.Name())).
						WithContext("panic", fmt.Sprint(p)).
						Build())
				}
			}()
			return cmd.Execute(ctx, bs)
		})
	}
}

// ObservabilityMiddleware records stage duration and result in the metrics
// recorder and journals stage transitions.
func ObservabilityMiddleware() Middleware {
	return func(cmd StageCommand) StageCommand {
		return NewCommand(cmd, func(ctx context.Context, bs *BuildState) StageExecution {
			stage := string(cmd.Name())
			e, err := eventstore.NewStageStarted(bs.ID, stage)
			bs.journal(ctx, e, err)

			warnings := bs.Diagnostics.CountAtLeast(slog.LevelWarn)
			start := time.Now()
			result := cmd.Execute(ctx, bs)
			d := time.Since(start)

			label := resultLabel(ctx, result, bs.Diagnostics.CountAtLeast(slog.LevelWarn) > warnings)
			bs.Recorder.ObserveStageDuration(stage, d)
			bs.Recorder.IncStageResult(stage, label)
			// Journal writes outlive a cancelled build.
			e, err = eventstore.NewStageCompleted(bs.ID, stage, string(label), d, result.Err)
			bs.journal(context.WithoutCancel(ctx), e, err)
			return result
		})
	}
}

func resultLabel(ctx context.Context, result StageExecution, warned bool) metrics.ResultLabel {
	switch {
	case result.Err != nil && (ctx.Err() != nil || stderrors.Is(result.Err, context.Canceled)):
		return metrics.ResultCanceled
	case result.Err != nil:
		return metrics.ResultFatal
	case warned:
		return metrics.ResultWarning
	default:
		return metrics.ResultSuccess
	}
}

// DefaultMiddleware returns the standard middleware stack, outermost first.
func DefaultMiddleware() []Middleware {
	return []Middleware{
		ContextMiddleware(),
		ErrorHandlingMiddleware(),
		LoggingMiddleware(),
		ObservabilityMiddleware(),
		RecoveryMiddleware(),
		SkipMiddleware(),
	}
}
