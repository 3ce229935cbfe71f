package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/eventstore"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/metrics"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// Report summarizes a finished build.
type Report struct {
	BuildID     string
	Outcome     metrics.BuildOutcomeLabel
	Duration    time.Duration
	Pages       int
	FailedPages int
	Published   int
	Diagnostics []diag.Diagnostic
	Result      *ExecutionResult
}

// Run executes every stage of p for bs, journals the build and records its
// outcome. Diagnostics never fail a build; they turn a success into a warning
// when any is reported at warn level.
func Run(ctx context.Context, p *Pipeline, bs *BuildState) (*Report, error) {
	start := time.Now()
	bs.Recorder.SetWorkers(bs.Workers)

	sets := make([]string, len(bs.Module.SourceSets))
	for i, s := range bs.Module.SourceSets {
		sets[i] = string(s.ID)
	}
	e, err := eventstore.NewBuildStarted(bs.ID, eventstore.BuildStartedPayload{
		Module:       bs.Module.Name,
		SourceSets:   sets,
		Declarations: countDeclarations(bs),
		Workers:      bs.Workers,
	})
	bs.journal(ctx, e, err)
	bs.Logger.Info("Build started", slog.String("module", bs.Module.Name), logfields.Workers(bs.Workers))

	result, runErr := p.ExecuteAll(ctx, bs)
	if runErr == nil && result != nil {
		runErr = p.requiredFailure(result)
	}

	report := &Report{
		BuildID:     bs.ID,
		Duration:    time.Since(start),
		Pages:       bs.Pages,
		FailedPages: bs.FailedPages,
		Published:   bs.Published,
		Diagnostics: bs.Diagnostics.All(),
		Result:      result,
	}
	report.Outcome = outcome(ctx, runErr, bs)

	// Journal writes outlive a cancelled build.
	jctx := context.WithoutCancel(ctx)
	counts := map[string]int{}
	for _, d := range report.Diagnostics {
		counts[string(d.Kind)]++
		bs.Recorder.IncDiagnostic(string(d.Kind))
		e, err := eventstore.NewDiagnostic(bs.ID, eventstore.DiagnosticPayload{
			Kind:      string(d.Kind),
			Message:   d.Message,
			DRI:       d.DRI,
			SourceSet: d.SourceSet,
			Context:   d.Context,
		})
		bs.journal(jctx, e, err)
	}

	completed := eventstore.BuildCompletedPayload{
		Outcome:     string(report.Outcome),
		DurationMS:  report.Duration.Milliseconds(),
		Pages:       report.Pages,
		Diagnostics: counts,
	}
	if runErr != nil {
		completed.Error = runErr.Error()
	}
	e, err = eventstore.NewBuildCompleted(bs.ID, completed)
	bs.journal(jctx, e, err)

	bs.Recorder.ObserveBuildDuration(report.Duration)
	bs.Recorder.IncBuildOutcome(report.Outcome)

	level := slog.LevelInfo
	if report.Outcome != metrics.BuildOutcomeSuccess {
		level = slog.LevelWarn
	}
	bs.Logger.Log(jctx, level, "Build finished",
		slog.String("outcome", string(report.Outcome)),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000),
		slog.Int("pages", report.Pages),
		slog.Int("diagnostics", len(report.Diagnostics)))

	return report, runErr
}

func outcome(ctx context.Context, err error, bs *BuildState) metrics.BuildOutcomeLabel {
	switch {
	case err != nil && (ctx.Err() != nil || stderrors.Is(err, context.Canceled)):
		return metrics.BuildOutcomeCanceled
	case err != nil:
		return metrics.BuildOutcomeFailed
	case bs.FailedPages > 0 || bs.Diagnostics.CountAtLeast(slog.LevelWarn) > 0:
		return metrics.BuildOutcomeWarning
	default:
		return metrics.BuildOutcomeSuccess
	}
}

func countDeclarations(bs *BuildState) int {
	n := 0
	bs.Module.Walk(func(_, _ *model.Declaration) bool {
		n++
		return true
	})
	return n
}

// requiredFailure reports the non-optional stages that failed in a run that
// continued past errors.
func (p *Pipeline) requiredFailure(result *ExecutionResult) error {
	var names []string
	for _, stage := range result.FailedStages() {
		cmd, ok := p.registry.Get(stage)
		if !ok {
			continue
		}
		if o, ok := cmd.(interface{ IsOptional() bool }); ok && o.IsOptional() {
			continue
		}
		names = append(names, string(stage))
	}
	if len(names) == 0 {
		return nil
	}
	return errors.PipelineError("stages failed").
		WithContext("stages", strings.Join(names, ",")).
		Build()
}
