// Package pipeline runs a build as a sequence of stage commands ordered by
// their dependencies: documentables (comment parsing and inheritance), pages
// and handoff.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
)

// Pipeline orchestrates the execution of stage commands in dependency order.
type Pipeline struct {
	registry    *CommandRegistry
	middleware  []Middleware
	stopOnError bool
}

// Option configures pipeline behavior.
type Option func(*Pipeline)

// WithMiddleware replaces the middleware stack.
func WithMiddleware(mw ...Middleware) Option {
	return func(p *Pipeline) {
		p.middleware = mw
	}
}

// WithStopOnError configures whether the pipeline stops on first error.
func WithStopOnError(stop bool) Option {
	return func(p *Pipeline) {
		p.stopOnError = stop
	}
}

// New creates a pipeline over the commands of registry.
func New(registry *CommandRegistry, options ...Option) *Pipeline {
	p := &Pipeline{
		registry:    registry,
		stopOnError: true,
		middleware:  DefaultMiddleware(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Default returns a pipeline running the standard stages.
func Default(options ...Option) *Pipeline {
	return New(NewRegistry(), options...)
}

// ExecutionPlan represents the planned execution order of commands.
type ExecutionPlan struct {
	Order []StageName
	Graph map[StageName][]StageName // dependency -> dependents
}

// BuildExecutionPlan orders the requested stages and their transitive
// dependencies topologically. Ties are broken by name so the order is stable.
func (p *Pipeline) BuildExecutionPlan(stages []StageName) (*ExecutionPlan, error) {
	graph := make(map[StageName][]StageName)
	if len(stages) == 0 {
		return &ExecutionPlan{Order: []StageName{}, Graph: graph}, nil
	}

	stageSet := make(map[StageName]bool)
	for _, stage := range stages {
		if _, exists := p.registry.Get(stage); !exists {
			return nil, errors.PipelineError(fmt.Sprintf("stage %s not found in registry", stage)).Build()
		}
		stageSet[stage] = true
	}

	var addDependencies func(StageName) error
	addDependencies = func(stage StageName) error {
		cmd, exists := p.registry.Get(stage)
		if !exists {
			return &DependencyError{Command: stage, Dependency: stage}
		}
		for _, dep := range cmd.Dependencies() {
			if _, ok := p.registry.Get(dep); !ok {
				return &DependencyError{Command: stage, Dependency: dep}
			}
			if !stageSet[dep] {
				stageSet[dep] = true
				if err := addDependencies(dep); err != nil {
					return err
				}
			}
			graph[dep] = append(graph[dep], stage)
		}
		return nil
	}
	for _, stage := range stages {
		if err := addDependencies(stage); err != nil {
			return nil, errors.WrapError(err, errors.CategoryPipeline, "failed to resolve stage dependencies").
				WithContext("stage", string(stage)).
				Build()
		}
	}

	// Dependencies may have been reached from several stages.
	for dep, dependents := range graph {
		graph[dep] = dedupe(dependents)
	}

	inDegree := make(map[StageName]int, len(stageSet))
	for stage := range stageSet {
		inDegree[stage] = 0
	}
	for _, dependents := range graph {
		for _, dependent := range dependents {
			inDegree[dependent]++
		}
	}

	var queue []StageName
	for stage, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, stage)
		}
	}
	sortStages(queue)

	var order []StageName
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		var ready []StageName
		for _, dependent := range graph[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sortStages(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(stageSet) {
		return nil, errors.PipelineError("circular dependency detected among stages").Build()
	}
	return &ExecutionPlan{Order: order, Graph: graph}, nil
}

func sortStages(s []StageName) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}

func dedupe(s []StageName) []StageName {
	seen := make(map[StageName]bool, len(s))
	out := s[:0]
	for _, x := range s {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sortStages(out)
	return out
}

// Execute runs the given stages and their dependencies.
func (p *Pipeline) Execute(ctx context.Context, bs *BuildState, stages ...StageName) (*ExecutionResult, error) {
	plan, err := p.BuildExecutionPlan(stages)
	if err != nil {
		return nil, err
	}

	bs.Logger.Debug("Executing pipeline", logfields.Count(len(plan.Order)), "order", plan.Order)

	result := &ExecutionResult{
		ExecutedStages: make(map[StageName]StageExecution),
		Plan:           plan,
	}

	failed := map[StageName]bool{}
	for _, stageName := range plan.Order {
		if err := ctx.Err(); err != nil {
			result.ExecutedStages[stageName] = ExecutionFailure(err)
			result.Canceled = true
			return result, err
		}

		cmd, _ := p.registry.Get(stageName)
		if blocked := p.blockedBy(cmd, failed); blocked != "" {
			bs.Logger.Warn("Stage not run, dependency failed", stageAttr(cmd), "dependency", string(blocked))
			failed[stageName] = true
			continue
		}

		stageResult := Chain(cmd, p.middleware...).Execute(ctx, bs)
		result.ExecutedStages[stageName] = stageResult

		if !stageResult.IsSuccess() {
			failed[stageName] = true
			if ctx.Err() != nil {
				result.Canceled = true
				return result, stageResult.Err
			}
			optional := false
			if o, ok := cmd.(interface{ IsOptional() bool }); ok {
				optional = o.IsOptional()
			}
			if p.stopOnError && !optional {
				return result, stageResult.Err
			}
		}

		if stageResult.ShouldSkip() {
			bs.Logger.Info("Pipeline skip requested", stageAttr(cmd))
			result.Skipped = true
			break
		}
	}

	return result, nil
}

func (p *Pipeline) blockedBy(cmd StageCommand, failed map[StageName]bool) StageName {
	for _, dep := range cmd.Dependencies() {
		if failed[dep] {
			return dep
		}
	}
	return ""
}

// ExecuteAll runs all registered stages in dependency order.
func (p *Pipeline) ExecuteAll(ctx context.Context, bs *BuildState) (*ExecutionResult, error) {
	return p.Execute(ctx, bs, p.registry.List()...)
}

// ExecutionResult contains the results of pipeline execution.
type ExecutionResult struct {
	ExecutedStages map[StageName]StageExecution
	Plan           *ExecutionPlan
	Canceled       bool
	Skipped        bool
}

// IsSuccess returns true if all executed stages completed successfully.
func (r *ExecutionResult) IsSuccess() bool {
	if r.Canceled {
		return false
	}
	for _, result := range r.ExecutedStages {
		if !result.IsSuccess() {
			return false
		}
	}
	return true
}

// FailedStages returns the names of stages that failed, sorted.
func (r *ExecutionResult) FailedStages() []StageName {
	var failed []StageName
	for stage, result := range r.ExecutedStages {
		if !result.IsSuccess() {
			failed = append(failed, stage)
		}
	}
	sortStages(failed)
	return failed
}
