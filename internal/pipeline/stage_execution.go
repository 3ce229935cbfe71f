package pipeline

// StageExecution represents the structured result of a stage execution.
type StageExecution struct {
	Err  error // error encountered during stage execution
	Skip bool  // whether subsequent stages should be skipped
}

// ExecutionSuccess returns a successful stage execution result.
func ExecutionSuccess() StageExecution {
	return StageExecution{}
}

// ExecutionSuccessWithSkip returns a successful stage execution that skips remaining stages.
func ExecutionSuccessWithSkip() StageExecution {
	return StageExecution{Skip: true}
}

// ExecutionFailure returns a failed stage execution result.
func ExecutionFailure(err error) StageExecution {
	return StageExecution{Err: err}
}

// IsSuccess returns true if the stage completed successfully (no error).
func (r StageExecution) IsSuccess() bool {
	return r.Err == nil
}

// ShouldSkip returns true if subsequent stages should be skipped.
func (r StageExecution) ShouldSkip() bool {
	return r.Skip
}
