package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
)

// Journal event types.
const (
	TypeBuildStarted   = "build.started"
	TypeStageStarted   = "stage.started"
	TypeStageCompleted = "stage.completed"
	TypeDiagnostic     = "diagnostic"
	TypeBuildCompleted = "build.completed"
)

// BuildStartedPayload describes the input of a build.
type BuildStartedPayload struct {
	Module       string   `json:"module"`
	SourceSets   []string `json:"source_sets"`
	Declarations int      `json:"declarations"`
	Workers      int      `json:"workers"`
}

// StagePayload describes a stage transition. Duration and Error are only set
// on completion.
type StagePayload struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DiagnosticPayload is a recoverable problem found during the build.
type DiagnosticPayload struct {
	Kind      string            `json:"kind"`
	Message   string            `json:"message"`
	DRI       string            `json:"dri,omitempty"`
	SourceSet string            `json:"source_set,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// BuildCompletedPayload is the final status of a build.
type BuildCompletedPayload struct {
	Outcome     string         `json:"outcome"`
	DurationMS  int64          `json:"duration_ms"`
	Pages       int            `json:"pages"`
	Diagnostics map[string]int `json:"diagnostics,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func newRecord(buildID, eventType string, payload any) (*Record, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryJournal, "failed to marshal event payload").
			WithContext("build_id", buildID).
			WithContext("event_type", eventType).
			Build()
	}
	return &Record{
		RecordBuildID:   buildID,
		RecordType:      eventType,
		RecordTimestamp: time.Now(),
		RecordPayload:   data,
	}, nil
}

// NewBuildStarted creates a build.started event.
func NewBuildStarted(buildID string, p BuildStartedPayload) (*Record, error) {
	return newRecord(buildID, TypeBuildStarted, p)
}

// NewStageStarted creates a stage.started event.
func NewStageStarted(buildID, stage string) (*Record, error) {
	return newRecord(buildID, TypeStageStarted, StagePayload{Stage: stage})
}

// NewStageCompleted creates a stage.completed event.
func NewStageCompleted(buildID, stage, result string, d time.Duration, stageErr error) (*Record, error) {
	p := StagePayload{Stage: stage, Result: result, DurationMS: d.Milliseconds()}
	if stageErr != nil {
		p.Error = stageErr.Error()
	}
	return newRecord(buildID, TypeStageCompleted, p)
}

// NewDiagnostic creates a diagnostic event.
func NewDiagnostic(buildID string, p DiagnosticPayload) (*Record, error) {
	r, err := newRecord(buildID, TypeDiagnostic, p)
	if err != nil {
		return nil, err
	}
	r.RecordMetadata = map[string]string{"kind": p.Kind}
	return r, nil
}

// NewBuildCompleted creates a build.completed event.
func NewBuildCompleted(buildID string, p BuildCompletedPayload) (*Record, error) {
	return newRecord(buildID, TypeBuildCompleted, p)
}
