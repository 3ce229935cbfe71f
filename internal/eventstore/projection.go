package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const (
	buildStatusRunning = "running"
)

// StageSummary is the outcome of one stage of a build.
type StageSummary struct {
	Name     string        `json:"name"`
	Result   string        `json:"result,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// BuildSummary is a read model summarizing a completed or in-progress build.
type BuildSummary struct {
	BuildID      string         `json:"build_id"`
	Module       string         `json:"module,omitempty"`
	Status       string         `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Duration     time.Duration  `json:"duration,omitempty"`
	Declarations int            `json:"declarations"`
	Pages        int            `json:"pages"`
	Stages       []StageSummary `json:"stages,omitempty"`
	Diagnostics  map[string]int `json:"diagnostics,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// BuildHistoryProjection maintains an in-memory view of build history,
// reconstructed from the journal.
type BuildHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	maxSize int
}

// NewBuildHistoryProjection creates a projection backed by store keeping at
// most maxHistorySize completed builds.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds = make(map[string]*BuildSummary)
	for _, e := range events {
		p.applyLocked(e)
	}
	p.pruneLocked()
	return nil
}

// Apply processes a single event as it is emitted.
func (p *BuildHistoryProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
	p.pruneLocked()
}

func (p *BuildHistoryProjection) applyLocked(e Event) {
	id := e.BuildID()
	if id == "" {
		return
	}
	s, ok := p.builds[id]
	if !ok {
		s = &BuildSummary{BuildID: id, Status: buildStatusRunning, StartedAt: e.Timestamp()}
		p.builds[id] = s
	}

	switch e.Type() {
	case TypeBuildStarted:
		var payload BuildStartedPayload
		if json.Unmarshal(e.Payload(), &payload) == nil {
			s.Module = payload.Module
			s.Declarations = payload.Declarations
		}
		s.StartedAt = e.Timestamp()
	case TypeStageStarted:
		var payload StagePayload
		if json.Unmarshal(e.Payload(), &payload) == nil {
			s.Stages = append(s.Stages, StageSummary{Name: payload.Stage})
		}
	case TypeStageCompleted:
		var payload StagePayload
		if json.Unmarshal(e.Payload(), &payload) != nil {
			return
		}
		stage := StageSummary{
			Name:     payload.Stage,
			Result:   payload.Result,
			Duration: time.Duration(payload.DurationMS) * time.Millisecond,
			Error:    payload.Error,
		}
		for i := range s.Stages {
			if s.Stages[i].Name == payload.Stage && s.Stages[i].Result == "" {
				s.Stages[i] = stage
				return
			}
		}
		s.Stages = append(s.Stages, stage)
	case TypeDiagnostic:
		var payload DiagnosticPayload
		if json.Unmarshal(e.Payload(), &payload) == nil {
			if s.Diagnostics == nil {
				s.Diagnostics = map[string]int{}
			}
			s.Diagnostics[payload.Kind]++
		}
	case TypeBuildCompleted:
		var payload BuildCompletedPayload
		if json.Unmarshal(e.Payload(), &payload) == nil {
			s.Status = payload.Outcome
			s.Pages = payload.Pages
			s.ErrorMessage = payload.Error
		}
		done := e.Timestamp()
		s.CompletedAt = &done
		s.Duration = done.Sub(s.StartedAt)
	}
}

// pruneLocked drops the oldest completed builds beyond maxSize.
func (p *BuildHistoryProjection) pruneLocked() {
	completed := p.completedLocked()
	for _, s := range completed[min(len(completed), p.maxSize):] {
		delete(p.builds, s.BuildID)
	}
}

// completedLocked returns completed builds, newest first.
func (p *BuildHistoryProjection) completedLocked() []*BuildSummary {
	var out []*BuildSummary
	for _, s := range p.builds {
		if s.CompletedAt != nil {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].BuildID > out[j].BuildID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// GetHistory returns completed builds, newest first.
func (p *BuildHistoryProjection) GetHistory() []BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	completed := p.completedLocked()
	out := make([]BuildSummary, len(completed))
	for i, s := range completed {
		out[i] = *s
	}
	return out
}

// GetBuild returns a copy of the summary of one build.
func (p *BuildHistoryProjection) GetBuild(buildID string) (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.builds[buildID]
	if !ok {
		return BuildSummary{}, false
	}
	return *s, true
}
