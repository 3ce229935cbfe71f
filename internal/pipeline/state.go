package pipeline

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/apidoc/internal/content"
	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/documentables"
	"git.home.luguber.info/inful/apidoc/internal/eventstore"
	"git.home.luguber.info/inful/apidoc/internal/extra"
	"git.home.luguber.info/inful/apidoc/internal/handoff"
	"git.home.luguber.info/inful/apidoc/internal/inheritance"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/metrics"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"git.home.luguber.info/inful/apidoc/internal/retry"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StageDocumentables StageName = "documentables"
	StagePages         StageName = "pages"
	StageHandoff       StageName = "handoff"
)

// BuildState carries one build through the stages. Stages fill in the
// results; the collaborators are set up by the caller before Run.
type BuildState struct {
	ID          string
	Module      *model.Module
	Store       *extra.Store
	Diagnostics *diag.Collector

	// Results.
	Comments    documentables.Stats
	Inheritance inheritance.Stats
	Root        *content.Page
	Pages       int
	FailedPages int
	Published   int

	// Collaborators.
	Workers   int
	Recorder  metrics.Recorder
	Journal   eventstore.Store
	Publisher handoff.Publisher
	Retry     retry.Policy
	Logger    *slog.Logger
}

// NewBuildState prepares a build of m with a fresh ID, store and collector.
func NewBuildState(m *model.Module, logger *slog.Logger) *BuildState {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With(logfields.BuildID(id))
	return &BuildState{
		ID:          id,
		Module:      m,
		Store:       extra.NewStore(),
		Diagnostics: diag.NewCollector(logger),
		Workers:     runtime.GOMAXPROCS(0),
		Recorder:    metrics.NoopRecorder{},
		Retry:       retry.DefaultPolicy(),
		Logger:      logger,
	}
}

// journal appends an event to the build journal. Journal failures are logged
// and never fail the build.
func (bs *BuildState) journal(ctx context.Context, e *eventstore.Record, err error) {
	if bs.Journal == nil {
		return
	}
	if err == nil {
		err = bs.Retry.Do(ctx, bs.Logger, "journal", func() error {
			return eventstore.AppendEvent(ctx, bs.Journal, e)
		})
	}
	if err != nil {
		bs.Logger.Warn("Journal append failed", logfields.Error(err))
	}
}
