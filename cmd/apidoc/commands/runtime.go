package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/apidoc/internal/config"
	"git.home.luguber.info/inful/apidoc/internal/eventstore"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/handoff"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/metrics"
	"git.home.luguber.info/inful/apidoc/internal/pipeline"
)

// runtime holds the collaborators shared by every build of one invocation.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	recorder  metrics.Recorder
	journal   eventstore.Store
	publisher handoff.Publisher
	pipeline  *pipeline.Pipeline
}

// newRuntime opens the journal and the publishers configured in cfg. reg may
// be nil, in which case no metrics are recorded.
func newRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (*runtime, error) {
	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.NoopRecorder{},
		pipeline: pipeline.Default(pipeline.WithStopOnError(cfg.StopOnError())),
	}
	if reg != nil {
		rt.recorder = metrics.NewPrometheusRecorder(reg)
	}
	if cfg.Journal.Enabled {
		store, err := openJournal(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		rt.journal = store
	}

	publishers := handoff.Multi{handoff.NewFileWriter(cfg.Output.Directory)}
	if cfg.Handoff.NATS.Enabled {
		np, err := handoff.NewNATSPublisher(ctx, handoff.NATSConfig{
			URL:     cfg.Handoff.NATS.URL,
			Subject: cfg.Handoff.NATS.Subject,
			Stream:  cfg.Handoff.NATS.Stream,
			Timeout: cfg.NATSTimeout(),
		}, logger)
		if err != nil {
			rt.Close()
			return nil, err
		}
		publishers = append(publishers, np)
	}
	rt.publisher = publishers
	return rt, nil
}

// build loads the declaration file and runs one build.
func (rt *runtime) build(ctx context.Context) (*pipeline.Report, error) {
	m, err := loadModule(rt.cfg.Input.Path)
	if err != nil {
		return nil, err
	}
	bs := pipeline.NewBuildState(m, rt.logger)
	if rt.cfg.Pipeline.Workers > 0 {
		bs.Workers = rt.cfg.Pipeline.Workers
	}
	bs.Recorder = rt.recorder
	bs.Journal = rt.journal
	bs.Publisher = rt.publisher
	bs.Retry = rt.cfg.RetryPolicy()
	return pipeline.Run(ctx, rt.pipeline, bs)
}

func (rt *runtime) Close() {
	if rt.publisher != nil {
		if err := rt.publisher.Close(); err != nil {
			rt.logger.Warn("Closing publisher failed", logfields.Error(err))
		}
	}
	if rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			rt.logger.Warn("Closing journal failed", logfields.Error(err))
		}
	}
}

func openJournal(path string) (*eventstore.SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.FileSystemError("failed to create journal directory").WithCause(err).
				WithContext("path", path).
				Build()
		}
	}
	return eventstore.NewSQLiteStore(path)
}
