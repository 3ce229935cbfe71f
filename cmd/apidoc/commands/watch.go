package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/metrics"
	"git.home.luguber.info/inful/apidoc/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Input string `short:"i" help:"Declaration file, overriding input.path"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(true)
	if err != nil {
		return err
	}
	if w.Input != "" {
		cfg.Input.Path = w.Input
	}
	logger := g.logger(cfg)

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}
	rt, err := newRuntime(g.Context, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if reg != nil {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, reg)
		go func() {
			logger.Info("Serving metrics", logfields.Path(cfg.Metrics.Path), slog.String("listen", cfg.Metrics.Listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	watcher, err := watch.New(cfg.Input.Path, cfg.DebounceDuration(), logger)
	if err != nil {
		return err
	}

	rebuild := func(ctx context.Context) {
		// A broken declaration file is expected while it is being edited.
		if _, err := rt.build(ctx); err != nil {
			logger.Warn("Build failed", logfields.Error(err))
		}
	}
	rebuild(g.Context)
	return watcher.Run(g.Context, rebuild)
}
