// Package watch reruns a build whenever the declaration file changes.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
)

// Watcher monitors one file. Editors often replace files instead of writing
// them in place, so the containing directory is watched and events are
// filtered by name.
type Watcher struct {
	path     string
	debounce time.Duration
	fs       *fsnotify.Watcher
	logger   *slog.Logger
}

// New watches path. Changes closer together than debounce trigger one run.
func New(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.FileSystemError("resolve watched path").WithCause(err).
			WithContext("path", path).Build()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.FileSystemError("create file watcher").WithCause(err).Build()
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		_ = fs.Close()
		return nil, errors.FileSystemError("watch directory").WithCause(err).
			WithContext("path", filepath.Dir(abs)).Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: abs, debounce: debounce, fs: fs, logger: logger}, nil
}

// Run calls fn after every debounced change until ctx is done. Runs never
// overlap: changes seen while fn runs schedule one more run afterwards.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context)) error {
	defer func() { _ = w.fs.Close() }()
	w.logger.Info("Watching for changes", logfields.Path(w.path))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", logfields.Error(err))
		case <-timer.C:
			fn(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
