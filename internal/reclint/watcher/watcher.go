// Package watcher re-validates a project whenever its files change.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pmaojo/reclint/internal/reclint/config"
	"github.com/pmaojo/reclint/internal/reclint/rule"
	"github.com/pmaojo/reclint/internal/reclint/validate"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 200 * time.Millisecond

// ResultFunc receives the outcome of every re-validation.
type ResultFunc func(*validate.Result, error)

// Watcher monitors the project for changes and re-runs validation.
// It uses fsnotify to detect file creation, modification, and deletion.
type Watcher struct {
	watcher  *fsnotify.Watcher
	engine   *validate.Engine
	cfg      *config.Config
	targets  []string
	onResult ResultFunc
	debounce time.Duration
	log      *zap.SugaredLogger
	reload   bool // Root config changed since the last run.
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(w *Watcher) { w.log = log }
}

// New watches every non-excluded directory of the engine's project.
// Changes re-validate targets and hand the result to onResult.
func New(engine *validate.Engine, targets []string, onResult ResultFunc, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		engine:   engine,
		cfg:      engine.Config(),
		targets:  targets,
		onResult: onResult,
		debounce: DefaultDebounce,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addRecursive(w.cfg.Root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watcher error", "error", err)
		case <-timer.C:
			if w.reload {
				w.reload = false
				if err := w.engine.Reload(); err != nil {
					w.onResult(nil, err)
					continue
				}
				w.cfg = w.engine.Config()
				if err := w.addRecursive(w.cfg.Root); err != nil {
					w.log.Warnw("failed to watch directory", "dir", w.cfg.Root, "error", err)
				}
			}
			w.engine.Reset()
			res, err := w.engine.Validate(ctx, w.targets...)
			if ctx.Err() != nil {
				return nil
			}
			w.onResult(res, err)
		}
	}
}

// handleEvent reports whether the event should trigger a re-validation.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if w.cfg.HasExcludedSegment(w.rel(event.Name)) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.cfg.IsExcludedDir(filepath.Base(event.Name)) {
				return false
			}
			if err := w.addRecursive(event.Name); err != nil {
				w.log.Warnw("failed to watch directory", "dir", event.Name, "error", err)
			}
			return true
		}
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if w.rel(event.Name) == config.FileName {
		w.reload = true
		return true
	}
	base := filepath.Base(event.Name)
	if base == rule.FileName {
		return true
	}
	return w.cfg.IncludesFile(base)
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.cfg.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.cfg.Root && w.cfg.IsExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		w.log.Debugw("watching", "dir", w.rel(p))
		return w.watcher.Add(p)
	})
}
