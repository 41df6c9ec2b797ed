// Package watch regenerates documentation when intake sources change. File
// events are debounced so editor save bursts trigger a single run; an
// optional schedule regenerates on a fixed interval regardless of events.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/apidoc/internal/config"
	apperrors "git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
)

// RunFunc performs one regeneration. Errors are logged, not propagated; the
// watcher keeps running.
type RunFunc func(ctx context.Context) error

// Watcher triggers regeneration runs on source changes.
type Watcher struct {
	cfg     *config.Config
	workDir string
	run     RunFunc

	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler

	mu       sync.Mutex
	started  bool
	stopChan chan struct{}
	trigger  chan struct{}
}

// New creates a watcher over the intake sources named in cfg.
func New(cfg *config.Config, workDir string, run RunFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryFileSystem, "create file watcher").Build()
	}
	return &Watcher{
		cfg:      cfg,
		workDir:  workDir,
		run:      run,
		watcher:  fsWatcher,
		stopChan: make(chan struct{}),
		trigger:  make(chan struct{}, 1),
	}, nil
}

// Start adds the watch directories and begins the event and regeneration
// loops. When an interval is configured a scheduled run is added as well.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return apperrors.InternalError("watcher already started").Build()
	}

	for _, dir := range w.watchDirs() {
		if err := w.watchTree(dir); err != nil {
			return err
		}
	}

	if interval := w.cfg.Watch.IntervalDuration(); interval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return apperrors.WrapError(err, apperrors.CategoryInternal, "create scheduler").Build()
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(w.fire),
			gocron.WithName("scheduled-regeneration"),
		)
		if err != nil {
			return apperrors.WrapError(err, apperrors.CategoryInternal, "schedule regeneration").Build()
		}
		scheduler.Start()
		w.scheduler = scheduler
		slog.Info("scheduled regeneration enabled", "interval", interval.String())
	}

	go w.watchLoop(ctx)
	go w.runLoop(ctx)
	w.started = true

	slog.Info("watch mode started", "debounce", w.cfg.Watch.Debounce)
	return nil
}

// Stop shuts down the watcher and any scheduler.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return nil
	}
	close(w.stopChan)
	w.started = false
	if w.scheduler != nil {
		if err := w.scheduler.Shutdown(); err != nil {
			slog.Error("scheduler shutdown failed", logfields.Error(err))
		}
	}
	return w.watcher.Close()
}

// watchDirs derives the directories to watch from the intake configuration:
// the literal directory prefix of each record file glob, and the work
// directory itself when Go packages are scanned.
func (w *Watcher) watchDirs() []string {
	seen := map[string]bool{}
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range w.cfg.Intake.RecordFiles {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(w.workDir, pattern)
		}
		add(globDir(pattern))
	}
	if len(w.cfg.Intake.GoPackages) > 0 {
		add(w.workDir)
	}
	return dirs
}

// watchTree adds root and every subdirectory to the watch set. fsnotify
// watches are non-recursive, so nested package directories must each be
// added explicitly. Hidden directories are skipped.
func (w *Watcher) watchTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		slog.Debug("watching directory", logfields.Path(path))
		return nil
	})
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryFileSystem, "watch directory tree").
			WithContext("dir", root).
			Build()
	}
	return nil
}

// globDir returns the longest directory prefix of pattern without glob
// metacharacters.
func globDir(pattern string) string {
	dir := filepath.Dir(pattern)
	for strings.ContainsAny(dir, "*?[") {
		dir = filepath.Dir(dir)
	}
	return dir
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchTree(event.Name); err != nil {
						slog.Error("watching new directory failed", logfields.Path(event.Name), logfields.Error(err))
					}
					continue
				}
			}
			if !relevant(event) {
				continue
			}
			slog.Debug("source change detected", logfields.Path(event.Name), "op", event.Op.String())
			w.fire()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("watch error", logfields.Error(err))
		}
	}
}

// fire requests a regeneration; a pending request is not duplicated.
func (w *Watcher) fire() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// runLoop debounces triggers and executes regeneration runs.
func (w *Watcher) runLoop(ctx context.Context) {
	debounce := w.cfg.Watch.DebounceDuration()
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-w.trigger:
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			if err := w.run(ctx); err != nil {
				slog.Error("regeneration failed", logfields.Error(err))
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".yaml", ".yml", ".go":
		return true
	}
	return false
}
