package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/encyclopedia/pkg/core"
)

// DebounceWindow coalesces bursts of events for the same key.
const DebounceWindow = 50 * time.Millisecond

// Watch reports changes to entry files whose key matches pattern (doublestar
// syntax, e.g. "*" or "py*"). The channel is closed once ctx is done.
//
// While git holds .git/index.lock (commit, pull) raw events are dropped; when
// the lock goes away the directory is rescanned and the differences are
// reported instead.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern: %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(r.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.Path, err)
	}
	// Missing when gitless.
	_ = watcher.Add(filepath.Join(r.Path, ".git"))

	events := make(chan core.Event)
	w := &watchWorker{
		repo:      r,
		pattern:   pattern,
		events:    events,
		watcher:   watcher,
		debouncer: newDebouncer(DebounceWindow),
		known:     r.snapshot(),
	}

	r.setWatcherActive(true)
	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		if r.config.ErrorHandler != nil {
			r.config.ErrorHandler(fmt.Errorf("watcher: %w", err))
		} else if r.config.Logger != nil {
			r.config.Logger.Error("watcher stopped", "error", err)
		}
	}))

	return events, nil
}

type watchWorker struct {
	repo      *Repository
	pattern   string
	events    chan core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer

	// known maps key -> mtime, for rescans after git releases its lock.
	known map[string]time.Time
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.repo.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger != nil && logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			}
		}
	}()
	defer close(w.events)
	defer w.debouncer.stopAndWait(5 * time.Second)
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	gitLocked := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if isGitLock(event.Name) {
				switch {
				case event.Has(fsnotify.Create):
					gitLocked = true
					if logger != nil {
						logger.Debug("git operation detected, pausing watcher")
					}
				case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
					gitLocked = false
					if logger != nil {
						logger.Debug("git operation finished, rescanning")
					}
					w.rescan(ctx)
				}
				continue
			}
			if gitLocked {
				continue
			}
			w.handle(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			if logger != nil {
				logger.Error("fsnotify error", "error", wErr)
			}
			if w.repo.config.ErrorHandler != nil {
				w.repo.config.ErrorHandler(wErr)
			}
		}
	}
}

// handle maps one fsnotify event to an entry event.
func (w *watchWorker) handle(ctx context.Context, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if filepath.Dir(event.Name) != filepath.Clean(w.repo.Path) || !isEntryFile(name) {
		return
	}

	key, err := core.Key(stem(name))
	if err != nil {
		return
	}
	if ok, _ := doublestar.Match(w.pattern, key); !ok {
		return
	}

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Create):
		eType = core.EventCreate
	case event.Has(fsnotify.Write):
		eType = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eType = core.EventDelete
	default:
		return
	}

	if eType == core.EventDelete {
		delete(w.known, key)
	} else if info, err := os.Stat(event.Name); err == nil {
		w.known[key] = info.ModTime()
	}

	w.send(ctx, core.Event{Type: eType, Key: key, Timestamp: time.Now().Unix()})
}

// rescan diffs the directory against known and reports what changed.
func (w *watchWorker) rescan(ctx context.Context) {
	current := w.repo.snapshot()
	now := time.Now().Unix()

	for key, mtime := range current {
		if ok, _ := doublestar.Match(w.pattern, key); !ok {
			continue
		}
		prev, seen := w.known[key]
		switch {
		case !seen:
			w.send(ctx, core.Event{Type: core.EventCreate, Key: key, Timestamp: now})
		case !prev.Equal(mtime):
			w.send(ctx, core.Event{Type: core.EventModify, Key: key, Timestamp: now})
		}
	}
	for key := range w.known {
		if _, still := current[key]; still {
			continue
		}
		if ok, _ := doublestar.Match(w.pattern, key); ok {
			w.send(ctx, core.Event{Type: core.EventDelete, Key: key, Timestamp: now})
		}
	}

	w.known = current
	w.repo.recordRescan()
}

func (w *watchWorker) send(ctx context.Context, e core.Event) {
	w.debouncer.add(e, func(e core.Event) {
		// The channel may already be closed if delivery outlived stopAndWait.
		defer func() { _ = recover() }()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// snapshot returns key -> mtime for every entry file on disk.
func (r *Repository) snapshot() map[string]time.Time {
	out := make(map[string]time.Time)
	files, err := os.ReadDir(r.Path)
	if err != nil {
		return out
	}
	for _, f := range files {
		if f.IsDir() || !isEntryFile(f.Name()) {
			continue
		}
		key, err := core.Key(stem(f.Name()))
		if err != nil {
			continue
		}
		if info, err := f.Info(); err == nil {
			out[key] = info.ModTime()
		}
	}
	return out
}

func isGitLock(path string) bool {
	return filepath.Base(path) == "index.lock" && filepath.Base(filepath.Dir(path)) == ".git"
}

// debouncer delivers the last event per key once the key has been quiet for
// the window.
type debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window:  window,
		pending: make(map[string]*time.Timer),
	}
}

func (d *debouncer) add(e core.Event, deliver func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.pending[e.Key]; ok && t.Stop() {
		d.wg.Done()
	}

	d.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d.window, func() {
		defer d.wg.Done()

		d.mu.Lock()
		stopped := d.stopped
		if d.pending[e.Key] == t {
			delete(d.pending, e.Key)
		}
		d.mu.Unlock()

		if !stopped {
			deliver(e)
		}
	})
	d.pending[e.Key] = t
}

// stopAndWait drops pending events and waits for in-flight deliveries.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.pending {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
