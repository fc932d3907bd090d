package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a directory tree with fsnotify, falling back to
// polling when fsnotify is unavailable.
type Watcher struct {
	root      string
	filter    Filter
	opts      Options
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	events    chan []FileEvent
	errors    chan error
	stopCh    chan struct{}

	mu      sync.RWMutex
	stopped bool
	dropped atomic.Uint64
}

// New creates a watcher for root. Files reach Events only if filter
// accepts them.
func New(root string, filter Filter, opts Options) (*Watcher, error) {
	if filter == nil {
		return nil, fmt.Errorf("filter is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root is not a directory: %s", abs)
	}

	opts = opts.WithDefaults()
	w := &Watcher{
		root:      abs,
		filter:    filter,
		opts:      opts,
		debouncer: NewDebouncer(opts.Debounce),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			slog.Warn("fsnotify_unavailable", slog.String("error", err.Error()))
		} else {
			w.fsw = fsw
		}
	}
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string { return w.root }

// Mode returns "fsnotify" or "polling".
func (w *Watcher) Mode() string {
	if w.fsw != nil {
		return "fsnotify"
	}
	return "polling"
}

// Start watches until Stop is called (returning nil) or ctx is done
// (returning ctx.Err()). It fails if the root cannot be watched.
func (w *Watcher) Start(ctx context.Context) error {
	go w.forward(ctx)
	if w.fsw != nil {
		return w.runFsnotify(ctx)
	}
	return w.runPolling(ctx)
}

func (w *Watcher) runFsnotify(ctx context.Context) error {
	if err := w.addTree(w.root, false); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// addTree watches dir and every directory below it that is not excluded.
// With announce set, files already present are reported as created; they
// may have been written before the watch was in place.
func (w *Watcher) addTree(dir string, announce bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		rel, ok := w.rel(p)
		if !d.IsDir() {
			if announce && ok {
				w.addIfAccepted(rel, p, OpCreate)
			}
			return nil
		}
		if ok && w.filter.ExcludesDir(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			if p == w.root {
				return err
			}
			w.emitError(fmt.Errorf("failed to watch %s: %w", p, err))
		}
		return nil
	})
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, ok := w.rel(ev.Name)
	if !ok {
		return
	}

	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if !w.filter.ExcludesDir(rel) {
				if err := w.addTree(ev.Name, true); err != nil {
					w.emitError(err)
				}
			}
			return
		}
		w.addIfAccepted(rel, ev.Name, OpCreate)
	case ev.Has(fsnotify.Write):
		w.addIfAccepted(rel, ev.Name, OpModify)
	case ev.Has(fsnotify.Remove):
		w.addGone(rel, OpDelete)
	case ev.Has(fsnotify.Rename):
		w.addGone(rel, OpRename)
	}
}

// rel returns the slash-separated path of abs below the root.
func (w *Watcher) rel(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) addIfAccepted(rel, abs string, op Operation) {
	if !w.filter.Accepts(abs) {
		return
	}
	w.debouncer.Add(FileEvent{Path: rel, Operation: op, Timestamp: time.Now()})
}

// addGone reports a vanished path unless it was in an excluded directory.
func (w *Watcher) addGone(rel string, op Operation) {
	if dir := path.Dir(rel); dir != "." && w.filter.ExcludesDir(dir) {
		return
	}
	w.debouncer.Add(FileEvent{Path: rel, Operation: op, Timestamp: time.Now()})
}

func (w *Watcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.emit(batch)
		}
	}
}

func (w *Watcher) emit(batch []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.events <- batch:
	default:
		n := w.dropped.Add(1)
		slog.Warn("watch_buffer_full",
			slog.Int("batch_size", len(batch)),
			slog.Uint64("dropped_batches", n))
	}
}

func (w *Watcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// DroppedBatches returns how many batches were lost to a full buffer.
func (w *Watcher) DroppedBatches() uint64 {
	return w.dropped.Load()
}

// Events returns debounced batches. It is closed by Stop.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns non-fatal watch errors. It is closed by Stop.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop releases resources and closes Events and Errors. Safe to call more
// than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()

	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
	}
	close(w.events)
	close(w.errors)
	return err
}
