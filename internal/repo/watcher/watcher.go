// Package watcher observes a repository's .git directory and delivers
// debounced, classified change signals.
//
// Bursts of raw filesystem events collapse into a single signal per
// debounce window. Events of different categories arriving in the same
// window escalate to a full signal rather than guessing which one wins.
// Delivery is asynchronous: a received signal means "something changed,
// re-derive", never a precise diff.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/gitdeck/internal/log"
	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

// DefaultDebounce is the window within which raw events collapse into one
// signal.
const DefaultDebounce = 300 * time.Millisecond

// SignalHandler receives each debounced signal. Invoked from the watcher's
// own goroutine; implementations must not block for long.
type SignalHandler func(domain.ChangeSignal)

// Config configures a Watcher.
type Config struct {
	// RepoPath is the repository working-tree root. The watcher observes
	// its .git control directory.
	RepoPath string

	// Debounce is the event-collapse window. Defaults to DefaultDebounce.
	Debounce time.Duration

	// OnSignal receives each debounced signal. Required.
	OnSignal SignalHandler
}

// Watcher watches one repository's control directory. Its lifecycle is
// bracketed by Start and Stop and bound to exactly one open repository;
// switching repositories must stop the old watcher before starting a new
// one so no stale signal fires against the wrong repository.
type Watcher struct {
	repoPath string
	gitDir   string
	debounce time.Duration
	onSignal SignalHandler

	mu      sync.Mutex
	pending *domain.ChangeSignal
	timer   *time.Timer

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Watcher. It does not touch the filesystem until Start.
func New(cfg Config) *Watcher {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		repoPath: cfg.RepoPath,
		gitDir:   filepath.Join(cfg.RepoPath, ".git"),
		debounce: debounce,
		onSignal: cfg.OnSignal,
	}
}

// Start begins watching. It is a no-op if the watcher is already running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return nil // already started
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.addWatches(fsw); err != nil {
		_ = fsw.Close()
		return err
	}

	w.fsw = fsw
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	log.SafeGo("watcher.eventLoop", func() {
		defer close(w.done)
		w.eventLoop()
	})

	log.Debug(log.CatWatch, "watcher started", "repo", w.repoPath)
	return nil
}

// Stop stops the watcher, cancels any pending debounce timer, and waits
// for the event loop to exit. Safe to call multiple times or before Start.
// No signal is delivered after Stop returns.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	done := w.done
	w.cancel = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = nil
	w.mu.Unlock()

	cancel()
	<-done

	w.mu.Lock()
	if w.fsw != nil {
		_ = w.fsw.Close()
		w.fsw = nil
	}
	w.done = nil
	w.mu.Unlock()

	log.Debug(log.CatWatch, "watcher stopped", "repo", w.repoPath)
}

// addWatches registers the control directory and the refs tree. fsnotify
// watches are not recursive, so each refs subdirectory needs its own entry.
func (w *Watcher) addWatches(fsw *fsnotify.Watcher) error {
	if err := fsw.Add(w.gitDir); err != nil {
		return err
	}

	refsDir := filepath.Join(w.gitDir, "refs")
	err := filepath.WalkDir(refsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil //nolint:nilerr // unreadable subdirs are skipped, not fatal
		}
		return fsw.Add(path)
	})
	if err != nil {
		return err
	}

	// logs/refs carries the stash reflog.
	logsRefs := filepath.Join(w.gitDir, "logs", "refs")
	if info, statErr := os.Stat(logsRefs); statErr == nil && info.IsDir() {
		_ = fsw.Add(logsRefs)
	}
	return nil
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatch, "fsnotify error", "repo", w.repoPath, "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.gitDir, ev.Name)
	if err != nil {
		return
	}

	// New directories under refs need their own watch entries.
	if ev.Op.Has(fsnotify.Create) {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			w.mu.Lock()
			if w.fsw != nil {
				_ = w.fsw.Add(ev.Name)
			}
			w.mu.Unlock()
		}
	}

	w.observe(rel)
}

// observe classifies one event path and folds it into the pending signal,
// (re)arming the debounce timer.
func (w *Watcher) observe(rel string) {
	if ignorable(rel) {
		return
	}
	sig := classify(rel)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return // stopped; drop late events
	}

	if w.pending == nil {
		w.pending = &sig
	} else {
		merged := w.pending.Merge(sig)
		w.pending = &merged
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

// fire delivers the pending signal. Runs on the debounce timer goroutine.
func (w *Watcher) fire() {
	w.mu.Lock()
	if w.cancel == nil || w.pending == nil {
		w.mu.Unlock()
		return
	}
	sig := *w.pending
	w.pending = nil
	w.timer = nil
	w.mu.Unlock()

	log.Debug(log.CatWatch, "signal", "repo", w.repoPath, "signal", sig.String())
	w.onSignal(sig)
}
