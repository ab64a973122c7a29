// Package orchestrator coordinates the state of one open repository: it
// owns the cached views, the filesystem watcher subscription, the undo
// log, and every mutating git operation.
//
// One Orchestrator per open repository tab. All reads and mutations
// against a repository's caches are linearized through a single mutex;
// separate repositories have separate orchestrators and proceed fully
// concurrently.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/gitdeck/internal/gitexec"
	"github.com/zjrosen/gitdeck/internal/log"
	"github.com/zjrosen/gitdeck/internal/pubsub"
	"github.com/zjrosen/gitdeck/internal/repo/application"
	"github.com/zjrosen/gitdeck/internal/repo/cache"
	"github.com/zjrosen/gitdeck/internal/repo/domain"
	"github.com/zjrosen/gitdeck/internal/repo/undo"
	"github.com/zjrosen/gitdeck/internal/repo/watcher"
)

// ChangeEvent notifies observers that repository state changed. It
// carries no payload beyond the repository path: observers re-query
// current state through the cache-backed getters rather than receiving
// pushed data.
type ChangeEvent struct {
	RepoPath string
}

// TTLConfig holds the per-view cache lifetimes. Views differ widely in
// volatility, so each gets its own TTL tuned to its churn rate.
type TTLConfig struct {
	Branches time.Duration
	Stashes  time.Duration
	Tags     time.Duration
	Remotes  time.Duration
}

// DefaultTTLs returns the standard per-view lifetimes.
func DefaultTTLs() TTLConfig {
	return TTLConfig{
		Branches: 30 * time.Second,
		Stashes:  30 * time.Second,
		Tags:     120 * time.Second,
		Remotes:  300 * time.Second,
	}
}

// Config configures an Orchestrator.
type Config struct {
	Engine application.RepositoryEngine
	Runner gitexec.Runner // for undo inverse commands

	TTLs     TTLConfig     // zero values fall back to DefaultTTLs
	Debounce time.Duration // watcher debounce window
	UndoCap  int           // undo stack bound; 0 means undo.DefaultCap
	Journal  undo.Journal  // optional operation audit journal

	// NewWatcher overrides watcher construction (tests). Nil uses the
	// fsnotify watcher.
	NewWatcher func(watcher.Config) RepoWatcher
}

// RepoWatcher abstracts the fsnotify watcher so tests can substitute a
// no-op implementation.
type RepoWatcher interface {
	Start(ctx context.Context) error
	Stop()
}

// Orchestrator is the single point of truth for one open repository.
type Orchestrator struct {
	mu sync.Mutex

	engine application.RepositoryEngine
	runner gitexec.Runner
	tracer trace.Tracer
	broker *pubsub.Broker[ChangeEvent]

	ttls       TTLConfig
	debounce   time.Duration
	undoCap    int
	journal    undo.Journal
	newWatcher func(watcher.Config) RepoWatcher

	// Per-open-repository state; replaced wholesale on Open and nil
	// when no repository is active. Caches are repository-scoped: no
	// cross-repository sharing exists.
	active         *domain.RepositoryContext
	watch          RepoWatcher
	undoLog        *undo.Log
	branches       *cache.View[[]domain.Branch]
	remoteBranches *cache.View[[]domain.RemoteBranch]
	tags           *cache.View[[]domain.Tag]
	remotes        *cache.View[[]domain.Remote]
	stashes        *cache.View[[]domain.Stash]
}

// New creates an Orchestrator. No repository is open until Open, Clone
// or Init succeeds.
func New(cfg Config) *Orchestrator {
	ttls := cfg.TTLs
	defs := DefaultTTLs()
	if ttls.Branches <= 0 {
		ttls.Branches = defs.Branches
	}
	if ttls.Stashes <= 0 {
		ttls.Stashes = defs.Stashes
	}
	if ttls.Tags <= 0 {
		ttls.Tags = defs.Tags
	}
	if ttls.Remotes <= 0 {
		ttls.Remotes = defs.Remotes
	}

	newWatcher := cfg.NewWatcher
	if newWatcher == nil {
		newWatcher = func(wc watcher.Config) RepoWatcher { return watcher.New(wc) }
	}

	return &Orchestrator{
		engine:     cfg.Engine,
		runner:     cfg.Runner,
		tracer:     otel.Tracer("github.com/zjrosen/gitdeck/internal/repo/orchestrator"),
		broker:     pubsub.NewBroker[ChangeEvent](),
		ttls:       ttls,
		debounce:   cfg.Debounce,
		undoCap:    cfg.UndoCap,
		journal:    cfg.Journal,
		newWatcher: newWatcher,
	}
}

// Subscribe registers an observer for change notifications. The channel
// closes when ctx is cancelled or the orchestrator is closed.
func (o *Orchestrator) Subscribe(ctx context.Context) <-chan pubsub.Event[ChangeEvent] {
	return o.broker.Subscribe(ctx)
}

// Open opens the repository at path, replacing any previously active
// repository. The old watcher is stopped before the new one starts so no
// stale signal can fire against the wrong repository.
func (o *Orchestrator) Open(ctx context.Context, path string) (domain.RepositoryContext, error) {
	return o.adopt(ctx, "open", func(ctx context.Context) (domain.RepositoryContext, error) {
		return o.engine.OpenRepository(ctx, path)
	})
}

// Clone clones url into path and opens the result.
func (o *Orchestrator) Clone(ctx context.Context, url, path string) (domain.RepositoryContext, error) {
	return o.adopt(ctx, "clone", func(ctx context.Context) (domain.RepositoryContext, error) {
		return o.engine.CloneRepository(ctx, url, path)
	})
}

// Init initializes a repository at path and opens it.
func (o *Orchestrator) Init(ctx context.Context, path string) (domain.RepositoryContext, error) {
	return o.adopt(ctx, "init", func(ctx context.Context) (domain.RepositoryContext, error) {
		return o.engine.InitRepository(ctx, path)
	})
}

// adopt runs an open-flavored operation and installs its result as the
// active repository with fresh repository-scoped caches and a watcher.
func (o *Orchestrator) adopt(ctx context.Context, name string, open func(context.Context) (domain.RepositoryContext, error)) (domain.RepositoryContext, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator."+name)
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	repoCtx, err := open(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.RepositoryContext{}, err
	}
	span.SetAttributes(attribute.String("repo.path", repoCtx.Path))

	o.teardownLocked()

	o.active = &repoCtx
	o.branches = cache.NewView[[]domain.Branch](o.ttls.Branches)
	o.remoteBranches = cache.NewView[[]domain.RemoteBranch](o.ttls.Branches)
	o.tags = cache.NewView[[]domain.Tag](o.ttls.Tags)
	o.remotes = cache.NewView[[]domain.Remote](o.ttls.Remotes)
	o.stashes = cache.NewView[[]domain.Stash](o.ttls.Stashes)
	o.undoLog = undo.NewLog(undo.Config{
		Cap:        o.undoCap,
		RunCommand: o.runInverse,
		RunRedo:    o.runRedo,
		Journal:    o.journal,
	})

	w := o.newWatcher(watcher.Config{
		RepoPath: repoCtx.Path,
		Debounce: o.debounce,
		OnSignal: func(sig domain.ChangeSignal) {
			// Signal handling runs off the watcher goroutine; errors are
			// logged, not raised, since there is no caller to raise to.
			log.SafeGo("orchestrator.handleSignal", func() {
				if err := o.HandleChangeSignal(context.Background(), sig); err != nil {
					log.ErrorErr(log.CatOrch, "signal-triggered refresh failed", err,
						"repo", repoCtx.Path, "signal", sig.String())
				}
			})
		},
	})
	if err := w.Start(context.Background()); err != nil {
		log.ErrorErr(log.CatOrch, "watcher start failed; continuing without external change detection", err,
			"repo", repoCtx.Path)
	} else {
		o.watch = w
	}

	log.Info(log.CatOrch, "repository opened", "repo", repoCtx.Path, "branch", repoCtx.CurrentBranch)
	o.broker.Publish(ChangeEvent{RepoPath: repoCtx.Path})
	return repoCtx, nil
}

// Close stops the watcher and discards the active repository context.
// A late-arriving signal after Close cannot mutate the disposed context.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.teardownLocked()
	o.mu.Unlock()
	o.broker.Shutdown()
}

// teardownLocked stops the watcher and clears per-repository state.
// Caller holds o.mu.
func (o *Orchestrator) teardownLocked() {
	if o.watch != nil {
		o.watch.Stop()
		o.watch = nil
	}
	o.active = nil
}

// Active returns the current repository context.
func (o *Orchestrator) Active() (domain.RepositoryContext, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return domain.RepositoryContext{}, domain.ErrNoActiveRepository
	}
	return *o.active, nil
}

// Refresh performs a full resync: the repository context is re-opened
// and every cache is invalidated. Used on ambiguous signals and after
// operations whose blast radius is not precisely known. Idempotent:
// refreshing twice in a row leaves identical state.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refreshLocked(ctx)
}

// RefreshStatus re-derives only status and current branch, leaving the
// ref-derived caches alone.
func (o *Orchestrator) RefreshStatus(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refreshStatusLocked(ctx)
}

// refreshLocked re-derives the full context. Caller holds o.mu.
func (o *Orchestrator) refreshLocked(ctx context.Context) error {
	if o.active == nil {
		return domain.ErrNoActiveRepository
	}

	repoCtx, err := o.engine.OpenRepository(ctx, o.active.Path)
	if err != nil {
		return err
	}
	o.active = &repoCtx

	o.branches.Invalidate()
	o.remoteBranches.Invalidate()
	o.tags.Invalidate()
	o.remotes.Invalidate()
	o.stashes.Invalidate()

	log.Debug(log.CatOrch, "full refresh", "repo", repoCtx.Path)
	o.broker.Publish(ChangeEvent{RepoPath: repoCtx.Path})
	return nil
}

// refreshStatusLocked re-derives only status and current branch, leaving
// ref-derived caches alone. This is the narrow path taken after
// operations that cannot change branch/tag/ref state. Caller holds o.mu.
func (o *Orchestrator) refreshStatusLocked(ctx context.Context) error {
	if o.active == nil {
		return domain.ErrNoActiveRepository
	}

	status, err := o.engine.GetStatus(ctx, o.active.Path)
	if err != nil {
		return err
	}
	branch, err := o.engine.GetCurrentBranch(ctx, o.active.Path)
	if err != nil {
		return err
	}

	updated := *o.active
	updated.Status = status
	updated.CurrentBranch = branch
	o.active = &updated

	log.Debug(log.CatOrch, "status refresh", "repo", updated.Path)
	o.broker.Publish(ChangeEvent{RepoPath: updated.Path})
	return nil
}

// Branches returns the branch list, cache-first.
func (o *Orchestrator) Branches(ctx context.Context) ([]domain.Branch, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return nil, domain.ErrNoActiveRepository
	}
	return cachedFetch(ctx, o.branches, o.active.Path, o.engine.GetBranches)
}

// RemoteBranches returns the remote-tracking branch list, cache-first.
func (o *Orchestrator) RemoteBranches(ctx context.Context) ([]domain.RemoteBranch, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return nil, domain.ErrNoActiveRepository
	}
	return cachedFetch(ctx, o.remoteBranches, o.active.Path, o.engine.GetRemoteBranches)
}

// Tags returns the tag list, cache-first.
func (o *Orchestrator) Tags(ctx context.Context) ([]domain.Tag, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return nil, domain.ErrNoActiveRepository
	}
	return cachedFetch(ctx, o.tags, o.active.Path, o.engine.GetTags)
}

// Remotes returns the remote list, cache-first.
func (o *Orchestrator) Remotes(ctx context.Context) ([]domain.Remote, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return nil, domain.ErrNoActiveRepository
	}
	return cachedFetch(ctx, o.remotes, o.active.Path, o.engine.GetRemotes)
}

// Stashes returns the stash list, cache-first. Stash indexes are
// positional and shift after any pop/drop; callers must re-list rather
// than hold indexes across mutations.
func (o *Orchestrator) Stashes(ctx context.Context) ([]domain.Stash, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return nil, domain.ErrNoActiveRepository
	}
	return cachedFetch(ctx, o.stashes, o.active.Path, o.engine.GetStashes)
}

// Diff returns parsed hunks for a file (or the whole tree). Diffs are
// never cached: staleness here is directly visible and dangerous.
func (o *Orchestrator) Diff(ctx context.Context, file string, staged bool) ([]domain.FileDiff, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return nil, domain.ErrNoActiveRepository
	}
	return o.engine.GetDiff(ctx, o.active.Path, file, staged)
}

// cachedFetch returns the cached view value or fetches and stores it.
func cachedFetch[T any](ctx context.Context, view *cache.View[T], path string, fetch func(context.Context, string) (T, error)) (T, error) {
	if v, ok := view.Get(); ok {
		return v, nil
	}
	v, err := fetch(ctx, path)
	if err != nil {
		var zero T
		return zero, err
	}
	view.Set(v)
	return v, nil
}
