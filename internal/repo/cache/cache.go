// Package cache provides the per-view TTL value cache.
//
// Each cache instance holds exactly one logical value (the branch list of
// a repo, the stash list of a repo, ...) with its own TTL tuned to that
// view's churn rate. This is a value cache, not a keyed cache: there is
// no eviction policy beyond expiry because there is nothing to evict.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// valueKey is the single key under which the value is stored.
const valueKey = "v"

// View is a single-value cache with a fixed TTL. A Get after the TTL has
// elapsed behaves identically to an empty cache, whether or not
// Invalidate was ever called. Safe for concurrent use.
type View[T any] struct {
	ttl   time.Duration
	store *gocache.Cache
}

// NewView creates a view cache with the given TTL.
func NewView[T any](ttl time.Duration) *View[T] {
	// Expired entries are unreachable via Get the instant they expire;
	// the janitor interval only bounds how long the dead value lingers
	// in memory, so a lazy sweep is fine.
	return &View[T]{
		ttl:   ttl,
		store: gocache.New(ttl, 10*time.Minute),
	}
}

// Set stores value with expiry now + TTL, replacing any previous value.
func (v *View[T]) Set(value T) {
	v.store.Set(valueKey, value, gocache.DefaultExpiration)
}

// Get returns the stored value if it has not expired.
func (v *View[T]) Get() (T, bool) {
	raw, ok := v.store.Get(valueKey)
	if !ok {
		var zero T
		return zero, false
	}
	value, ok := raw.(T)
	return value, ok
}

// Invalidate forces the next Get to miss regardless of elapsed time.
func (v *View[T]) Invalidate() {
	v.store.Delete(valueKey)
}

// TTL returns the configured time-to-live.
func (v *View[T]) TTL() time.Duration {
	return v.ttl
}
