package cache

import (
	"errors"
	"sync"
	"time"
)

// ErrViewNotFound is returned for an unknown or evicted view id
var ErrViewNotFound = errors.New("view not found")

type viewEntry[V any] struct {
	owner      string
	view       V
	lastAccess time.Time
}

// ViewRegistry tracks live dashboard views by id
type ViewRegistry[V any] struct {
	views map[string]*viewEntry[V]
	mu    sync.RWMutex
	now   func() time.Time
}

// NewViewRegistry creates an empty registry
func NewViewRegistry[V any]() *ViewRegistry[V] {
	return &ViewRegistry[V]{
		views: make(map[string]*viewEntry[V]),
		now:   time.Now,
	}
}

// Put registers a view under id for owner
func (r *ViewRegistry[V]) Put(id, owner string, view V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[id] = &viewEntry[V]{owner: owner, view: view, lastAccess: r.now()}
}

// Get returns the view and refreshes its access time. Views belonging to
// another owner are reported as not found.
func (r *ViewRegistry[V]) Get(id, owner string) (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.views[id]
	if !exists || entry.owner != owner {
		var zero V
		return zero, ErrViewNotFound
	}
	entry.lastAccess = r.now()
	return entry.view, nil
}

// Delete removes a view. It reports whether the view existed for owner.
func (r *ViewRegistry[V]) Delete(id, owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.views[id]
	if !exists || entry.owner != owner {
		return false
	}
	delete(r.views, id)
	return true
}

// All returns every registered view
func (r *ViewRegistry[V]) All() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]V, 0, len(r.views))
	for _, entry := range r.views {
		views = append(views, entry.view)
	}
	return views
}

// RemoveIdle evicts views not accessed within maxAge and returns how many
func (r *ViewRegistry[V]) RemoveIdle(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := r.now().Add(-maxAge)
	removed := 0
	for id, entry := range r.views {
		if entry.lastAccess.Before(threshold) {
			delete(r.views, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of registered views
func (r *ViewRegistry[V]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}
