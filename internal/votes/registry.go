package votes

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultRegistrySize = 4096
	DefaultRegistryTTL  = 30 * time.Minute
)

// Registry holds the live engine of each (user, page) pair. Engines that fall
// out, by size or by age, are closed.
type Registry struct {
	engines *expirable.LRU[string, *Engine]
}

// NewRegistry returns a registry holding at most size engines for up to ttl.
func NewRegistry(size int, ttl time.Duration) *Registry {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	if ttl <= 0 {
		ttl = DefaultRegistryTTL
	}
	onEvict := func(_ string, e *Engine) { e.Close() }
	return &Registry{engines: expirable.NewLRU[string, *Engine](size, onEvict, ttl)}
}

func registryKey(userID, page string) string {
	return userID + "|" + page
}

// Get returns the engine registered for the user's page.
func (r *Registry) Get(userID, page string) (*Engine, bool) {
	e, ok := r.engines.Get(registryKey(userID, page))
	if !ok || e.Closed() {
		return nil, false
	}
	return e, true
}

// Put registers e for the user's page, closing the engine it replaces.
func (r *Registry) Put(userID, page string, e *Engine) {
	key := registryKey(userID, page)
	if old, ok := r.engines.Peek(key); ok && old != e {
		old.Close()
	}
	r.engines.Add(key, e)
}

// Forget closes and drops every engine of the user.
func (r *Registry) Forget(userID string) {
	prefix := registryKey(userID, "")
	for _, key := range r.engines.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if e, ok := r.engines.Peek(key); ok {
			e.Close()
		}
		r.engines.Remove(key)
	}
}

// Len reports how many engines are registered.
func (r *Registry) Len() int {
	return r.engines.Len()
}
