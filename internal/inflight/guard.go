// Package inflight provides a per-operation-key mutual exclusion
// primitive: a second request for a key already in flight is a silent
// no-op, neither queued nor an error.
package inflight

import "sync"

// Guard tracks operation keys currently in flight.
type Guard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{keys: make(map[string]struct{})}
}

// TryAcquire marks key as in flight. It returns false, without
// blocking, if the key is already held.
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.keys[key]; held {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

// Release frees key. Releasing a key that is not held is a no-op.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
}

// Do runs fn if key is free, releasing the key afterwards. It returns
// false when the operation was suppressed as a duplicate.
func (g *Guard) Do(key string, fn func()) bool {
	if !g.TryAcquire(key) {
		return false
	}
	defer g.Release(key)
	fn()
	return true
}

// Held reports whether key is currently in flight.
func (g *Guard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.keys[key]
	return held
}
