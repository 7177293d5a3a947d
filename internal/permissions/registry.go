// Package permissions holds the process-wide catalog of known capability keys.
package permissions

import "sync"

// Registry maps capability keys to human readable display names.
// It is populated during startup and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]string)}
}

// Register inserts or overwrites the display name for key.
// Registering the same key twice is allowed; the last write wins.
func (r *Registry) Register(key, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = displayName
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// All returns a snapshot of all registered entries.
func (r *Registry) All() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]string, len(r.entries))
	for key, name := range r.entries {
		snapshot[key] = name
	}
	return snapshot
}
