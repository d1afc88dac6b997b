package canbridge

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps interface names to their bridges. It replaces compiled-in
// static per-interface contexts: bridges are created at explicit startup,
// added once, and looked up by name afterwards.
type Registry struct {
	mu      sync.RWMutex
	bridges map[string]*Bridge
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bridges: make(map[string]*Bridge)}
}

// Add registers a bridge under its interface name. Duplicate names fail.
func (r *Registry) Add(b *Bridge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bridges[b.Name()]; ok {
		return fmt.Errorf("canbridge: interface %q already registered: %w", b.Name(), ErrInvalidArgument)
	}
	r.bridges[b.Name()] = b
	return nil
}

// Get looks up a bridge by interface name.
func (r *Registry) Get(name string) (*Bridge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bridges[name]
	return b, ok
}

// Names returns the registered interface names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bridges))
	for name := range r.bridges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartAll launches the receive pollers of every registered bridge.
func (r *Registry) StartAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bridges {
		b.Start()
	}
}

// StopAll stops every registered bridge's poller and waits for them.
func (r *Registry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bridges {
		b.Stop()
	}
}
