package analyzers

import (
	"sort"
	"sync"
)

type registration struct {
	analyzer  Analyzer
	byDefault bool
}

// Registry maps module names to analyzers plus a default-enablement flag.
// Modules are registered once at construction time; there is no removal.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]registration)}
}

// Register inserts or overwrites the analyzer under its own name.
func (r *Registry) Register(a Analyzer, enabledByDefault bool) {
	r.mu.Lock()
	r.modules[a.Name()] = registration{analyzer: a, byDefault: enabledByDefault}
	r.mu.Unlock()
}

// Get returns the analyzer registered under name.
func (r *Registry) Get(name string) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.modules[name]
	return reg.analyzer, ok
}

// List returns all registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns the sorted names of modules enabled by default.
func (r *Registry) Defaults() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name, reg := range r.modules {
		if reg.byDefault {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
