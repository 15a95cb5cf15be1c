package state

import (
	"sync"

	"MarketLens/pkg/cache"
)

// State is the shared analysis context: one cache plus free-form config and
// container maps. It is constructed once at startup and passed to the
// provider and orchestrator, so there is exactly one cache per process
// without hidden globals. Keys in the container have no cross-key
// invariants; callers namespace their own.
type State struct {
	Cache *cache.Cache

	mu        sync.RWMutex
	config    map[string]interface{}
	container map[string]interface{}
}

// New creates a State with a cache bounded by maxSize (<= 0 uses the
// default bound of 2048 entries).
func New(maxSize int, cacheOpts ...cache.Option) *State {
	opts := append([]cache.Option{cache.WithMaxSize(maxSize)}, cacheOpts...)
	return &State{
		Cache:     cache.New(opts...),
		config:    make(map[string]interface{}),
		container: make(map[string]interface{}),
	}
}

// Set stores a value in the container.
func (s *State) Set(key string, v interface{}) {
	s.mu.Lock()
	s.container[key] = v
	s.mu.Unlock()
}

// Get returns the container value for key, or def when absent.
func (s *State) Get(key string, def interface{}) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.container[key]; ok {
		return v
	}
	return def
}

// SetConfig stores a configuration value.
func (s *State) SetConfig(key string, v interface{}) {
	s.mu.Lock()
	s.config[key] = v
	s.mu.Unlock()
}

// Config returns the configuration value for key, or def when absent.
func (s *State) Config(key string, def interface{}) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.config[key]; ok {
		return v
	}
	return def
}
