package provider

import (
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = map[string]Provider{}
)

// Register adds a provider under its declared name. Providers register
// from init so the table is fixed before command dispatch. A provider
// with an empty name is skipped, matching the discovery contract that an
// unloadable module is simply absent from the registry.
func Register(p Provider) {
	if p == nil || p.Name() == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[p.Name()] = p
}

// Get is a pure lookup; callers translate a false result into an
// "unknown provider" error.
func Get(name string) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

// Names returns the registered provider names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes a provider. Tests use it to install and clean up
// stub providers.
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(registry, name)
}
