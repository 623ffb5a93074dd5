package checkpoint

import (
	"fmt"
	"sort"
	"sync"
)

// stores holds Store instances registered by name. The built-in backends
// are not registered; New constructs a fresh one for each call.
var (
	stores = map[string]Store{}
	mutex  sync.RWMutex
)

// Get returns the Store registered under name.
func Get(name string) (Store, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	store, exists := stores[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	return store, nil
}

// Register adds or replaces a named Store. Config.Backend can then name it.
func Register(name string, store Store) {
	mutex.Lock()
	defer mutex.Unlock()

	stores[name] = store
}

// Names returns the registered store names in sorted order.
func Names() []string {
	mutex.RLock()
	defer mutex.RUnlock()

	names := make([]string, 0, len(stores))
	for name := range stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
