package registrar

import (
	"errors"
	"fmt"
	"sync"
)

// ErrStoreNotFound is returned when a named store is not registered
var ErrStoreNotFound = errors.New("store not found")

// Feature represents a capability a store adapter offers
type Feature string

const (
	FeatureTransactions    Feature = "transactions"
	FeatureAggregation     Feature = "aggregation"
	FeatureRawSQL          Feature = "raw_sql"
	FeatureRelationLoading Feature = "relation_loading"
	FeatureSoftDelete      Feature = "soft_delete"
	FeatureUpsert          Feature = "upsert"
)

// StoreInfo describes a store adapter
type StoreInfo struct {
	Name     string
	Dialect  string
	Features []Feature
}

// Store is the lifecycle surface every adapter exposes
type Store interface {
	Health() error
	Close() error
	Info() StoreInfo
}

var (
	registryOnce sync.Once
	registry     *StoreRegistry
)

// StoreRegistry holds named store instances. Applications with one
// database register it as the default; multi-tenant setups register one
// store per name.
type StoreRegistry struct {
	mutex  sync.RWMutex
	stores map[string]Store
}

// Registry returns the singleton instance of StoreRegistry
func Registry() *StoreRegistry {
	registryOnce.Do(func() {
		registry = &StoreRegistry{stores: make(map[string]Store)}
	})
	return registry
}

// Register adds a store to the registry under the given name
func (r *StoreRegistry) Register(name string, store Store) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stores[name] = store
}

// RegisterDefault registers a store as the default instance
func (r *StoreRegistry) RegisterDefault(store Store) {
	r.Register("default", store)
}

// Get retrieves a store by name, defaulting to "default"
func (r *StoreRegistry) Get(name ...string) (Store, error) {
	key := "default"
	if len(name) > 0 {
		key = name[0]
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	store, ok := r.stores[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, key)
	}
	return store, nil
}

// MustGet retrieves a store by name, panics if not found
func (r *StoreRegistry) MustGet(name ...string) Store {
	store, err := r.Get(name...)
	if err != nil {
		panic(err)
	}
	return store
}

// Names returns all registered store names
func (r *StoreRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	return names
}

// Remove closes and removes a store from the registry
func (r *StoreRegistry) Remove(name string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	store, ok := r.stores[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, name)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("error closing store %s: %w", name, err)
	}
	delete(r.stores, name)
	return nil
}

// RemoveAll closes and removes every registered store
func (r *StoreRegistry) RemoveAll() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for name, store := range r.stores {
		if err := store.Close(); err != nil {
			return fmt.Errorf("error closing store %s: %w", name, err)
		}
	}
	r.stores = make(map[string]Store)
	return nil
}

// HealthCheck pings every registered store and reports per-name results
func (r *StoreRegistry) HealthCheck() map[string]error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	results := make(map[string]error, len(r.stores))
	for name, store := range r.stores {
		results[name] = store.Health()
	}
	return results
}
