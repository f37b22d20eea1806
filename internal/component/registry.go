package component

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a fresh component instance.
type Factory func() (Component, error)

// Registry maintains known component bundles keyed by bundle id.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a component factory. Returns an error if the ID already exists.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" {
		return fmt.Errorf("component: id is required")
	}
	if factory == nil {
		return fmt.Errorf("component: factory is required for %s", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("component: %s already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a component by bundle ID.
func (r *Registry) Resolve(id string) (Component, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("component: unknown bundle %s", id)
	}
	c, err := factory()
	if err != nil {
		return nil, err
	}
	if err := c.Info().Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Info describes the bundle registered under id.
func (r *Registry) Info(id string) (Info, error) {
	c, err := r.Resolve(id)
	if err != nil {
		return Info{}, err
	}
	return c.Info(), nil
}

// IDs returns a sorted list of registered bundle identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
