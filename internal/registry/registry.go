package registry

import (
	"sync"

	"github.com/nexuscore/nexus/internal/apperr"
)

// Registry owns every manager by name. Cross-references between managers are
// by name-lookup through the registry, never by direct pointer capture
// between manager structs, so shutdown ordering and testing stay simple.
type Registry struct {
	mu       sync.RWMutex
	managers map[string]Manager
	order    []string // registration order, used as an initialize-order tie-break
	graph    *graph
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		managers: make(map[string]Manager),
		graph:    newGraph(),
	}
}

// Register adds a manager with the given dependency names. All dependencies
// must already be registered. Registering an edge that would create a cycle
// fails with apperr.KindDependency and leaves no partial state: the manager
// is not added, and the graph is unchanged.
func (r *Registry) Register(m Manager, dependencies ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	if _, exists := r.managers[name]; exists {
		return apperr.Newf(apperr.KindDependency, "manager %q already registered", name)
	}

	r.graph.addNode(name)
	if err := r.graph.setDeps(name, dependencies); err != nil {
		r.graph.removeNode(name)
		return err
	}

	r.managers[name] = m
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the named manager, or nil if it is not registered.
func (r *Registry) Lookup(name string) Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.managers[name]
}

// Names returns registered manager names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// StatusAll returns every manager's self-reported status, keyed by name.
func (r *Registry) StatusAll() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Status, len(r.managers))
	for name, m := range r.managers {
		out[name] = m.Status()
	}
	return out
}

// orderForInit returns the registered names in dependency order, using
// registration order to break ties deterministically.
func (r *Registry) orderForInit() ([]string, error) {
	r.mu.RLock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	r.mu.RUnlock()
	return r.graph.topoOrder(names)
}
