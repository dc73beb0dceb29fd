// Package engine holds the engine registry and the source selection
// policy that picks which registered engine plays which source.
package engine

import (
	"fmt"
	"sync"

	playkit "github.com/eyzhub/playkit-go"
)

// Registry holds the engine factories available for source selection,
// keyed by engine id. Registration order is preserved for diagnostics
// only; selection order is dictated by the stream priority ladder.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]playkit.EngineFactory
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]playkit.EngineFactory{}}
}

func (r *Registry) Register(factory playkit.EngineFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := factory.ID()
	if _, ok := r.factories[id]; ok {
		return fmt.Errorf("engine %q already registered", id)
	}

	r.factories[id] = factory
	r.order = append(r.order, id)
	return nil
}

func (r *Registry) Get(id string) (playkit.EngineFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[id]
	return f, ok
}

// IDs returns the registered engine ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the process-wide registry. Engine packages
// typically call this from an init function.
func Register(factory playkit.EngineFactory) error {
	return defaultRegistry.Register(factory)
}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
