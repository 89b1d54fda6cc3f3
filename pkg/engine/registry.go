// Package engine orchestrates layout computation: it owns the algorithm
// registry, selects an algorithm per view type and graph shape, runs at
// most one layout operation at a time, and falls back to the hierarchical
// algorithm when a requested algorithm fails or is unknown.
package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout"
)

// Algorithm identifiers.
const (
	AlgoHierarchical   = "hierarchical"
	AlgoForce          = "force"
	AlgoForceOptimized = "force-optimized"
	AlgoCircular       = "circular"
	AlgoGrid           = "grid"
	AlgoRadial         = "radial"
)

// ProgressFunc reports progressive layout completion, done out of total
// chunks.
type ProgressFunc func(done, total int)

// Algorithm computes node positions. Implementations never mutate their
// inputs and return fresh node slices.
type Algorithm interface {
	Name() string
	Layout(ctx context.Context, nodes []graph.Node, edges []graph.Edge) ([]graph.Node, error)
}

// Progressive is an Algorithm that can run in chunks, yielding between
// them for cancellation checks and progress reporting.
type Progressive interface {
	Algorithm
	LayoutProgressive(ctx context.Context, nodes []graph.Node, edges []graph.Edge, progress ProgressFunc) ([]graph.Node, error)
}

// Registry maps algorithm identifiers to implementations. It is explicitly
// constructed and injected, never a package-level singleton, so concurrent
// views and tests get isolated registries.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[string]Algorithm
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{algorithms: make(map[string]Algorithm)}
}

// DefaultRegistry creates a registry with every built-in algorithm, all
// tuned by the given options.
func DefaultRegistry(opts layout.Options) *Registry {
	r := NewRegistry()
	r.Register(Hierarchical{Opts: opts})
	r.Register(&ForceDirected{Opts: opts})
	r.Register(&ForceDirected{Opts: opts, Optimized: true})
	r.Register(Circular{Opts: opts})
	r.Register(Grid{Opts: opts})
	r.Register(Radial{Opts: opts})
	return r
}

// Register adds an algorithm under its own name, replacing any previous
// registration.
func (r *Registry) Register(a Algorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.algorithms[a.Name()] = a
}

// Get returns the algorithm registered under name.
func (r *Registry) Get(name string) (Algorithm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.algorithms[name]
	return a, ok
}

// Names returns the registered algorithm identifiers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.algorithms))
	for name := range r.algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
