package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/storyloom/storyflow/pkg/errors"
	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout"
	"github.com/storyloom/storyflow/pkg/observability"
)

// State is the phase of the one layout operation an engine may have in
// flight.
type State string

// Engine states. Complete, cancelled and idle admit a new operation.
const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateApplying   State = "applying"
	StateOptimizing State = "optimizing"
	StateComplete   State = "complete"
	StateCancelled  State = "cancelled"
	StateFallback   State = "fallback"
)

// Request describes one layout operation.
type Request struct {
	Nodes []graph.Node
	Edges []graph.Edge

	// Algorithm is the requested algorithm identifier. Empty selects one
	// from the graph shape and view type.
	Algorithm string
	// ViewType hints algorithm selection and post-processing only.
	ViewType string
	// Progress, when set, requests progressive execution where the
	// algorithm supports it.
	Progress ProgressFunc
}

// Operation is a finished layout operation.
type Operation struct {
	ID        string
	Algorithm string
	FellBack  bool
	Nodes     []graph.Node
	Duration  time.Duration
}

// Engine runs layout operations one at a time. A second Apply while one is
// in flight is rejected immediately: queuing would only produce stale
// results. Construct engines explicitly and inject them; they hold no
// global state.
type Engine struct {
	registry *Registry
	opts     layout.Options
	logger   *log.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// New creates an engine over a registry. A nil logger discards output.
func New(registry *Registry, opts layout.Options, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		registry: registry,
		opts:     opts,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Cancel requests cooperative cancellation of the in-flight operation.
// No-op when idle. The operation stops at its next chunk boundary.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.logger.Debug("engine state", "state", s)
}

// begin admits the operation, or rejects it if one is already in flight.
func (e *Engine) begin(ctx context.Context) (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return nil, errors.New(errors.ErrCodeLayoutBusy, "a layout operation is already in flight")
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.state = StateLoading
	return ctx, nil
}

func (e *Engine) end() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.mu.Unlock()
}

// Apply runs one layout operation to completion.
//
// Unknown algorithms fall back to hierarchical with a warning. An
// algorithm failure triggers the hierarchical fallback before any error
// surfaces; cancellation surfaces as ErrCodeLayoutCancelled.
func (e *Engine) Apply(ctx context.Context, req Request) (Operation, error) {
	ctx, err := e.begin(ctx)
	if err != nil {
		return Operation{}, err
	}
	defer e.end()

	op := Operation{ID: uuid.NewString()}
	started := time.Now()

	name := req.Algorithm
	if name == "" {
		name = Select(req.Nodes, req.Edges, req.ViewType)
	}
	algo, ok := e.registry.Get(name)
	if !ok {
		e.logger.Warn("unknown algorithm, using hierarchical", "requested", name)
		if algo, ok = e.registry.Get(AlgoHierarchical); !ok {
			e.setState(StateIdle)
			return Operation{}, errors.New(errors.ErrCodeInvalidAlgorithm,
				"algorithm %q not registered and no hierarchical fallback", name)
		}
		name = AlgoHierarchical
	}
	op.Algorithm = name

	observability.Layout().OnLayoutStart(ctx, name, len(req.Nodes))
	e.setState(StateApplying)

	nodes, err := e.run(ctx, algo, req)
	if err != nil {
		if ctx.Err() != nil {
			e.setState(StateCancelled)
			observability.Layout().OnLayoutComplete(ctx, name, time.Since(started), err)
			return Operation{}, errors.Wrap(errors.ErrCodeLayoutCancelled, err, "layout %s cancelled", op.ID)
		}

		e.setState(StateFallback)
		e.logger.Warn("algorithm failed, falling back to hierarchical", "algorithm", name, "err", err)
		fallback, ok := e.registry.Get(AlgoHierarchical)
		if !ok {
			observability.Layout().OnLayoutComplete(ctx, name, time.Since(started), err)
			return Operation{}, errors.Wrap(errors.ErrCodeAlgorithmFailed, err, "algorithm %s failed", name)
		}
		op.Algorithm, op.FellBack = AlgoHierarchical, true
		e.setState(StateApplying)
		if nodes, err = fallback.Layout(ctx, req.Nodes, req.Edges); err != nil {
			e.setState(StateIdle)
			observability.Layout().OnLayoutComplete(ctx, op.Algorithm, time.Since(started), err)
			return Operation{}, errors.Wrap(errors.ErrCodeAlgorithmFailed, err, "hierarchical fallback failed")
		}
	}

	e.setState(StateOptimizing)
	nodes = e.postProcess(op.Algorithm, nodes, req.Edges)

	op.Nodes = nodes
	op.Duration = time.Since(started)
	e.setState(StateComplete)
	observability.Layout().OnLayoutComplete(ctx, op.Algorithm, op.Duration, nil)
	e.logger.Info("layout complete",
		"op", op.ID, "algorithm", op.Algorithm, "nodes", len(nodes),
		"fallback", op.FellBack, "duration", op.Duration)
	return op, nil
}

// run executes the algorithm, progressively when requested and supported.
func (e *Engine) run(ctx context.Context, algo Algorithm, req Request) ([]graph.Node, error) {
	if req.Progress != nil {
		if p, ok := algo.(Progressive); ok {
			return p.LayoutProgressive(ctx, req.Nodes, req.Edges, func(done, total int) {
				observability.Layout().OnLayoutProgress(ctx, algo.Name(), done, total)
				req.Progress(done, total)
			})
		}
	}
	return algo.Layout(ctx, req.Nodes, req.Edges)
}

// postProcess applies the geometric clustering pass. Physics-based layouts
// skip it: compressing elements after a force simulation fights the
// equilibrium the simulation just found. Hierarchical skips it too, having
// clustered internally.
func (e *Engine) postProcess(algorithm string, nodes []graph.Node, edges []graph.Edge) []graph.Node {
	switch algorithm {
	case AlgoForce, AlgoForceOptimized, AlgoHierarchical:
		return nodes
	}
	if !e.opts.Clustering {
		return nodes
	}
	return layout.Cluster(nodes, edges, e.opts.Compression, e.opts.NodeSep)
}
