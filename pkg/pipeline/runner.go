package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/storyloom/storyflow/pkg/cache"
	"github.com/storyloom/storyflow/pkg/engine"
	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/errors"
	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout/quality"
	"github.com/storyloom/storyflow/pkg/observability"
	"github.com/storyloom/storyflow/pkg/relate"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Each Execute call constructs its own engine, so
// concurrent runs never contend for the single-flight slot.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedLayout is the serialized form of a layout cache entry.
type cachedLayout struct {
	Nodes     []graph.Node `json:"nodes"`
	Algorithm string       `json:"algorithm"`
}

// Execute runs the complete extract → layout → evaluate pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, entities *entity.Collection, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	result := &Result{}

	// Stage 1: Extract and synthesize the graph.
	extractStart := time.Now()
	g, diag := r.BuildGraph(ctx, entities, opts)
	result.Diagnostics = diag
	result.Stats.ExtractTime = time.Since(extractStart)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	for _, e := range g.Edges {
		if e.Virtual {
			result.Stats.VirtualCount++
		}
	}

	graphData, err := g.Marshal()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "marshal graph")
	}
	result.GraphHash = cache.Hash(graphData)

	logger.Info("synthesized graph",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"virtual", result.Stats.VirtualCount,
		"duration", result.Stats.ExtractTime)
	if !diag.Empty() {
		logger.Warn("authoring gaps detected",
			"dead_ends", len(diag.DeadEnds), "orphans", len(diag.Orphans))
	}

	// Stage 2: Layout, with caching.
	layoutStart := time.Now()
	nodes, algorithm, layoutHit, err := r.layoutWithCache(ctx, g, opts, logger)
	if err != nil {
		return nil, err
	}
	result.Nodes = nodes
	result.Algorithm = algorithm
	result.Edges = graph.VisibleEdges(g.Edges)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	logger.Info("computed layout",
		"algorithm", algorithm,
		"cache_hit", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Evaluate, with caching.
	if opts.Evaluate {
		evalStart := time.Now()
		q, qualityHit, err := r.evaluateWithCache(ctx, nodes, g.Edges, algorithm)
		if err != nil {
			return nil, err
		}
		result.Quality = q
		result.Suggestions = quality.Suggest(*q, algorithm, len(result.Edges))
		result.Stats.EvaluateTime = time.Since(evalStart)
		result.CacheInfo.QualityHit = qualityHit
		observability.Layout().OnQualityEvaluated(ctx, q.Crossings, q.Overlaps, result.Stats.EvaluateTime)

		logger.Info("evaluated layout",
			"crossings", q.Crossings,
			"overlaps", q.Overlaps,
			"pattern", q.Pattern,
			"duration", result.Stats.EvaluateTime)
	}

	return result, nil
}

// BuildGraph runs extraction, edge synthesis, and virtual-edge injection
// over an entity collection.
func (r *Runner) BuildGraph(ctx context.Context, entities *entity.Collection, opts Options) (graph.Graph, graph.Diagnostics) {
	observability.Layout().OnExtractStart(ctx, entities.Len())
	started := time.Now()

	records := relate.Extract(entities)
	builder := graph.NewBuilder(entities).WithBaseWeight(opts.BaseWeight)
	builder.AddAll(records)
	edges := builder.Edges()

	var diag graph.Diagnostics
	if opts.InjectVirtual {
		inj := graph.Injector{Entities: entities, Logger: opts.Logger}
		edges, diag = inj.Inject(edges, builder.Usage())
	}

	g := graph.Graph{Nodes: graph.NodesFrom(entities), Edges: edges}.DropDangling()
	observability.Layout().OnExtractComplete(ctx, len(records), len(g.Edges), time.Since(started))
	return g, diag
}

// layoutWithCache returns a cached layout when available, otherwise runs
// the engine and stores the result.
func (r *Runner) layoutWithCache(ctx context.Context, g graph.Graph, opts Options, logger *log.Logger) ([]graph.Node, string, bool, error) {
	graphData, err := g.Marshal()
	if err != nil {
		return nil, "", false, errors.Wrap(errors.ErrCodeInvalidGraph, err, "marshal graph")
	}
	key := r.Keyer.LayoutKey(cache.Hash(graphData), cache.LayoutKeyOpts{
		Algorithm:       opts.Algorithm,
		RankSep:         opts.RankSep,
		NodeSep:         opts.NodeSep,
		FractionalRanks: opts.FractionalRanks,
		AdaptiveSpacing: opts.AdaptiveSpacing,
		Clustering:      opts.Clustering,
		Compression:     opts.Compression,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached cachedLayout
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached.Nodes, cached.Algorithm, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	eng := engine.New(engine.DefaultRegistry(opts.LayoutOptions()), opts.LayoutOptions(), logger)
	op, err := eng.Apply(ctx, engine.Request{
		Nodes:     g.Nodes,
		Edges:     g.Edges,
		Algorithm: opts.Algorithm,
		ViewType:  opts.ViewType,
	})
	if err != nil {
		return nil, "", false, err
	}

	if data, err := json.Marshal(cachedLayout{Nodes: op.Nodes, Algorithm: op.Algorithm}); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return op.Nodes, op.Algorithm, false, nil
}

// evaluateWithCache returns a cached quality snapshot when available,
// otherwise computes and stores one.
func (r *Runner) evaluateWithCache(ctx context.Context, nodes []graph.Node, edges []graph.Edge, algorithm string) (*quality.Advanced, bool, error) {
	layoutData, err := json.Marshal(cachedLayout{Nodes: nodes, Algorithm: algorithm})
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "marshal layout")
	}
	key := r.Keyer.QualityKey(cache.Hash(layoutData))

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var q quality.Advanced
		if err := json.Unmarshal(data, &q); err == nil {
			observability.Cache().OnCacheHit(ctx, "quality")
			return &q, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "quality")

	q := quality.EvaluateAdvanced(nodes, edges)
	if data, err := json.Marshal(q); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLQuality); err == nil {
			observability.Cache().OnCacheSet(ctx, "quality", len(data))
		}
	}
	return &q, false, nil
}
