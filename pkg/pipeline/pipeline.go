// Package pipeline provides the core layout pipeline for Storyflow.
//
// This package implements the complete extract → synthesize → layout →
// evaluate pipeline that can be used by CLI and API components. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Extract: Turn an entity snapshot into relationship records and a
//     weighted edge set, including injected virtual edges
//  2. Layout: Run the layout engine over the synthesized graph
//  3. Evaluate: Compute the quality snapshot for the finished layout
//  4. Render: Hand positioned nodes and visible edges to a render sink
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Algorithm: "hierarchical",
//	    ViewType:  "story-flow",
//	}
//	result, err := runner.Execute(ctx, entities, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	positioned := result.Nodes
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/storyloom/storyflow/pkg/errors"
	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout"
	"github.com/storyloom/storyflow/pkg/layout/quality"
)

// Default layout surface shared by CLI and API.
const (
	DefaultAlgorithm = "hierarchical"
	DefaultViewType  = "story-flow"
)

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Graph options
	BaseWeight    float64 `json:"base_weight,omitempty"`
	InjectVirtual bool    `json:"inject_virtual"`

	// Layout options
	Algorithm       string  `json:"algorithm,omitempty"`
	ViewType        string  `json:"view_type,omitempty"`
	RankSep         float64 `json:"rank_sep,omitempty"`
	NodeSep         float64 `json:"node_sep,omitempty"`
	FractionalRanks bool    `json:"fractional_ranks"`
	AdaptiveSpacing bool    `json:"adaptive_spacing"`
	Clustering      bool    `json:"clustering"`
	Compression     float64 `json:"compression,omitempty"`

	// Evaluate options
	Evaluate bool `json:"evaluate"`

	// Refresh bypasses the cache for this run.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns pipeline options matching the standard layout
// tuning.
func DefaultOptions() Options {
	lo := layout.DefaultOptions()
	return Options{
		BaseWeight:      1,
		InjectVirtual:   true,
		Algorithm:       DefaultAlgorithm,
		ViewType:        DefaultViewType,
		RankSep:         lo.RankSep,
		NodeSep:         lo.NodeSep,
		FractionalRanks: lo.FractionalRanks,
		AdaptiveSpacing: lo.AdaptiveSpacing,
		Clustering:      lo.Clustering,
		Compression:     lo.Compression,
		Evaluate:        true,
	}
}

// ValidateAndSetDefaults fills zero values with defaults and validates the
// result. Called automatically by the Runner.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	def := DefaultOptions()
	if o.BaseWeight <= 0 {
		o.BaseWeight = def.BaseWeight
	}
	if o.Algorithm == "" {
		o.Algorithm = def.Algorithm
	}
	if o.RankSep <= 0 {
		o.RankSep = def.RankSep
	}
	if o.NodeSep <= 0 {
		o.NodeSep = def.NodeSep
	}
	if o.Compression <= 0 || o.Compression > 1 {
		o.Compression = def.Compression
	}
	if err := o.LayoutOptions().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOptions, err, "invalid layout options")
	}
	o.validated = true
	return nil
}

// LayoutOptions converts the pipeline options to layout engine options.
func (o Options) LayoutOptions() layout.Options {
	lo := layout.DefaultOptions()
	lo.RankSep = o.RankSep
	lo.NodeSep = o.NodeSep
	lo.FractionalRanks = o.FractionalRanks
	lo.AdaptiveSpacing = o.AdaptiveSpacing
	lo.Clustering = o.Clustering
	lo.Compression = o.Compression
	lo.Logger = o.Logger
	return lo
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Nodes are the positioned node copies.
	Nodes []graph.Node `json:"nodes"`

	// Edges is the visible (non-virtual) edge set for rendering.
	Edges []graph.Edge `json:"edges"`

	// GraphHash is the content hash of the synthesized graph.
	GraphHash string `json:"graph_hash"`

	// Diagnostics is the advisory report from virtual-edge injection.
	Diagnostics graph.Diagnostics `json:"diagnostics"`

	// Quality is the metrics snapshot, when evaluation was requested.
	Quality *quality.Advanced `json:"quality,omitempty"`

	// Suggestions are derived improvements, when evaluation was requested.
	Suggestions []quality.Suggestion `json:"suggestions,omitempty"`

	// Algorithm is the algorithm that actually ran, after selection and
	// fallback.
	Algorithm string `json:"algorithm"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo `json:"cache_info"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int           `json:"node_count"`
	EdgeCount    int           `json:"edge_count"`
	VirtualCount int           `json:"virtual_count"`
	ExtractTime  time.Duration `json:"extract_time"`
	LayoutTime   time.Duration `json:"layout_time"`
	EvaluateTime time.Duration `json:"evaluate_time"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit  bool `json:"layout_hit"`
	QualityHit bool `json:"quality_hit"`
}
