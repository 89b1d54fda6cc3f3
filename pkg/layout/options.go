// Package layout computes positions for story-flow graphs.
//
// The primary algorithm is a left-to-right hierarchical ranking layout in
// the DAG-layering family: break cycles, assign every node a rank (column)
// respecting per-edge minimum rank gaps, reduce crossings with barycenter
// sweeps, then assign coordinates. An optional clustering pass compresses
// each puzzle's connected elements toward the puzzle's vertical center.
//
// Layout never mutates its inputs: every call returns fresh node values
// with positions filled in.
package layout

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

// Sentinel errors.
var (
	ErrBadRankSep     = errors.New("layout: rank separation must be positive")
	ErrBadNodeSep     = errors.New("layout: node separation must be positive")
	ErrBadCompression = errors.New("layout: compression factor must be in (0, 1]")
)

// Alignment corners for coordinate assignment.
const (
	AlignUpperLeft = "ul"
	AlignCenter    = "center"
)

// Options is the tuning surface of the hierarchical layout. All thresholds
// are empirically tuned defaults, not correctness requirements; override
// them freely.
type Options struct {
	// RankSep is the horizontal gap between adjacent rank columns.
	RankSep float64
	// NodeSep is the vertical gap between adjacent nodes in a column.
	NodeSep float64
	// Align selects the alignment corner for coordinate assignment.
	Align string
	// FractionalRanks lets a dual-role element sit between its providers
	// and consumers instead of being forced fully into one rank.
	FractionalRanks bool
	// AdaptiveSpacing scales the separations by observed graph density.
	AdaptiveSpacing bool
	// Clustering enables the post-layout element compression pass.
	Clustering bool
	// Compression is how far toward its puzzle's vertical center each
	// element moves during clustering, in (0, 1].
	Compression float64

	// Adaptive-spacing thresholds.
	ElementsPerPuzzle float64 // widen RankSep above this many elements per puzzle
	RankSepCap        float64 // never widen past this
	DensityThreshold  float64 // tighten NodeSep above this many nodes per rank
	NodeSepFloor      float64 // never tighten below this

	// Sweeps is the number of barycenter ordering passes.
	Sweeps int

	// Logger receives diagnostic messages. Nil disables logging.
	Logger *log.Logger
}

// DefaultOptions returns the standard story-flow tuning.
func DefaultOptions() Options {
	return Options{
		RankSep:           120,
		NodeSep:           40,
		Align:             AlignCenter,
		FractionalRanks:   true,
		AdaptiveSpacing:   true,
		Clustering:        true,
		Compression:       0.6,
		ElementsPerPuzzle: 5,
		RankSepCap:        240,
		DensityThreshold:  6,
		NodeSepFloor:      20,
		Sweeps:            4,
	}
}

// Validate checks the options for values the layout cannot work with.
func (o Options) Validate() error {
	if o.RankSep <= 0 {
		return ErrBadRankSep
	}
	if o.NodeSep <= 0 {
		return ErrBadNodeSep
	}
	if o.Clustering && (o.Compression <= 0 || o.Compression > 1) {
		return ErrBadCompression
	}
	return nil
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

func (o Options) sweeps() int {
	if o.Sweeps > 0 {
		return o.Sweeps
	}
	return 4
}
