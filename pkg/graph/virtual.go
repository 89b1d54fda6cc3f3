package graph

import (
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/storyloom/storyflow/pkg/entity"
)

// Virtual edge weights. Dependency edges must dominate ordinary structural
// edges so the ranker cannot trade the ordering away; grouping edges are a
// medium pull only.
const (
	virtualDependencyWeight = 8.0
	groupingWeight          = 2.0
)

// ProviderConsumerIndex maps each element ID to the puzzles that provide it
// (reward edges) and the puzzles that consume it (requirement edges).
type ProviderConsumerIndex struct {
	Providers map[string][]string
	Consumers map[string][]string
}

// Diagnostics is the advisory report produced during virtual-edge
// injection. Neither list is an error: incomplete content is the normal
// state of a design under authoring.
type Diagnostics struct {
	// DeadEnds lists elements some puzzle provides but no puzzle consumes.
	DeadEnds []string `json:"dead_ends,omitempty"`
	// Orphans lists elements some puzzle consumes but no puzzle provides,
	// usually an authoring gap.
	Orphans []string `json:"orphans,omitempty"`
}

// Empty reports whether the diagnostics carry no findings.
func (d Diagnostics) Empty() bool {
	return len(d.DeadEnds) == 0 && len(d.Orphans) == 0
}

// Injector synthesizes layout-only virtual edges from provider/consumer
// analysis. The logger is advisory only; a nil logger disables the
// diagnostic messages.
type Injector struct {
	Entities *entity.Collection
	Logger   *log.Logger
}

// Inject appends virtual edges to the given edge set and returns the
// extended set plus a diagnostics report.
//
// Two edge families are synthesized:
//
//  1. For every dual-role element (provided by ≥1 puzzle, consumed by ≥1
//     other) a virtual-dependency edge provider→consumer per pair, with
//     MinRankGap 1, so every provider ranks strictly left of every
//     consumer of the shared element.
//  2. For every pair of puzzles touching the same element, a grouping edge
//     with MinRankGap 0 pulling the pair toward the same rank. Pairs
//     already bound by a dependency edge are skipped: a same-rank pull
//     would fight the mandatory ordering.
//
// Injection is deterministic: elements are visited in sorted ID order and
// every synthesized edge is deduplicated by (kind, source, target), so
// input edge order never changes the result set.
func (inj Injector) Inject(edges []Edge, idx ProviderConsumerIndex) ([]Edge, Diagnostics) {
	out := slices.Clone(edges)
	seen := make(map[string]bool, len(out))
	for _, e := range out {
		seen[e.ID] = true
	}
	add := func(e Edge) {
		if seen[e.ID] {
			return
		}
		seen[e.ID] = true
		out = append(out, e)
	}

	var diag Diagnostics
	elements := slices.Sorted(maps.Keys(union(idx.Providers, idx.Consumers)))

	// Dependency edges from dual-role elements.
	ordered := make(map[[2]string]bool)
	for _, el := range elements {
		providers, consumers := idx.Providers[el], idx.Consumers[el]
		switch {
		case len(providers) > 0 && len(consumers) == 0:
			diag.DeadEnds = append(diag.DeadEnds, el)
			continue
		case len(consumers) > 0 && len(providers) == 0:
			diag.Orphans = append(diag.Orphans, el)
			continue
		}
		for _, p := range providers {
			for _, c := range consumers {
				if p == c {
					continue
				}
				ordered[[2]string{p, c}] = true
				add(Edge{
					ID:         EdgeID(EdgeVirtualDependency, p, c),
					Source:     p,
					Target:     c,
					Kind:       EdgeVirtualDependency,
					Weight:     virtualDependencyWeight,
					MinRankGap: 1,
					Virtual:    true,
				})
			}
		}
	}

	// Grouping edges between puzzles sharing any connected element.
	for _, el := range elements {
		puzzles := slices.Clone(idx.Providers[el])
		puzzles = append(puzzles, idx.Consumers[el]...)
		slices.Sort(puzzles)
		puzzles = slices.Compact(puzzles)
		for i := 0; i < len(puzzles); i++ {
			for j := i + 1; j < len(puzzles); j++ {
				a, b := puzzles[i], puzzles[j]
				if ordered[[2]string{a, b}] || ordered[[2]string{b, a}] {
					continue
				}
				w := groupingWeight
				if inj.Entities != nil && SharedThread(inj.Entities, a, b) {
					w *= weightThread
				}
				add(Edge{
					ID:      EdgeID(EdgeGrouping, a, b),
					Source:  a,
					Target:  b,
					Kind:    EdgeGrouping,
					Weight:  w,
					Virtual: true,
				})
			}
		}
	}

	slices.Sort(diag.DeadEnds)
	slices.Sort(diag.Orphans)
	if inj.Logger != nil && !diag.Empty() {
		inj.Logger.Debug("virtual edge diagnostics",
			"dead_ends", len(diag.DeadEnds), "orphans", len(diag.Orphans))
	}
	return out, diag
}

func union(a, b map[string][]string) map[string]struct{} {
	u := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		u[k] = struct{}{}
	}
	for k := range b {
		u[k] = struct{}{}
	}
	return u
}
