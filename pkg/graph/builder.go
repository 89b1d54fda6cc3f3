package graph

import (
	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/relate"
)

// Minimum rank gaps per edge kind. Dependency-bearing kinds force the
// target at least one rank right of the source; timeline connections are
// informative only and impose no ordering.
var minRankGaps = map[EdgeKind]int{
	EdgeRequirement:       1,
	EdgeReward:            1,
	EdgeOwnership:         1,
	EdgeChain:             1,
	EdgeContainer:         1,
	EdgeVirtualDependency: 1,
	EdgeTimeline:          0,
	EdgeGrouping:          0,
}

// Weight multipliers. Tiers for element↔puzzle edges are first-match:
// dual-role beats multi-use beats pattern metadata.
const (
	weightDualRole  = 3.0
	weightMultiUse  = 2.0
	weightPattern   = 1.5
	weightSubPuzzle = 5.0
	weightThread    = 2.0
	weightOwnership = 1.5
	weightTimeline  = 0.7
)

// usage records, per element ID, which puzzles provide it (reward edges)
// and which consume it (requirement edges). It is derived once from the
// entity collection and drives both edge weighting and virtual-edge
// injection.
type usage struct {
	providers map[string][]string
	consumers map[string][]string
}

func usageFrom(c *entity.Collection) usage {
	u := usage{
		providers: make(map[string][]string),
		consumers: make(map[string][]string),
	}
	for _, id := range c.OfKind(entity.KindPuzzle) {
		p, _ := c.Get(id)
		for _, el := range c.Resolve(p.RewardIDs) {
			u.providers[el] = append(u.providers[el], p.ID)
		}
		for _, el := range c.Resolve(p.RequirementIDs) {
			u.consumers[el] = append(u.consumers[el], p.ID)
		}
	}
	return u
}

// dualRole reports whether an element is both rewarded by some puzzle and
// required by another.
func (u usage) dualRole(elementID string) bool {
	return len(u.providers[elementID]) > 0 && len(u.consumers[elementID]) > 0
}

// multiUse reports whether an element is required or rewarded by more than
// one puzzle.
func (u usage) multiUse(elementID string) bool {
	return len(u.providers[elementID]) > 1 || len(u.consumers[elementID]) > 1
}

// Builder turns relationship records into weighted edges.
//
// The builder is idempotent: edges are keyed by (kind, source, target) and a
// second Add with the same key is a no-op. Weighting consults the entity
// collection for the affinity signals (dual-role, multi-use, gameplay
// pattern, narrative thread).
type Builder struct {
	entities   *entity.Collection
	usage      usage
	baseWeight float64
	edges      map[string]Edge
	order      []string
}

// NewBuilder creates a builder over an entity collection with base weight 1.
func NewBuilder(c *entity.Collection) *Builder {
	return &Builder{
		entities:   c,
		usage:      usageFrom(c),
		baseWeight: 1,
		edges:      make(map[string]Edge),
	}
}

// WithBaseWeight overrides the base weight every multiplier scales from.
func (b *Builder) WithBaseWeight(w float64) *Builder {
	if w > 0 {
		b.baseWeight = w
	}
	return b
}

// Add synthesizes the edge for one relationship record. Returns false if an
// edge with the same (kind, source, target) key already exists.
func (b *Builder) Add(r relate.Record) bool {
	kind := edgeKindFor(r.Kind)
	id := EdgeID(kind, r.Source, r.Target)
	if _, exists := b.edges[id]; exists {
		return false
	}
	b.edges[id] = Edge{
		ID:         id,
		Source:     r.Source,
		Target:     r.Target,
		Kind:       kind,
		Weight:     b.weightFor(r, kind),
		MinRankGap: minRankGaps[kind],
		Label:      r.Label,
	}
	b.order = append(b.order, id)
	return true
}

// AddAll adds every record, skipping duplicates. Returns the number of
// edges actually created.
func (b *Builder) AddAll(records []relate.Record) int {
	created := 0
	for _, r := range records {
		if b.Add(r) {
			created++
		}
	}
	return created
}

// Edges returns the synthesized edges in insertion order.
func (b *Builder) Edges() []Edge {
	out := make([]Edge, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.edges[id])
	}
	return out
}

// Usage exposes the provider/consumer index for the virtual-edge injector.
func (b *Builder) Usage() ProviderConsumerIndex {
	return ProviderConsumerIndex{
		Providers: b.usage.providers,
		Consumers: b.usage.consumers,
	}
}

func edgeKindFor(k relate.Kind) EdgeKind {
	switch k {
	case relate.Requirement:
		return EdgeRequirement
	case relate.Reward:
		return EdgeReward
	case relate.Ownership:
		return EdgeOwnership
	case relate.Timeline:
		return EdgeTimeline
	case relate.Chain:
		return EdgeChain
	case relate.Container:
		return EdgeContainer
	}
	return EdgeKind(k)
}

// weightFor computes the structural weight for one record.
func (b *Builder) weightFor(r relate.Record, kind EdgeKind) float64 {
	w := b.baseWeight
	switch kind {
	case EdgeRequirement, EdgeReward:
		elementID := r.Source
		if kind == EdgeReward {
			elementID = r.Target
		}
		switch {
		case b.usage.dualRole(elementID):
			w *= weightDualRole
		case b.usage.multiUse(elementID):
			w *= weightMultiUse
		case b.hasPattern(elementID):
			w *= weightPattern
		}
	case EdgeChain:
		// Declared sub-puzzle containment is the strongest structural
		// bond. The shared-thread tier (weightThread) never applies here:
		// the only real puzzle-to-puzzle edge is the chain, so threads
		// boost the injector's grouping edges instead.
		w *= weightSubPuzzle
	case EdgeOwnership:
		w *= weightOwnership
	case EdgeTimeline:
		w *= weightTimeline
	}
	return w
}

func (b *Builder) hasPattern(elementID string) bool {
	e, ok := b.entities.Get(elementID)
	return ok && e.Pattern != ""
}

// SharedThread reports whether two puzzles carry the same non-empty
// narrative-thread tag. Used by grouping-edge synthesis.
func SharedThread(c *entity.Collection, a, b string) bool {
	pa, oka := c.Get(a)
	pb, okb := c.Get(b)
	return oka && okb && pa.Thread != "" && pa.Thread == pb.Thread
}
