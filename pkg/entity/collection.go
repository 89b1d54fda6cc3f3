package entity

import (
	"maps"
	"slices"
)

// Collection is an indexed set of entities, the unit a layout run consumes.
// It is built once per snapshot and treated as read-only afterwards.
//
// The zero value is not usable - use NewCollection.
// Collection is not safe for concurrent mutation; concurrent reads are fine.
type Collection struct {
	byID   map[string]Entity
	byKind map[Kind][]string
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		byID:   make(map[string]Entity),
		byKind: make(map[Kind][]string),
	}
}

// FromSlice builds a collection from a slice of entities.
// Entities with empty or duplicate IDs are dropped; authoring data is
// expected to be transiently inconsistent and must never abort ingestion.
// Returns the collection and the number of dropped entities.
func FromSlice(entities []Entity) (*Collection, int) {
	c := NewCollection()
	dropped := 0
	for _, e := range entities {
		if err := c.Add(e); err != nil {
			dropped++
		}
	}
	return c, dropped
}

// Add inserts an entity into the collection.
// Returns ErrInvalidEntityID for an empty ID or ErrDuplicateEntityID if the
// ID is already present.
func (c *Collection) Add(e Entity) error {
	if e.ID == "" {
		return ErrInvalidEntityID
	}
	if _, exists := c.byID[e.ID]; exists {
		return ErrDuplicateEntityID
	}
	c.byID[e.ID] = e
	c.byKind[e.Kind] = append(c.byKind[e.Kind], e.ID)
	return nil
}

// Get returns the entity with the given ID and true, or a zero Entity and
// false if the ID is unknown. Missing IDs are normal, not errors.
func (c *Collection) Get(id string) (Entity, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Len returns the number of entities in the collection.
func (c *Collection) Len() int { return len(c.byID) }

// IDs returns all entity IDs in sorted order.
func (c *Collection) IDs() []string {
	return slices.Sorted(maps.Keys(c.byID))
}

// OfKind returns the IDs of all entities of the given kind, sorted.
func (c *Collection) OfKind(k Kind) []string {
	ids := slices.Clone(c.byKind[k])
	slices.Sort(ids)
	return ids
}

// All returns every entity sorted by ID.
func (c *Collection) All() []Entity {
	out := make([]Entity, 0, len(c.byID))
	for _, id := range c.IDs() {
		out = append(out, c.byID[id])
	}
	return out
}

// Resolve filters an ID list down to the IDs that exist in the collection,
// preserving order. Dangling references are silently dropped.
func (c *Collection) Resolve(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := c.byID[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
