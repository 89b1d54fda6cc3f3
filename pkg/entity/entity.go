// Package entity defines the design-data model for a murder-mystery game:
// characters, story elements, puzzles, and timeline events, plus the typed
// cross-references between them.
//
// Entities are a tagged union: every entity carries an explicit Kind set at
// ingestion time. Structural detection (guessing the kind from which fields
// are present) exists only at the ingestion boundary - see [DetectKind] -
// and is never consulted by the layout core.
//
// The data is user-maintained and frequently incomplete, so lookups are
// dangling-reference safe: a reference to a missing entity resolves to
// nothing rather than an error.
package entity

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidEntityID is returned by [Collection.Add] when the entity ID is empty.
	ErrInvalidEntityID = errors.New("entity ID must not be empty")

	// ErrDuplicateEntityID is returned by [Collection.Add] when an entity with
	// the same ID already exists in the collection.
	ErrDuplicateEntityID = errors.New("duplicate entity ID")
)

// Kind identifies which variant of the entity union a value holds.
type Kind string

// Entity kinds. Every entity is exactly one of these for its lifetime.
const (
	KindCharacter Kind = "character"
	KindElement   Kind = "element"
	KindPuzzle    Kind = "puzzle"
	KindTimeline  Kind = "timeline"
)

// Valid reports whether k is one of the defined entity kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCharacter, KindElement, KindPuzzle, KindTimeline:
		return true
	}
	return false
}

// Entity is a single design-data record. Kind determines which of the
// kind-specific field groups is meaningful; fields outside the entity's
// group are left at their zero values.
//
// Cross-references are held as ID lists and resolved lazily through a
// [Collection]; an ID pointing at a missing entity is expected during
// authoring and is skipped wherever it is dereferenced.
type Entity struct {
	ID   string `json:"id" bson:"id"`
	Kind Kind   `json:"kind" bson:"kind"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`

	// Character fields.
	Tier            string   `json:"tier,omitempty" bson:"tier,omitempty"`
	OwnedElementIDs []string `json:"owned_element_ids,omitempty" bson:"owned_element_ids,omitempty"`

	// Element fields.
	Pattern    string   `json:"pattern,omitempty" bson:"pattern,omitempty"`       // gameplay-pattern tag (e.g. "red-herring")
	ContentIDs []string `json:"content_ids,omitempty" bson:"content_ids,omitempty"` // elements physically inside this one

	// Puzzle fields.
	RequirementIDs []string `json:"requirement_ids,omitempty" bson:"requirement_ids,omitempty"` // elements needed to solve
	RewardIDs      []string `json:"reward_ids,omitempty" bson:"reward_ids,omitempty"`           // elements unlocked by solving
	SubPuzzleIDs   []string `json:"sub_puzzle_ids,omitempty" bson:"sub_puzzle_ids,omitempty"`
	Thread         string   `json:"thread,omitempty" bson:"thread,omitempty"` // narrative-thread tag

	// Timeline fields.
	ParticipantIDs []string `json:"participant_ids,omitempty" bson:"participant_ids,omitempty"`
	Date           string   `json:"date,omitempty" bson:"date,omitempty"`
}

// IsPuzzle reports whether the entity is a puzzle.
func (e Entity) IsPuzzle() bool { return e.Kind == KindPuzzle }

// IsElement reports whether the entity is a story element.
func (e Entity) IsElement() bool { return e.Kind == KindElement }

// DisplayName returns the name if set, otherwise the ID.
func (e Entity) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// References reports whether the entity's ID lists mention the given ID.
func (e Entity) References(id string) bool {
	return slices.Contains(e.OwnedElementIDs, id) ||
		slices.Contains(e.ContentIDs, id) ||
		slices.Contains(e.RequirementIDs, id) ||
		slices.Contains(e.RewardIDs, id) ||
		slices.Contains(e.SubPuzzleIDs, id) ||
		slices.Contains(e.ParticipantIDs, id)
}
