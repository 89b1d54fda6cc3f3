// Package relate converts typed entity cross-references into a uniform list
// of directed relationship records.
//
// Records are ephemeral: they are produced here, consumed immediately by the
// edge builder in pkg/graph, and not retained. Extraction is a pure function
// of the entity collection - no state, no side effects.
//
// Direction conventions, fixed for the left-to-right story-flow layout:
//
//	requirement  element → puzzle
//	reward       puzzle  → element
//	ownership    character → element
//	timeline     event   → participant
//	chain        parent puzzle → sub-puzzle
//	container    element → contained element
//
// Dangling references (IDs with no matching entity) are skipped, never
// raised: the upstream data is user-maintained and frequently incomplete.
package relate

import "github.com/storyloom/storyflow/pkg/entity"

// Kind classifies a relationship record.
type Kind string

// Relationship kinds.
const (
	Requirement Kind = "requirement"
	Reward      Kind = "reward"
	Ownership   Kind = "ownership"
	Timeline    Kind = "timeline"
	Chain       Kind = "chain"
	Container   Kind = "container"
)

// Record is one directed relationship between two entities.
type Record struct {
	Source string
	Target string
	Kind   Kind
	Label  string
}

// Extract produces all relationship records for every entity in the
// collection. Output order is deterministic: entities are visited in sorted
// ID order and each entity's ID lists in declaration order.
func Extract(c *entity.Collection) []Record {
	var records []Record
	for _, e := range c.All() {
		records = append(records, FromEntity(e, c)...)
	}
	return records
}

// FromEntity produces the relationship records a single entity contributes.
// The collection is consulted only to drop references to missing entities.
func FromEntity(e entity.Entity, c *entity.Collection) []Record {
	var records []Record
	switch e.Kind {
	case entity.KindCharacter:
		for _, id := range c.Resolve(e.OwnedElementIDs) {
			records = append(records, Record{Source: e.ID, Target: id, Kind: Ownership, Label: "owns"})
		}
	case entity.KindElement:
		for _, id := range c.Resolve(e.ContentIDs) {
			records = append(records, Record{Source: e.ID, Target: id, Kind: Container, Label: "contains"})
		}
	case entity.KindPuzzle:
		for _, id := range c.Resolve(e.RequirementIDs) {
			records = append(records, Record{Source: id, Target: e.ID, Kind: Requirement, Label: "requires"})
		}
		for _, id := range c.Resolve(e.RewardIDs) {
			records = append(records, Record{Source: e.ID, Target: id, Kind: Reward, Label: "rewards"})
		}
		for _, id := range c.Resolve(e.SubPuzzleIDs) {
			records = append(records, Record{Source: e.ID, Target: id, Kind: Chain, Label: "unlocks"})
		}
	case entity.KindTimeline:
		for _, id := range c.Resolve(e.ParticipantIDs) {
			records = append(records, Record{Source: e.ID, Target: id, Kind: Timeline, Label: "involves"})
		}
	}
	return records
}
