package entity

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Snapshot is the serialization format for an entity snapshot: the complete
// design-data set a layout run works from. The format round-trips:
// read → layout → write produces an identical entity list.
type Snapshot struct {
	Entities []Entity `json:"entities" bson:"entities"`
}

// ReadSnapshot decodes a JSON snapshot from r into a collection.
// Entities missing a valid kind get one from [DetectKind].
func ReadSnapshot(r io.Reader) (*Collection, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	normalizeKinds(snap.Entities)
	c, _ := FromSlice(snap.Entities)
	return c, nil
}

// ReadSnapshotFile reads a JSON snapshot file and returns the decoded collection.
func ReadSnapshotFile(path string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}

// WriteSnapshot writes a collection as pretty-printed JSON to w.
// Entities are sorted by ID for deterministic output.
func WriteSnapshot(c *Collection, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Snapshot{Entities: c.All()}); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// normalizeKinds fills in a missing or unknown Kind using structural
// detection. The detection inspects the entity's own field names the same
// way [DetectKind] inspects raw documents.
func normalizeKinds(entities []Entity) {
	for i := range entities {
		if entities[i].Kind.Valid() {
			continue
		}
		entities[i].Kind = detectFromEntity(entities[i])
	}
}

func detectFromEntity(e Entity) Kind {
	switch {
	case len(e.RequirementIDs) > 0 || len(e.RewardIDs) > 0 || len(e.SubPuzzleIDs) > 0:
		return KindPuzzle
	case len(e.ParticipantIDs) > 0 || e.Date != "":
		return KindTimeline
	case e.Tier != "" || len(e.OwnedElementIDs) > 0:
		return KindCharacter
	default:
		return KindElement
	}
}
