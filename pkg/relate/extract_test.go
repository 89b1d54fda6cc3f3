package relate

import (
	"testing"

	"github.com/storyloom/storyflow/pkg/entity"
)

func testCollection(t *testing.T) *entity.Collection {
	t.Helper()
	c, dropped := entity.FromSlice([]entity.Entity{
		{ID: "ch-1", Kind: entity.KindCharacter, OwnedElementIDs: []string{"el-1", "el-missing"}},
		{ID: "el-1", Kind: entity.KindElement},
		{ID: "el-2", Kind: entity.KindElement, ContentIDs: []string{"el-1"}},
		{ID: "pz-1", Kind: entity.KindPuzzle, RequirementIDs: []string{"el-1"}, RewardIDs: []string{"el-2"}, SubPuzzleIDs: []string{"pz-2"}},
		{ID: "pz-2", Kind: entity.KindPuzzle},
		{ID: "tl-1", Kind: entity.KindTimeline, ParticipantIDs: []string{"ch-1", "ch-missing"}},
	})
	if dropped != 0 {
		t.Fatalf("dropped %d entities building fixture", dropped)
	}
	return c
}

func TestExtractDirections(t *testing.T) {
	records := Extract(testCollection(t))

	want := map[Record]bool{
		{Source: "ch-1", Target: "el-1", Kind: Ownership, Label: "owns"}:      false,
		{Source: "el-2", Target: "el-1", Kind: Container, Label: "contains"}: false,
		{Source: "el-1", Target: "pz-1", Kind: Requirement, Label: "requires"}: false,
		{Source: "pz-1", Target: "el-2", Kind: Reward, Label: "rewards"}:     false,
		{Source: "pz-1", Target: "pz-2", Kind: Chain, Label: "unlocks"}:      false,
		{Source: "tl-1", Target: "ch-1", Kind: Timeline, Label: "involves"}:  false,
	}
	for _, r := range records {
		if _, ok := want[r]; !ok {
			t.Errorf("unexpected record %+v", r)
			continue
		}
		want[r] = true
	}
	for r, seen := range want {
		if !seen {
			t.Errorf("missing record %+v", r)
		}
	}
}

func TestExtractSkipsDanglingReferences(t *testing.T) {
	records := Extract(testCollection(t))
	for _, r := range records {
		if r.Target == "el-missing" || r.Target == "ch-missing" {
			t.Errorf("dangling reference produced record %+v", r)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	c := testCollection(t)
	first := Extract(c)
	second := Extract(c)
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("record %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
