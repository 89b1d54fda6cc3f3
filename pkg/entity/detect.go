package entity

// DetectKind infers an entity kind from the fields present on a raw document.
// This is the structural fallback for ingestion sources that predate the
// explicit kind field; it runs only at the ingestion boundary. Documents
// carrying an explicit valid kind never reach this function.
//
// The heuristics mirror the shapes the upstream document database produces:
// puzzles declare requirements/rewards, timeline events declare participants
// and a date, characters declare a tier, everything else is an element.
func DetectKind(raw map[string]any) Kind {
	if has(raw, "requirement_ids") || has(raw, "reward_ids") || has(raw, "sub_puzzle_ids") {
		return KindPuzzle
	}
	if has(raw, "participant_ids") || has(raw, "date") {
		return KindTimeline
	}
	if has(raw, "tier") || has(raw, "owned_element_ids") {
		return KindCharacter
	}
	return KindElement
}

func has(raw map[string]any, key string) bool {
	v, ok := raw[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	}
	return true
}
