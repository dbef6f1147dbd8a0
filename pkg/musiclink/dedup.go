package musiclink

import (
	"sort"
)

// Deduplicate orders candidates by start offset and keeps the first occurrence of each
// distinct link text. The input slice is not modified.
func Deduplicate(candidates []Candidate) ExtractionResult {
	if len(candidates) == 0 {
		return ExtractionResult{}
	}

	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	seen := make(map[string]struct{}, len(ordered))
	result := ExtractionResult{
		Links: make([]string, 0, len(ordered)),
		Types: make([]ResourceType, 0, len(ordered)),
	}

	for _, c := range ordered {
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		result.Links = append(result.Links, c.Text)
		result.Types = append(result.Types, c.Type)
	}

	return result
}
