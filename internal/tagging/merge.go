package tagging

import (
	"strings"
	"unicode/utf8"
)

const maxTagLength = 30

// Merge combines tag sources into one ordered, deduplicated list bounded by
// max. Source priority is the argument order the caller passes: domain tags
// first, then AI tags, AI entities, candidate entities, heuristic keywords.
// Dedupe is case-insensitive and first-seen casing wins.
func Merge(max int, sources ...[]string) []string {
	if max <= 0 {
		return nil
	}

	seen := make(map[string]bool)
	merged := make([]string, 0, max)

	for _, source := range sources {
		for _, tag := range source {
			tag = strings.TrimSpace(tag)
			if tag == "" || utf8.RuneCountInString(tag) > maxTagLength {
				continue
			}

			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true

			merged = append(merged, tag)
			if len(merged) >= max {
				return merged
			}
		}
	}

	return merged
}
