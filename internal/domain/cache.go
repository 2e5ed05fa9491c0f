package domain

import "time"

// SuggestionCacheTTL is the freshness window for cached tag suggestions.
// An entry older than this is treated as a miss; entries are never
// proactively deleted outside an administrative bulk clear.
const SuggestionCacheTTL = 7 * 24 * time.Hour

// SuggestionCacheEntry stores a previously generated tag list keyed by a
// content hash of the normalized input text.
//
// The hash is a fast non-cryptographic rolling hash, so collisions are
// possible and would silently return another input's tags. Accepted as a
// known limitation: a wrong tag suggestion is low stakes.
type SuggestionCacheEntry struct {
	ContentHash string    `json:"content_hash"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UsageCount  int       `json:"usage_count"`
	LastUsedAt  time.Time `json:"last_used_at"`
}

// IsFresh reports whether the entry is still within the TTL window.
func (e *SuggestionCacheEntry) IsFresh(now time.Time) bool {
	return now.Sub(e.CreatedAt) < SuggestionCacheTTL
}
