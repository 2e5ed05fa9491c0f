package tagging

import (
	"strconv"
	"strings"
)

// CacheKey derives the suggestion cache key from the user ID and the
// normalized title and description. The hash is a 31-multiplier rolling
// hash over code points, wrapped at 32 bits and base-36 encoded.
//
// Collisions are possible and silently serve another input's tags; accepted
// as a known limitation given the low stakes of a wrong suggestion. Salting
// with the user ID keeps any collision inside one user's account.
func CacheKey(userID, title, description string) string {
	input := userID + "\x1f" + normalizeForHash(title) + "\x1f" + normalizeForHash(description)

	var h int32
	for _, r := range input {
		h = h*31 + int32(r)
	}

	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// normalizeForHash lowercases and collapses whitespace so trivial
// formatting differences hit the same cache entry.
func normalizeForHash(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
