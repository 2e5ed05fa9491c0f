package tagging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDomain_KnownHosts(t *testing.T) {
	tests := []struct {
		url  string
		want []string
	}{
		{"https://github.com/user/repo", []string{"GitHub", "code"}},
		{"https://www.github.com/user/repo", []string{"GitHub", "code"}},
		{"https://gist.github.com/user/abc", []string{"GitHub", "code"}},
		{"https://youtu.be/dQw4w9WgXcQ", []string{"YouTube", "video"}},
		{"https://news.ycombinator.com/item?id=1", []string{"HackerNews", "tech"}},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDomain(tt.url, "", nil))
		})
	}
}

func TestClassifyDomain_Unknown(t *testing.T) {
	assert.Empty(t, ClassifyDomain("https://example.com/post", "", nil))
}

func TestClassifyDomain_Malformed(t *testing.T) {
	assert.Empty(t, ClassifyDomain("://not a url", "", nil))
	assert.Empty(t, ClassifyDomain("", "", nil))
}

func TestClassifyDomain_MapPlaceName(t *testing.T) {
	got := ClassifyDomain("https://goo.gl/maps/abc123", "ラーメン二郎・三田・ラーメン", nil)
	assert.Equal(t, []string{"ラーメン二郎"}, got)

	// Title without a middle dot contributes whole title.
	got = ClassifyDomain("https://www.google.com/maps/place/xyz", "Blue Bottle Coffee", nil)
	assert.Equal(t, []string{"Blue Bottle Coffee"}, got)

	// Non-map URL ignores the title.
	got = ClassifyDomain("https://example.com/", "店名・エリア", nil)
	assert.Empty(t, got)
}

func TestFallbackTags(t *testing.T) {
	text := "Getting started with Docker and Kubernetes on AWS"

	got := FallbackTags(text, 10)
	assert.Equal(t, []string{"Docker", "Kubernetes", "AWS"}, got)

	// Bounded by max.
	got = FallbackTags(text, 2)
	assert.Len(t, got, 2)

	// Case-insensitive matching.
	got = FallbackTags("learning PYTHON for data work", 5)
	assert.Contains(t, got, "Python")

	assert.Empty(t, FallbackTags("", 5))
	assert.Empty(t, FallbackTags(text, 0))
}

func TestMerge_PriorityAndDedupe(t *testing.T) {
	got := Merge(10,
		[]string{"GitHub", "code"},       // domain
		[]string{"golang", "Code"},       // AI (Code dupes code)
		[]string{"Google"},               // entities
		[]string{"github"},               // candidates (dupe)
		[]string{"tools", "opensource"},  // keywords
	)

	assert.Equal(t, []string{"GitHub", "code", "golang", "Google", "tools", "opensource"}, got)
}

func TestMerge_BoundedByMax(t *testing.T) {
	got := Merge(3,
		[]string{"a", "b"},
		[]string{"c", "d", "e"},
	)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestMerge_FiltersOverlongAndEmpty(t *testing.T) {
	got := Merge(5,
		[]string{"", "  ", strings.Repeat("x", 31), "ok"},
	)
	assert.Equal(t, []string{"ok"}, got)
}

func TestMerge_ZeroMax(t *testing.T) {
	assert.Empty(t, Merge(0, []string{"a"}))
}

func TestCacheKey_DeterministicAndScoped(t *testing.T) {
	k1 := CacheKey("user-1", "Some Title", "A description")
	k2 := CacheKey("user-1", "Some Title", "A description")
	assert.Equal(t, k1, k2)

	// Different users never share a key for the same content.
	k3 := CacheKey("user-2", "Some Title", "A description")
	assert.NotEqual(t, k1, k3)

	// Different content gets a different key.
	k4 := CacheKey("user-1", "Another Title", "A description")
	assert.NotEqual(t, k1, k4)
}

func TestCacheKey_NormalizesFormatting(t *testing.T) {
	k1 := CacheKey("user-1", "Some  Title", "desc")
	k2 := CacheKey("user-1", "  some title ", "DESC")
	assert.Equal(t, k1, k2)
}

func TestCacheKey_Base36(t *testing.T) {
	k := CacheKey("user-1", "title", "desc")
	assert.NotEmpty(t, k)
	for _, r := range k {
		assert.Contains(t, "0123456789abcdefghijklmnopqrstuvwxyz", string(r))
	}
}
