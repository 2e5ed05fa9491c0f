package tagging

import "strings"

// fallbackVocabulary is the fixed term list used when AI tagging is
// unavailable or not worth paying for. Intersection against the combined
// text is case-insensitive; the canonical casing below is what gets tagged.
var fallbackVocabulary = []string{
	// Technology
	"JavaScript", "TypeScript", "Python", "Go", "Rust", "Swift", "Kotlin",
	"React", "Vue", "Flutter", "Node.js", "Docker", "Kubernetes", "AWS",
	"GCP", "Azure", "Linux", "API", "SQL", "NoSQL", "GraphQL", "AI",
	"machine learning", "security", "database", "frontend", "backend",
	"iOS", "Android", "web",
	// Business
	"startup", "marketing", "SaaS", "finance", "investment", "management",
	"productivity", "career", "remote work",
	// Design
	"design", "UI", "UX", "typography", "branding", "illustration",
	// Lifestyle
	"recipe", "travel", "health", "fitness", "book", "music", "game",
}

// FallbackTags intersects the combined text against the fixed vocabulary,
// case-insensitively, returning up to max tags in vocabulary order.
func FallbackTags(text string, max int) []string {
	if max <= 0 || text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	var tags []string

	for _, term := range fallbackVocabulary {
		if strings.Contains(lower, strings.ToLower(term)) {
			tags = append(tags, term)
			if len(tags) >= max {
				break
			}
		}
	}

	return tags
}
