package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Prompt output stays on one comma-separated line so parsing never has to
// guess at markdown lists or numbering.

const maxTagRunes = 30

// TagInput is the page content fed into the prompt builders.
type TagInput struct {
	URL         string
	Title       string
	Description string
	Excerpt     string
	Keywords    []string
}

// BuildTagPrompt renders the tag generation instruction for the model.
func BuildTagPrompt(input TagInput, maxTags int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Suggest up to %d short tags for organizing the following saved web page.\n", maxTags)
	b.WriteString("Reply with ONLY the tags on a single line, comma-separated, no numbering, no explanations.\n")
	b.WriteString("Tags must be concise (1-3 words), in the same language as the content.\n\n")

	writeContent(&b, input)

	return b.String()
}

// BuildEntityPrompt renders the entity extraction instruction for the model.
func BuildEntityPrompt(input TagInput, maxEntities int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "List up to %d salient proper nouns (products, companies, people, places, technologies) mentioned in the following web page.\n", maxEntities)
	b.WriteString("Reply with ONLY the names on a single line, comma-separated, no numbering, no explanations.\n\n")

	writeContent(&b, input)

	return b.String()
}

func writeContent(b *strings.Builder, input TagInput) {
	if input.URL != "" {
		fmt.Fprintf(b, "URL: %s\n", input.URL)
	}
	if input.Title != "" {
		fmt.Fprintf(b, "Title: %s\n", input.Title)
	}
	if input.Description != "" {
		fmt.Fprintf(b, "Description: %s\n", input.Description)
	}
	if len(input.Keywords) > 0 {
		fmt.Fprintf(b, "Detected keywords: %s\n", strings.Join(input.Keywords, ", "))
	}
	if input.Excerpt != "" {
		fmt.Fprintf(b, "Content:\n%s\n", input.Excerpt)
	}
}

// ParseTagList parses a comma-separated model reply into at most max tags.
// Overlong entries are dropped rather than truncated; a mangled entry is
// worse than a missing one.
func ParseTagList(text string, max int) []string {
	if max <= 0 {
		return nil
	}

	// Models occasionally reply with multiple lines despite the instruction;
	// take the first non-empty line.
	line := ""
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	var tags []string
	for _, raw := range strings.Split(line, ",") {
		tag := strings.Trim(strings.TrimSpace(raw), `"'.`)
		if tag == "" || utf8.RuneCountInString(tag) > maxTagRunes {
			continue
		}
		tags = append(tags, tag)
		if len(tags) >= max {
			break
		}
	}

	return tags
}
