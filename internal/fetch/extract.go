package fetch

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

const (
	maxHeadings    = 10
	maxExcerptLen  = 2000
	maxKeywordMeta = 20
)

// extract pulls metadata out of a parsed document.
// Title and description each follow a priority chain so pages with partial
// Open Graph markup still produce something useful.
func extract(doc *html.Node, rawHTML string) *Result {
	meta := collectMeta(doc)

	result := &Result{
		Title:       firstNonEmpty(meta["og:title"], meta["twitter:title"], documentTitle(doc)),
		Description: firstNonEmpty(meta["og:description"], meta["twitter:description"], meta["description"]),
		ImageURL:    firstNonEmpty(meta["og:image"], meta["twitter:image"]),
		SiteName:    meta["og:site_name"],
		Headings:    collectHeadings(doc),
		Class:       classify(meta["og:type"]),
	}

	if result.Title == "" && len(result.Headings) > 0 {
		result.Title = result.Headings[0]
	}

	if kw := meta["keywords"]; kw != "" {
		for _, k := range strings.Split(kw, ",") {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			result.Keywords = append(result.Keywords, k)
			if len(result.Keywords) >= maxKeywordMeta {
				break
			}
		}
	}

	result.Excerpt = buildExcerpt(rawHTML)

	return result
}

// collectMeta walks the document head and maps meta property/name to content.
func collectMeta(doc *html.Node) map[string]string {
	meta := make(map[string]string)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var key, content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "property", "name":
					key = strings.ToLower(attr.Val)
				case "content":
					content = attr.Val
				}
			}
			if key != "" && content != "" {
				if _, seen := meta[key]; !seen {
					meta[key] = strings.TrimSpace(content)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return meta
}

// documentTitle returns the <title> text.
func documentTitle(doc *html.Node) string {
	var title string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = strings.TrimSpace(nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title
}

// collectHeadings returns h1 and h2 text in document order.
func collectHeadings(doc *html.Node) []string {
	var headings []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(headings) >= maxHeadings {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "h1" || n.Data == "h2") {
			if text := strings.TrimSpace(nodeText(n)); text != "" {
				headings = append(headings, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return headings
}

// nodeText concatenates all text nodes under n.
func nodeText(n *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return sb.String()
}

// buildExcerpt converts the page to markdown and returns a capped,
// whitespace-collapsed plain text slice of it. Markdown gives us clean text
// without scripts, styles, or attribute noise.
func buildExcerpt(rawHTML string) string {
	md, err := htmltomarkdown.ConvertString(rawHTML)
	if err != nil {
		return ""
	}

	fields := strings.Fields(md)
	text := strings.Join(fields, " ")

	if len(text) > maxExcerptLen {
		// Cut on a rune boundary.
		runes := []rune(text)
		if len(runes) > maxExcerptLen {
			runes = runes[:maxExcerptLen]
		}
		text = string(runes)
	}

	return text
}

// classify maps an og:type value to a coarse classification.
func classify(ogType string) Classification {
	ogType = strings.ToLower(strings.TrimSpace(ogType))
	switch {
	case ogType == "":
		return ClassOther
	case strings.HasPrefix(ogType, "video"):
		return ClassVideo
	case strings.HasPrefix(ogType, "article") || ogType == "blog":
		return ClassArticle
	case strings.HasPrefix(ogType, "product"):
		return ClassProduct
	case strings.Contains(ogType, "recipe"):
		return ClassRecipe
	default:
		return ClassOther
	}
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
