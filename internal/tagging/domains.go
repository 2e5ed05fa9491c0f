// Package tagging holds the deterministic parts of tag generation: the
// hostname classifier, the fallback vocabulary tagger, the priority merger,
// and the suggestion cache key.
package tagging

import (
	"log/slog"
	"net/url"
	"strings"
)

// domainTags maps known hostnames to fixed tag sets. Lookup is suffix-based
// so subdomains (www, gist, m, ...) inherit the parent's tags.
var domainTags = map[string][]string{
	"github.com":        {"GitHub", "code"},
	"gitlab.com":        {"GitLab", "code"},
	"stackoverflow.com": {"StackOverflow", "programming"},
	"qiita.com":         {"Qiita", "programming"},
	"zenn.dev":          {"Zenn", "programming"},
	"youtube.com":       {"YouTube", "video"},
	"youtu.be":          {"YouTube", "video"},
	"vimeo.com":         {"Vimeo", "video"},
	"twitter.com":       {"Twitter", "SNS"},
	"x.com":             {"Twitter", "SNS"},
	"instagram.com":     {"Instagram", "SNS"},
	"facebook.com":      {"Facebook", "SNS"},
	"reddit.com":        {"Reddit", "community"},
	"medium.com":        {"Medium", "article"},
	"note.com":          {"note", "article"},
	"dev.to":            {"DevTo", "programming"},
	"wikipedia.org":     {"Wikipedia", "reference"},
	"amazon.com":        {"Amazon", "shopping"},
	"amazon.co.jp":      {"Amazon", "shopping"},
	"rakuten.co.jp":     {"Rakuten", "shopping"},
	"cookpad.com":       {"Cookpad", "recipe"},
	"netflix.com":       {"Netflix", "video"},
	"spotify.com":       {"Spotify", "music"},
	"news.ycombinator.com": {"HackerNews", "tech"},
}

// mapHosts are map services whose links usually point at a place. For these
// the leading segment of the title (split on the full-width middle dot) is
// read as a store or place name.
var mapHosts = []string{
	"google.com/maps",
	"goo.gl/maps",
	"maps.app.goo.gl",
	"maps.apple.com",
}

// ClassifyDomain returns fixed tags for a known hostname, plus a place-name
// tag for map-service URLs. Unknown or malformed URLs yield an empty list;
// the error is logged, never returned.
func ClassifyDomain(rawURL, title string, logger *slog.Logger) []string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		if logger != nil {
			logger.Debug("domain classification skipped", "url", rawURL, "error", err)
		}
		return nil
	}

	host := strings.ToLower(u.Hostname())
	var tags []string

	for domain, fixed := range domainTags {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			tags = append(tags, fixed...)
			break
		}
	}

	if placeName := mapPlaceName(host, u.Path, title); placeName != "" {
		tags = append(tags, placeName)
	}

	return tags
}

// mapPlaceName extracts a place-name tag from a map-service link title.
// Map titles commonly look like "店名・エリア・カテゴリ"; the leading
// segment is the most specific part.
func mapPlaceName(host, path, title string) string {
	hostPath := host + path
	matched := false
	for _, mh := range mapHosts {
		if strings.HasPrefix(hostPath, mh) || strings.HasPrefix(strings.TrimPrefix(hostPath, "www."), mh) {
			matched = true
			break
		}
	}
	if !matched {
		return ""
	}

	lead, _, _ := strings.Cut(title, "・")
	return strings.TrimSpace(lead)
}
