// Package keywords extracts candidate tag keywords from link titles and
// descriptions using a battery of pattern heuristics. Japanese and English
// text are both supported. The contract is plausible candidates, not
// linguistic correctness — downstream merging decides what survives.
package keywords

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

const (
	minKeywordLen = 1
	maxKeywordLen = 30

	// Placeholder inserted where a protected compound was masked out so the
	// later passes don't re-tokenize it.
	maskRune = '\x00'
)

var (
	// Brand-like tokens that must not be split by later passes:
	// katakana+Latin mixes (ポケモンGO), long katakana runs, and names
	// carrying a corporate suffix.
	reKatakanaLatin  = regexp.MustCompile(`[ァ-ヶー]+[A-Za-z0-9]+|[A-Za-z0-9]+[ァ-ヶー]+`)
	reKatakanaRun    = regexp.MustCompile(`[ァ-ヶー]{3,}`)
	reCorporateJa    = regexp.MustCompile(`(株式会社|合同会社|有限会社)[一-龯ぁ-んァ-ヶーA-Za-z0-9]+|[一-龯ぁ-んァ-ヶーA-Za-z0-9]+(株式会社|合同会社|有限会社)`)
	reCorporateLatin = regexp.MustCompile(`[A-Z][A-Za-z0-9]*(?: [A-Z][A-Za-z0-9]*)*,? (?:Inc|Corp|Ltd|LLC)\.?`)

	// Japanese noun compounds ending in a how-to style suffix.
	reSuffixCompound = regexp.MustCompile(`[一-龯ぁ-んァ-ヶーA-Za-z0-9]{1,20}(?:方法|活用法|活用術|仕事術|術|入門|講座|テクニック)`)

	// Particle boundaries used to split residual Japanese text.
	reParticles = regexp.MustCompile(`から|まで|より|の|を|に|へ|と|が|は|で|や|も`)

	// Kanji noun segments surfaced after particle splitting.
	reKanjiNoun = regexp.MustCompile(`[一-龯]{2,10}`)

	// Bracketed phrases, Japanese and ASCII brackets alike.
	reBrackets = regexp.MustCompile(`「([^」]+)」|『([^』]+)』|【([^】]+)】|\(([^)]+)\)|\[([^\]]+)\]`)

	// Latin acronyms and capitalized words (for acronym generation).
	reAcronym   = regexp.MustCompile(`\b[A-Z]{2,6}\b`)
	reCapPhrase = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+){1,5}\b`)

	// Hashtags, including non-ASCII tag bodies.
	reHashtag = regexp.MustCompile(`#([^\s#　]+)`)

	// Standalone year tokens.
	reYear = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// Extract returns deduplicated candidate keywords from a title and optional
// description. Every keyword is 1-30 characters.
func Extract(title, description string) []string {
	text := strings.TrimSpace(title)
	if description != "" {
		text += " " + strings.TrimSpace(description)
	}
	if text == "" {
		return nil
	}

	// Unify full-width Latin/digits and half-width katakana before matching.
	text = width.Fold.String(text)

	set := newOrderedSet()

	// Pass 1: protected compounds, masked out of the working text.
	masked := text
	for _, re := range []*regexp.Regexp{reKatakanaLatin, reCorporateJa, reCorporateLatin, reKatakanaRun} {
		masked = maskMatches(masked, re, set)
	}

	// Pass 2: how-to suffix compounds.
	for _, m := range reSuffixCompound.FindAllString(masked, -1) {
		set.add(m)
	}

	// Pass 3: residual kanji nouns between particle boundaries.
	for _, segment := range reParticles.Split(masked, -1) {
		for _, noun := range reKanjiNoun.FindAllString(segment, -1) {
			set.add(noun)
		}
	}

	// Pass 4: bracketed phrases (from the unmasked text, brackets may wrap
	// protected compounds).
	for _, groups := range reBrackets.FindAllStringSubmatch(text, -1) {
		for _, g := range groups[1:] {
			if g != "" {
				set.add(g)
			}
		}
	}

	// Pass 5: acronyms, plus generated acronyms from capitalized phrases.
	for _, m := range reAcronym.FindAllString(text, -1) {
		set.add(m)
	}
	for _, phrase := range reCapPhrase.FindAllString(text, -1) {
		set.add(acronymOf(phrase))
	}

	// Pass 6: hashtags and years.
	for _, groups := range reHashtag.FindAllStringSubmatch(text, -1) {
		set.add(groups[1])
	}
	for _, m := range reYear.FindAllString(text, -1) {
		set.add(m)
	}

	return set.values
}

// maskMatches collects matches into the set and blanks them from the text.
func maskMatches(text string, re *regexp.Regexp, set *orderedSet) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		set.add(m)
		return string(maskRune)
	})
}

// acronymOf builds an acronym from a capitalized multi-word phrase.
// "Large Language Models" → "LLM". Returns "" if out of bounds.
func acronymOf(phrase string) string {
	words := strings.Fields(phrase)
	if len(words) < 2 {
		return ""
	}
	var sb strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		sb.WriteRune(r)
	}
	acronym := sb.String()
	if len(acronym) < 2 || len(acronym) > 6 {
		return ""
	}
	return acronym
}

// orderedSet is an insertion-ordered string set with keyword hygiene applied
// on insert.
type orderedSet struct {
	seen   map[string]bool
	values []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(keyword string) {
	keyword = strings.TrimSpace(keyword)
	keyword = strings.Trim(keyword, "、。,.!?！？:：;；")
	if keyword == "" || strings.ContainsRune(keyword, maskRune) {
		return
	}

	n := utf8.RuneCountInString(keyword)
	if n < minKeywordLen || n > maxKeywordLen {
		return
	}

	lower := strings.ToLower(keyword)
	if s.seen[lower] {
		return
	}
	s.seen[lower] = true
	s.values = append(s.values, keyword)
}
