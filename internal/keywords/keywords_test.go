package keywords

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestExtract_EnglishTitle(t *testing.T) {
	got := Extract("Building LLM Apps with Go in 2024 #golang", "")

	assert.Contains(t, got, "LLM")
	assert.Contains(t, got, "golang")
	assert.Contains(t, got, "2024")
}

func TestExtract_KatakanaBrandAndBrackets(t *testing.T) {
	got := Extract("ポケモンGOの攻略方法「レイドバトル」", "")

	assert.Contains(t, got, "ポケモンGO")
	assert.Contains(t, got, "レイドバトル")
	assert.Contains(t, got, "攻略方法")
}

func TestExtract_CorporateSuffixes(t *testing.T) {
	got := Extract("トヨタ株式会社のニュース", "")
	assert.Contains(t, got, "トヨタ株式会社")
	assert.Contains(t, got, "ニュース")

	got = Extract("Acme Corp. announces a new product", "")
	assert.Contains(t, got, "Acme Corp")
}

func TestExtract_AcronymGeneration(t *testing.T) {
	got := Extract("An introduction to Large Language Models", "")
	assert.Contains(t, got, "LLM")
}

func TestExtract_WidthNormalization(t *testing.T) {
	// Full-width Latin letters fold to ASCII before matching.
	got := Extract("ＡＷＳ入門ガイド", "")
	assert.Contains(t, got, "AWS")
}

func TestExtract_Hashtags(t *testing.T) {
	got := Extract("今日のまとめ", "check #読書 and #reading")
	assert.Contains(t, got, "読書")
	assert.Contains(t, got, "reading")
}

func TestExtract_Deduplicates(t *testing.T) {
	got := Extract("GraphQL tips #GraphQL", "more about GRAPHQL")

	count := 0
	for _, k := range got {
		if strings.EqualFold(k, "graphql") {
			count++
		}
	}
	assert.Equal(t, 1, count, "case-insensitive duplicates must collapse: %v", got)
}

func TestExtract_LengthBounds(t *testing.T) {
	long := strings.Repeat("あ", 35)
	inputs := [][2]string{
		{"「" + long + "」", ""},
		{"Building LLM Apps with Go in 2024 #golang", "a description"},
		{"ポケモンGOの攻略方法「レイドバトル」", "トヨタ株式会社のニュース"},
		{"", ""},
	}

	for _, in := range inputs {
		for _, k := range Extract(in[0], in[1]) {
			n := utf8.RuneCountInString(k)
			assert.GreaterOrEqual(t, n, 1, "keyword %q from %q", k, in[0])
			assert.LessOrEqual(t, n, 30, "keyword %q from %q", k, in[0])
		}
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	assert.Empty(t, Extract("", ""))
}
