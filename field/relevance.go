package field

import (
	"fmt"
	"regexp"
	"strings"
)

// Relevance decides whether a title belongs to the search keyword.
type Relevance int

const (
	RelevanceNone Relevance = iota
	// RelevanceExact requires the whole keyword as a substring.
	RelevanceExact
	// RelevanceTokens requires at least one keyword token.
	RelevanceTokens
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

func ParseRelevance(s string) (Relevance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RelevanceNone, nil
	case "exact":
		return RelevanceExact, nil
	case "tokens", "fuzzy":
		return RelevanceTokens, nil
	}
	return RelevanceNone, fmt.Errorf("unknown relevance policy %q", s)
}

func normalizeWords(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(nonWord.ReplaceAllString(s, " "))), " ")
}

func (r Relevance) Match(title, keyword string) bool {
	kw := normalizeWords(keyword)
	if r == RelevanceNone || kw == "" {
		return true
	}

	t := normalizeWords(title)
	if r == RelevanceExact {
		return strings.Contains(t, kw)
	}

	words := make(map[string]bool)
	for _, w := range strings.Fields(t) {
		words[w] = true
	}
	for _, tok := range strings.Fields(kw) {
		if len([]rune(tok)) < 2 {
			continue
		}
		if words[tok] || words[tok+"s"] || words[strings.TrimSuffix(tok, "s")] {
			return true
		}
	}
	return false
}
