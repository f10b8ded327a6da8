package services

import (
	"strings"
	"unicode"
)

// Scoring weights. Exact filename matches dominate, path matches come
// next, token and content-fragment matches add smaller bonuses. A
// result with zero score is not a match and is excluded.
const (
	weightNameMatch     = 100.0
	weightPathMatch     = 40.0
	weightTokenMatch    = 25.0
	weightFragmentMatch = 10.0
)

// snippetWindow is the width in runes of the context window extracted
// around the earliest keyword hit.
const snippetWindow = 160

// ellipsis marks a clipped snippet boundary.
const ellipsis = "…"

// scoreMatch computes the client-observable relevance score for one
// candidate, independent of the opaque engine's internal scoring.
// name and path are matched case-insensitively against the keyword;
// content may be empty; boost is additive.
func scoreMatch(keyword, name, path, content string, boost float64) (float64, string) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return 0, ""
	}

	var score float64
	nameLower := strings.ToLower(name)
	pathLower := strings.ToLower(path)

	if strings.Contains(nameLower, keyword) {
		score += weightNameMatch
	}
	if strings.Contains(pathLower, keyword) {
		score += weightPathMatch
	}

	// Exact token match against path segments and name tokens.
	for _, tok := range tokenize(pathLower) {
		if tok == keyword {
			score += weightTokenMatch
			break
		}
	}

	var snippet string
	if content != "" {
		normalized := collapseWhitespace(content)
		if hit := runeIndexFold(normalized, keyword); hit >= 0 {
			score += weightFragmentMatch
			snippet = extractSnippet(normalized, hit, len([]rune(keyword)))
		}
	}

	if score > 0 {
		score += boost
	}
	return score, snippet
}

// runeIndexFold returns the rune offset of the first case-insensitive
// occurrence of keyword in s, or -1. keyword must already be
// lower-cased. Matching is rune-wise: lower-casing can change a rune's
// byte length, so a byte index into a lowered copy is not a valid
// offset into s.
func runeIndexFold(s, keyword string) int {
	want := []rune(keyword)
	if len(want) == 0 {
		return -1
	}
	runes := []rune(s)
	for i := 0; i+len(want) <= len(runes); i++ {
		match := true
		for j, w := range want {
			if unicode.ToLower(runes[i+j]) != w {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// extractSnippet centres a fixed-width window around the hit at rune
// offset hit in content, prefixing/suffixing an ellipsis when the
// window does not span the full content.
func extractSnippet(content string, hit, keywordLen int) string {
	runes := []rune(content)

	start := hit + keywordLen/2 - snippetWindow/2
	if start < 0 {
		start = 0
	}
	end := start + snippetWindow
	if end > len(runes) {
		end = len(runes)
		start = end - snippetWindow
		if start < 0 {
			start = 0
		}
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = ellipsis + snippet
	}
	if end < len(runes) {
		snippet += ellipsis
	}
	return snippet
}

// collapseWhitespace normalizes all whitespace runs to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tokenize splits a string on non-alphanumeric boundaries.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
