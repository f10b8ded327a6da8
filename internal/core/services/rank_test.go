package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
)

func TestScoreMatch_NameMatchDominates(t *testing.T) {
	nameScore, _ := scoreMatch("parser", "parser.go", "pkg/other.go", "", 0)
	pathScore, _ := scoreMatch("parser", "other.go", "pkg/parser/other.go", "", 0)

	assert.Greater(t, nameScore, pathScore)
}

func TestScoreMatch_Weights(t *testing.T) {
	// Name, path, and token all match.
	score, _ := scoreMatch("parser", "parser.go", "pkg/parser/parser.go", "", 0)
	assert.Equal(t, weightNameMatch+weightPathMatch+weightTokenMatch, score)

	// Path substring only, no full token.
	score, _ = scoreMatch("parse", "other.go", "pkg/parser/other.go", "", 0)
	assert.Equal(t, weightPathMatch, score)
}

func TestScoreMatch_ContentFragment(t *testing.T) {
	score, snippet := scoreMatch("lexer", "other.go", "pkg/other.go", "the lexer emits tokens", 0)

	assert.Equal(t, weightFragmentMatch, score)
	assert.Contains(t, snippet, "lexer")
}

func TestScoreMatch_BoostIsAdditive(t *testing.T) {
	base, _ := scoreMatch("parser", "parser.go", "parser.go", "", 0)
	boosted, _ := scoreMatch("parser", "parser.go", "parser.go", "", 7.5)

	assert.Equal(t, base+7.5, boosted)
}

func TestScoreMatch_NoMatchNoBoost(t *testing.T) {
	score, snippet := scoreMatch("parser", "other.go", "pkg/other.go", "", 100)

	assert.Zero(t, score, "boost must not rescue a zero-score result")
	assert.Empty(t, snippet)
}

func TestScoreMatch_CaseInsensitive(t *testing.T) {
	score, _ := scoreMatch("PARSER", "Parser.go", "PKG/Parser.go", "", 0)
	assert.Positive(t, score)
}

func TestScoreMatch_CaseMappingChangesByteLength(t *testing.T) {
	// 'Ⱥ' (U+023A) is 2 bytes; its lower-case 'ⱥ' (U+2C65) is 3. A hit
	// located in a lowered copy must still index the original safely.
	score, snippet := scoreMatch("lexer", "other.go", "pkg/other.go", "ȺȺȺȺ the Lexer emits tokens", 0)

	assert.Equal(t, weightFragmentMatch, score)
	assert.Contains(t, snippet, "Lexer", "snippet keeps the original casing")
	assert.Contains(t, snippet, "Ⱥ")
}

func TestRuneIndexFold(t *testing.T) {
	assert.Equal(t, 5, runeIndexFold("ȺȺȺȺ Lexer", "lexer"))
	assert.Equal(t, 0, runeIndexFold("Lexer", "lexer"))
	assert.Equal(t, -1, runeIndexFold("nothing here", "lexer"))
	assert.Equal(t, -1, runeIndexFold("anything", ""))
}

func TestExtractSnippet_ShortContentUnclipped(t *testing.T) {
	content := "a short line mentioning lexer once"
	idx := strings.Index(content, "lexer")

	snippet := extractSnippet(content, idx, len("lexer"))

	assert.Equal(t, content, snippet)
	assert.NotContains(t, snippet, ellipsis)
}

func TestExtractSnippet_WindowedWithEllipsis(t *testing.T) {
	content := strings.Repeat("x ", 200) + "lexer" + strings.Repeat(" y", 200)
	idx := strings.Index(content, "lexer")

	snippet := extractSnippet(content, idx, len("lexer"))

	assert.Contains(t, snippet, "lexer")
	assert.True(t, strings.HasPrefix(snippet, ellipsis))
	assert.True(t, strings.HasSuffix(snippet, ellipsis))
	// Window plus two ellipsis runes.
	assert.Equal(t, snippetWindow+2, len([]rune(snippet)))
}

func TestExtractSnippet_HitNearStart(t *testing.T) {
	content := "lexer " + strings.Repeat("z ", 300)
	snippet := extractSnippet(content, 0, len("lexer"))

	assert.True(t, strings.HasPrefix(snippet, "lexer"))
	assert.True(t, strings.HasSuffix(snippet, ellipsis))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", collapseWhitespace("a\n\n  b\t\tc "))
}

func TestSortResults_Deterministic(t *testing.T) {
	items := []domain.SearchResultItem{
		{Branch: "develop", Path: "b.go", Score: 10},
		{Branch: "main", Path: "a.go", Score: 10},
		{Branch: "main", Path: "b.go", Score: 10},
		{Branch: "main", Path: "c.go", Score: 50},
	}

	domain.SortResults(items)

	assert.Equal(t, "c.go", items[0].Path)
	assert.Equal(t, "a.go", items[1].Path)
	assert.Equal(t, "b.go", items[2].Path)
	assert.Equal(t, "develop", items[2].Branch, "branch breaks path ties")
	assert.Equal(t, "main", items[3].Branch)
}
