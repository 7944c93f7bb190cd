package answer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"medirag/internal/domain"
)

func result(title, text string, page int, score float64) domain.SearchResult {
	return domain.SearchResult{
		Chunk: domain.Chunk{Text: text, SourceTitle: title, Page: page},
		Score: score,
	}
}

func TestComposePromptLabelsSources(t *testing.T) {
	prompt := ComposePrompt("does aspirin reduce fever?", []domain.SearchResult{
		result("Pharma101", "Aspirin reduces fever.", 3, 0.92),
	}, 800)

	assert.Contains(t, prompt, "Source 1 (Pharma101, p. 3): Aspirin reduces fever.")
	assert.Contains(t, prompt, "Question: does aspirin reduce fever?")
	assert.Contains(t, prompt, "Use ONLY the information in the Documents section")
}

func TestComposePromptRankOrder(t *testing.T) {
	prompt := ComposePrompt("q", []domain.SearchResult{
		result("BookA", "first", 1, 0.9),
		result("BookB", "second", 7, 0.5),
	}, 800)

	first := strings.Index(prompt, "Source 1 (BookA, p. 1)")
	second := strings.Index(prompt, "Source 2 (BookB, p. 7)")
	assert.Greater(t, first, -1)
	assert.Greater(t, second, first)
}

func TestComposePromptTruncatesChunks(t *testing.T) {
	long := strings.Repeat("x", 2000)
	prompt := ComposePrompt("q", []domain.SearchResult{result("Book", long, 1, 0.5)}, 800)
	assert.NotContains(t, prompt, strings.Repeat("x", 801))
	assert.Contains(t, prompt, strings.Repeat("x", 800))
}

func TestComposePromptUnknownPage(t *testing.T) {
	prompt := ComposePrompt("q", []domain.SearchResult{result("Book", "text", 0, 0.5)}, 800)
	assert.Contains(t, prompt, "Source 1 (Book, p. N/A): text")
}
