package answer

import (
	"fmt"
	"strings"

	"medirag/internal/domain"
)

// SystemPrompt constrains the model to answer only from the supplied
// documents and to keep citations out of the answer body.
const SystemPrompt = "You are a concise, factual medical assistant. " +
	"Answer the user's question using ONLY the provided documents. " +
	"Do NOT include book titles, page numbers, source citations, or any 'Source' text inside the answer body. " +
	"Provide a clear single best answer in plain language (2-6 sentences). " +
	"If the documents do not contain enough information to be certain, say you are unsure."

// ComposePrompt builds the bounded-size context prompt: one labeled
// block per retrieved chunk in rank order, each truncated to maxChars,
// followed by the literal question and the instruction to use only the
// documents.
func ComposePrompt(question string, results []domain.SearchResult, maxChars int) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		text := strings.TrimSpace(r.Chunk.Text)
		if maxChars > 0 {
			runes := []rune(text)
			if len(runes) > maxChars {
				text = string(runes[:maxChars])
			}
		}
		blocks = append(blocks, fmt.Sprintf("Source %d (%s, p. %s): %s", i+1, r.Chunk.SourceTitle, PageLabel(r.Chunk.Page), text))
	}
	context := strings.Join(blocks, "\n\n")

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("Use ONLY the information in the Documents section to answer the question. Keep your answer concise and in plain language.\n\n")
	b.WriteString("Documents:\n")
	b.WriteString(context)
	b.WriteString("\n")
	return b.String()
}

// PageLabel renders a 1-based page number, with "N/A" for unknown.
func PageLabel(page int) string {
	if page <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", page)
}
