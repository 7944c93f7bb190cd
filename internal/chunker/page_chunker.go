package chunker

import (
	"medirag/internal/domain"
)

// PageChunker splits page text into fixed-size character spans with a
// configured overlap between consecutive spans.
type PageChunker struct {
	chunkSize int
	overlap   int
}

// NewPageChunker clamps invalid settings the way the rest of the
// pipeline expects: a non-positive size falls back to 500, a negative
// overlap to 0, and an overlap >= size is reduced so spans strictly
// advance.
func NewPageChunker(chunkSize, overlap int) *PageChunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &PageChunker{chunkSize: chunkSize, overlap: overlap}
}

// Split produces the chunks for every page of the document, in page
// order and left-to-right within a page. A page shorter than the chunk
// size yields exactly one chunk with the full page text; empty pages
// yield nothing.
func (c *PageChunker) Split(doc domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for pageIdx, text := range doc.Pages {
		runes := []rune(text)
		if len(runes) == 0 {
			continue
		}
		stride := c.chunkSize - c.overlap
		for start := 0; ; start += stride {
			end := start + c.chunkSize
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, domain.Chunk{
				Text:        string(runes[start:end]),
				SourceTitle: doc.Title,
				Page:        pageIdx + 1,
				StartOffset: start,
			})
			if end == len(runes) {
				break
			}
		}
	}
	return chunks
}
