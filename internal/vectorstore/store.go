package vectorstore

import "medirag/internal/domain"

// Index is the corpus index: every ingested chunk with its embedding,
// searchable by vector similarity and persisted between runs.
type Index interface {
	// Titles returns the distinct source titles already represented.
	Titles() map[string]struct{}
	// Merge appends chunks with their vectors. Append-only: it never
	// removes or overwrites existing entries, and an empty input is a
	// no-op.
	Merge(chunks []domain.Chunk, vectors [][]float64) error
	// Search returns the k entries most similar to the query vector,
	// ordered by descending cosine similarity. An empty index or
	// k <= 0 yields an empty result.
	Search(vector []float64, k int) []domain.SearchResult
	// Save persists the full index state to path.
	Save(path string) error
	// Len reports the number of stored chunks.
	Len() int
	// Dimension reports the embedding dimension, 0 while empty.
	Dimension() int
}
