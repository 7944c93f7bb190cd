package domain

import "context"

// Document represents one source file with page-level text records.
// Title is the filename without its extension and is the dedup key
// used by incremental ingestion.
type Document struct {
	Title string
	Path  string
	Pages []string
}

// Chunk is a bounded-size span of page text, the atomic unit of
// retrieval. Page is 1-based; 0 means unknown.
type Chunk struct {
	Text        string `json:"text"`
	SourceTitle string `json:"source_title"`
	Page        int    `json:"page"`
	StartOffset int    `json:"start_offset"`
}

// SearchResult is one retrieved chunk with its cosine similarity to
// the query vector. Larger score means more similar.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Embedder converts batches of text into fixed-dimension vectors.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// ChatModel produces a text completion from a system instruction and
// a user prompt.
type ChatModel interface {
	GenerateText(ctx context.Context, system, user string) (string, error)
}

// VisionModel answers a text query about a single image.
type VisionModel interface {
	AnalyzeImage(ctx context.Context, query string, image []byte) (string, error)
}

// Transcriber converts spoken audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer converts text into playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
