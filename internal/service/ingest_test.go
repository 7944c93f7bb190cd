package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medirag/internal/chunker"
	"medirag/internal/domain"
	"medirag/internal/logger"
	"medirag/internal/vectorstore/flat"
)

type fakeScanner struct {
	docs []domain.Document
}

func (f *fakeScanner) Scan(ctx context.Context, dir string) ([]domain.Document, error) {
	return f.docs, nil
}

// fakeEmbedder produces deterministic vectors and counts texts it saw.
type fakeEmbedder struct {
	mu       sync.Mutex
	embedded int
	failFor  string
}

func (f *fakeEmbedder) Name() string   { return "fake" }
func (f *fakeEmbedder) Dimension() int { return 3 }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if f.failFor != "" && strings.Contains(text, f.failFor) {
			return nil, fmt.Errorf("%w: provider unavailable", domain.ErrEmbedding)
		}
		out[i] = []float64{float64(len(text)), 1, 0}
		f.embedded++
	}
	return out, nil
}

func testDocs() []domain.Document {
	return []domain.Document{
		{Title: "Pharma101", Pages: []string{strings.Repeat("aspirin reduces fever. ", 30)}},
		{Title: "Anatomy", Pages: []string{strings.Repeat("the femur is a long bone. ", 30)}},
	}
}

func newTestService(t *testing.T, scanner Scanner, emb domain.Embedder, index *flat.Store) *IngestService {
	t.Helper()
	return NewIngestService(
		scanner,
		chunker.NewPageChunker(100, 10),
		emb,
		index,
		"data",
		filepath.Join(t.TempDir(), "index.json"),
		8,
		2,
		logger.Nop(),
	)
}

func TestIngestRun(t *testing.T) {
	index := flat.New()
	emb := &fakeEmbedder{}
	svc := newTestService(t, &fakeScanner{docs: testDocs()}, emb, index)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, index.Len(), report.ChunksAdded)
	assert.Greater(t, report.ChunksAdded, 0)
	assert.Equal(t, map[string]struct{}{"Pharma101": {}, "Anatomy": {}}, index.Titles())
}

func TestIngestIsIdempotent(t *testing.T) {
	index := flat.New()
	emb := &fakeEmbedder{}
	scanner := &fakeScanner{docs: testDocs()}
	svc := newTestService(t, scanner, emb, index)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	sizeAfterFirst := index.Len()
	embeddedAfterFirst := emb.embedded

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.ChunksAdded)
	assert.Equal(t, sizeAfterFirst, index.Len())
	assert.Equal(t, embeddedAfterFirst, emb.embedded, "no embedding calls on an unchanged corpus")
}

func TestIngestIsolatesFailingDocument(t *testing.T) {
	index := flat.New()
	emb := &fakeEmbedder{failFor: "femur"}
	svc := newTestService(t, &fakeScanner{docs: testDocs()}, emb, index)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Greater(t, report.ChunksAdded, 0)

	titles := index.Titles()
	_, ok := titles["Pharma101"]
	assert.True(t, ok)
	_, ok = titles["Anatomy"]
	assert.False(t, ok, "failed document must not reach the index")
}

func TestIngestRetriesFailedDocumentNextRun(t *testing.T) {
	index := flat.New()
	emb := &fakeEmbedder{failFor: "femur"}
	scanner := &fakeScanner{docs: testDocs()}
	svc := newTestService(t, scanner, emb, index)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	emb.failFor = ""
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Greater(t, report.ChunksAdded, 0)
	_, ok := index.Titles()["Anatomy"]
	assert.True(t, ok)
}

func TestIngestPersistsIndex(t *testing.T) {
	index := flat.New()
	path := filepath.Join(t.TempDir(), "index.json")
	svc := NewIngestService(
		&fakeScanner{docs: testDocs()},
		chunker.NewPageChunker(100, 10),
		&fakeEmbedder{},
		index,
		"data",
		path,
		8,
		2,
		logger.Nop(),
	)
	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	loaded, err := flat.Load(path)
	require.NoError(t, err)
	assert.Equal(t, index.Len(), loaded.Len())
	assert.Equal(t, index.Titles(), loaded.Titles())
}
