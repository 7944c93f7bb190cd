package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"medirag/internal/chunker"
	"medirag/internal/domain"
	"medirag/internal/logger"
	"medirag/internal/vectorstore"
)

// Scanner yields the source documents found in a directory.
type Scanner interface {
	Scan(ctx context.Context, dir string) ([]domain.Document, error)
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Scanned     int
	Skipped     int
	Failed      int
	ChunksAdded int
}

// IngestService runs the incremental ingestion pipeline: scan the
// source directory, drop documents whose title is already indexed,
// chunk and embed the rest, merge into the index and persist it.
type IngestService struct {
	scanner     Scanner
	chunker     *chunker.PageChunker
	embedder    domain.Embedder
	index       vectorstore.Index
	dataDir     string
	indexPath   string
	batchSize   int
	concurrency int
	log         *logger.Logger
}

func NewIngestService(
	scanner Scanner,
	ch *chunker.PageChunker,
	embedder domain.Embedder,
	index vectorstore.Index,
	dataDir, indexPath string,
	batchSize, concurrency int,
	log *logger.Logger,
) *IngestService {
	if batchSize <= 0 {
		batchSize = 32
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &IngestService{
		scanner:     scanner,
		chunker:     ch,
		embedder:    embedder,
		index:       index,
		dataDir:     dataDir,
		indexPath:   indexPath,
		batchSize:   batchSize,
		concurrency: concurrency,
		log:         log,
	}
}

// Run ingests new documents. An embedding failure drops the whole
// document so the index never contains chunks without embeddings; the
// title stays un-ingested and the next run retries it. The index is
// persisted only after all merges succeed, and only when something new
// was added.
func (s *IngestService) Run(ctx context.Context) (IngestReport, error) {
	var report IngestReport

	existing := s.index.Titles()

	docs, err := s.scanner.Scan(ctx, s.dataDir)
	if err != nil {
		return report, err
	}
	report.Scanned = len(docs)

	for _, doc := range docs {
		if _, ok := existing[doc.Title]; ok {
			report.Skipped++
			continue
		}
		chunks := s.chunker.Split(doc)
		if len(chunks) == 0 {
			s.log.Warn("document produced no chunks", "title", doc.Title)
			report.Skipped++
			continue
		}
		vectors, err := s.embedChunks(ctx, chunks)
		if err != nil {
			s.log.Warn("embedding failed, document skipped", "title", doc.Title, "error", err)
			report.Failed++
			continue
		}
		if err := s.index.Merge(chunks, vectors); err != nil {
			return report, fmt.Errorf("merging %s: %w", doc.Title, err)
		}
		report.ChunksAdded += len(chunks)
		s.log.Info("document ingested", "title", doc.Title, "chunks", len(chunks))
	}

	if report.ChunksAdded > 0 {
		if err := s.index.Save(s.indexPath); err != nil {
			return report, fmt.Errorf("saving index: %w", err)
		}
	}
	return report, nil
}

// embedChunks embeds all chunks of one document in batches, running up
// to the configured number of batches concurrently. Every vector lands
// at the slice position of its chunk, so ordering never depends on
// batch completion order.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float64, error) {
	vectors := make([][]float64, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		start, end := start, end
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, ch := range chunks[start:end] {
				texts = append(texts, ch.Text)
			}
			batch, err := s.embedder.Embed(gctx, texts)
			if err != nil {
				return err
			}
			if len(batch) != end-start {
				return fmt.Errorf("%w: expected %d vectors, got %d", domain.ErrEmbedding, end-start, len(batch))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
