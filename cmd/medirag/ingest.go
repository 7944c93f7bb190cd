package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"medirag/internal/chunker"
	"medirag/internal/ingest"
	"medirag/internal/service"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index new PDF reference texts from the data directory",
	Long: `Scans the configured data directory for PDF files, skips titles that
are already indexed, and merges chunks of the new documents into the
persisted vector index.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	if a.embedder == nil {
		return errors.New("ingestion needs the embedding provider; set the configured API key")
	}

	svc := service.NewIngestService(
		ingest.NewScanner(a.log),
		chunker.NewPageChunker(a.cfg.Chunker.ChunkSize, a.cfg.Chunker.Overlap),
		a.embedder,
		a.index,
		a.cfg.DataDir,
		a.cfg.IndexPath,
		a.cfg.Embedder.BatchSize,
		a.cfg.Embedder.Concurrency,
		a.log,
	)
	report, err := svc.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Scanned %d documents: %d already indexed, %d failed, %d chunks added.\n",
		report.Scanned, report.Skipped, report.Failed, report.ChunksAdded)
	fmt.Printf("Index now holds %d chunks.\n", a.index.Len())
	return nil
}
