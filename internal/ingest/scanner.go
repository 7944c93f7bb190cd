package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"medirag/internal/domain"
	"medirag/internal/logger"
)

// Scanner reads PDF reference texts from a source directory and
// produces one page-level text record per physical page.
type Scanner struct {
	log *logger.Logger
}

func NewScanner(log *logger.Logger) *Scanner {
	return &Scanner{log: log}
}

var multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)

// Scan reads every *.pdf in dir. A file that cannot be parsed is
// logged and skipped; the scan continues with the remaining files.
// A missing or unreadable directory fails the whole scan.
func (s *Scanner) Scan(ctx context.Context, dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrIngestIO, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var docs []domain.Document
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		doc, err := s.readPDF(path)
		if err != nil {
			s.log.Warn("skipping unparseable file", "path", path, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Title derives the dedup key for a source file: the base filename
// without its extension.
func Title(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *Scanner) readPDF(path string) (domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrIngestIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrIngestIO, err)
	}
	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrIngestIO, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			s.log.Warn("failed to extract page text", "path", path, "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, cleanPageText(text))
	}

	return domain.Document{
		Title: Title(path),
		Path:  path,
		Pages: pages,
	}, nil
}

func cleanPageText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
