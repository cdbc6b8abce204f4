package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpauljoseph/annotanki/internal/pdf"
	"github.com/kpauljoseph/annotanki/pkg/logger"
)

type Stats struct {
	PDFCount       int
	HighlightCount int
	FailedCount    int
}

type DirectoryScanner struct {
	extractor pdf.HighlightExtractor
	logger    *logger.Logger
}

func New(extractor pdf.HighlightExtractor, logger *logger.Logger) *DirectoryScanner {
	return &DirectoryScanner{
		extractor: extractor,
		logger:    logger,
	}
}

// FindPDFs returns every file with a .pdf extension beneath dir, in lexical
// walk order.
func (s *DirectoryScanner) FindPDFs(ctx context.Context, dir string) ([]string, error) {
	var pdfs []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			s.logger.Debug("Scanning directory: %s", path)
			return nil
		}

		if strings.ToLower(filepath.Ext(path)) != ".pdf" {
			return nil
		}

		pdfs = append(pdfs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(pdfs) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s or its subdirectories", dir)
	}

	return pdfs, nil
}

// ScanDirectory extracts highlights from every PDF beneath dir. A PDF that
// cannot be read is logged and skipped.
func (s *DirectoryScanner) ScanDirectory(ctx context.Context, dir string) ([]pdf.Document, Stats, error) {
	var stats Stats

	paths, err := s.FindPDFs(ctx, dir)
	if err != nil {
		return nil, stats, err
	}

	docs := make([]pdf.Document, 0, len(paths))
	for _, path := range paths {
		stats.PDFCount++
		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			relPath = path
		}
		s.logger.Info("Processing PDF (%d/%d): %s", stats.PDFCount, len(paths), relPath)

		doc, err := s.extractor.Extract(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return docs, stats, err
			}
			s.logger.Error("Error processing %s: %v", relPath, err)
			stats.FailedCount++
			continue
		}

		if len(doc.Highlights) > 0 {
			s.logger.Debug("Found %d highlights in %s", len(doc.Highlights), relPath)
		}
		stats.HighlightCount += len(doc.Highlights)
		docs = append(docs, doc)
	}

	return docs, stats, nil
}
