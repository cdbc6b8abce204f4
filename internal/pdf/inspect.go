package pdf

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

type PageSummary struct {
	Page       int
	Width      float64
	Height     float64
	Highlights int
}

// Summary describes a PDF for the inspect tool: structural validity as
// judged by pdfcpu, page geometry, info dictionary and highlight counts.
type Summary struct {
	Path          string
	Title         string
	Metadata      map[string]string
	Pages         []PageSummary
	Highlights    int
	ValidationErr error
}

// Validate runs pdfcpu's relaxed validation over the file.
func Validate(pdfPath string) error {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.ValidateFile(pdfPath, conf)
}

func Inspect(ctx context.Context, pdfPath string, extractor HighlightExtractor) (Summary, error) {
	summary := Summary{Path: pdfPath}
	summary.ValidationErr = Validate(pdfPath)

	disableConfigDir.Do(api.DisableConfigDir)
	dims, err := api.PageDimsFile(pdfPath)
	if err != nil {
		return summary, fmt.Errorf("failed to get page dimensions: %w", err)
	}

	for i, dim := range dims {
		summary.Pages = append(summary.Pages, PageSummary{
			Page:   i + 1,
			Width:  dim.Width,
			Height: dim.Height,
		})
	}

	meta, _, err := Metadata(pdfPath)
	if err != nil {
		return summary, err
	}
	summary.Metadata = meta

	doc, err := extractor.Extract(ctx, pdfPath)
	if err != nil {
		return summary, err
	}
	summary.Title = doc.Title
	summary.Highlights = len(doc.Highlights)

	for _, h := range doc.Highlights {
		if h.Page >= 1 && h.Page <= len(summary.Pages) {
			summary.Pages[h.Page-1].Highlights++
		}
	}

	return summary, nil
}
