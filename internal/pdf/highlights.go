package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	rscpdf "rsc.io/pdf"

	"github.com/kpauljoseph/annotanki/pkg/logger"
	"github.com/kpauljoseph/annotanki/pkg/models"
)

const HighlightSubtype = "Highlight"

// Rect is an annotation rectangle in PDF user space, normalised so that
// X1 <= X2 and Y1 <= Y2.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

func NewRect(x1, y1, x2, y2 float64) Rect {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2
}

// Highlight is one highlight annotation: the text under its rectangle and
// the comment attached to it. Page is 1-based.
type Highlight struct {
	Page    int
	Rect    Rect
	Text    string
	Comment string
}

// Flashcard uses the highlighted text as the question and the comment, if
// any, as the answer.
func (h Highlight) Flashcard() models.Flashcard {
	return models.Flashcard{
		Front: h.Text,
		Back:  h.Comment,
	}
}

type Document struct {
	Path       string
	Title      string
	Highlights []Highlight
}

func (d Document) Flashcards() []models.Flashcard {
	cards := make([]models.Flashcard, 0, len(d.Highlights))
	for _, h := range d.Highlights {
		cards = append(cards, h.Flashcard())
	}
	return cards
}

type Extractor struct {
	logger *logger.Logger
	titles func(path string) (string, error)
}

func NewExtractor(logger *logger.Logger) *Extractor {
	return &Extractor{
		logger: logger,
		titles: DocumentTitle,
	}
}

// Extract walks every page of the PDF at pdfPath and returns its highlight
// annotations in page order.
func (e *Extractor) Extract(ctx context.Context, pdfPath string) (doc Document, err error) {
	e.logger.Debug("Processing PDF: %s", pdfPath)

	f, err := os.Open(pdfPath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat PDF: %w", err)
	}

	// rsc.io/pdf panics on some malformed objects and content streams.
	defer func() {
		if r := recover(); r != nil {
			doc = Document{}
			err = fmt.Errorf("failed to read PDF %s: %v", pdfPath, r)
		}
	}()

	reader, err := rscpdf.NewReader(f, info.Size())
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse PDF: %w", err)
	}

	doc = Document{
		Path:  pdfPath,
		Title: e.title(pdfPath),
	}

	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		select {
		case <-ctx.Done():
			return Document{}, ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			e.logger.Debug("Skipping null page %d", pageNum)
			continue
		}

		highlights := e.pageHighlights(page, pageNum)
		if len(highlights) > 0 {
			e.logger.Debug("Found %d highlights on page %d", len(highlights), pageNum)
		}
		doc.Highlights = append(doc.Highlights, highlights...)
	}

	return doc, nil
}

func (e *Extractor) pageHighlights(page rscpdf.Page, pageNum int) []Highlight {
	annots := page.V.Key("Annots")

	var (
		highlights []Highlight
		glyphs     []rscpdf.Text
		loaded     bool
	)

	for i := 0; i < annots.Len(); i++ {
		annot := annots.Index(i)
		if annot.Key("Subtype").Name() != HighlightSubtype {
			continue
		}

		rect, ok := rectFromValue(annot.Key("Rect"))
		if !ok {
			e.logger.Debug("Skipping highlight %d on page %d: malformed /Rect", i, pageNum)
			continue
		}

		// Content streams are only decoded for pages that carry highlights.
		if !loaded {
			glyphs = page.Content().Text
			loaded = true
		}

		text := TextInRect(glyphs, rect)
		e.logger.Trace("Page %d highlight %v: %q", pageNum, rect, text)

		highlights = append(highlights, Highlight{
			Page:    pageNum,
			Rect:    rect,
			Text:    text,
			Comment: strings.TrimSpace(annot.Key("Contents").Text()),
		})
	}

	return highlights
}

func (e *Extractor) title(pdfPath string) string {
	if e.titles != nil {
		title, err := e.titles(pdfPath)
		if err != nil {
			e.logger.Debug("Could not read metadata of %s: %v", pdfPath, err)
		} else if title != "" {
			return title
		}
	}
	return strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
}

func rectFromValue(v rscpdf.Value) (Rect, bool) {
	if v.Kind() != rscpdf.Array || v.Len() != 4 {
		return Rect{}, false
	}
	var n [4]float64
	for i := range n {
		x := v.Index(i)
		if x.Kind() != rscpdf.Integer && x.Kind() != rscpdf.Real {
			return Rect{}, false
		}
		n[i] = x.Float64()
	}
	return NewRect(n[0], n[1], n[2], n[3]), true
}
