package pdf

import (
	"context"
)

type HighlightExtractor interface {
	Extract(ctx context.Context, pdfPath string) (Document, error)
}
