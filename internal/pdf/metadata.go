package pdf

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// DocumentTitle reads the title from the PDF's info dictionary. It returns
// an empty string when the document has no title.
func DocumentTitle(pdfPath string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return cleanMetadataValue(doc.Metadata()["title"]), nil
}

// Metadata returns the document's info dictionary plus its page count.
func Metadata(pdfPath string) (map[string]string, int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	raw := doc.Metadata()
	meta := make(map[string]string, len(raw))
	for k, v := range raw {
		meta[k] = cleanMetadataValue(v)
	}
	return meta, doc.NumPage(), nil
}

// go-fitz hands every info value back in a fixed-size buffer padded with NULs.
func cleanMetadataValue(v string) string {
	if i := strings.IndexByte(v, 0); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
