package loader

import (
	"bytes"
	"fmt"

	"github.com/kotae-dev/kotae/internal/models"
	"github.com/ledongthuc/pdf"
)

// loadPDF extracts text per page, joined with newlines, and records the page
// count in metadata.
func loadPDF(content []byte, source string) ([]models.Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF %s: %w", source, err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i+1, source, err)
		}
		buf.WriteString(text)
		buf.WriteByte('\n')
	}
	return []models.Document{{
		Text: buf.String(),
		Meta: models.Metadata{Source: source, Type: models.TypePDF, Pages: numPages},
	}}, nil
}
