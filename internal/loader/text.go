package loader

import (
	"strings"
	"unicode/utf8"

	"github.com/kotae-dev/kotae/internal/models"
)

// loadTXT returns the content verbatim as UTF-8 and records the line count.
// Invalid UTF-8 sequences are replaced with the replacement character.
func loadTXT(content []byte, source string) ([]models.Document, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return []models.Document{{
		Text: text,
		Meta: models.Metadata{
			Source: source,
			Type:   models.TypeTXT,
			Lines:  strings.Count(text, "\n") + 1,
		},
	}}, nil
}
