package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/kotae-dev/kotae/internal/models"
)

// loadCSV renders each data row as "Row <i>: {column: value, ...}" using the
// header row for column names, and records row and column counts.
func loadCSV(content []byte, source string) ([]models.Document, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV %s: %w", source, err)
	}
	if len(records) == 0 {
		return []models.Document{{
			Text: "",
			Meta: models.Metadata{Source: source, Type: models.TypeCSV},
		}}, nil
	}

	header := records[0]
	var b strings.Builder
	for i, row := range records[1:] {
		b.WriteString(fmt.Sprintf("Row %d: {", i))
		for j, val := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			name := fmt.Sprintf("col%d", j)
			if j < len(header) {
				name = header[j]
			}
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(val)
		}
		b.WriteString("}\n")
	}
	return []models.Document{{
		Text: b.String(),
		Meta: models.Metadata{
			Source:  source,
			Type:    models.TypeCSV,
			Rows:    len(records) - 1,
			Columns: len(header),
		},
	}}, nil
}
