package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/kotae-dev/kotae/internal/models"
	"github.com/xuri/excelize/v2"
)

// loadXLSX renders every sheet's data rows in the CSV row style, using each
// sheet's first row for column names, and records row and sheet counts.
func loadXLSX(content []byte, source string) ([]models.Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open XLSX %s: %w", source, err)
	}
	defer f.Close()

	var b strings.Builder
	totalRows := 0
	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q of %s: %w", sheet, source, err)
		}
		if len(rows) == 0 {
			continue
		}
		if len(sheets) > 1 {
			b.WriteString("Sheet ")
			b.WriteString(sheet)
			b.WriteString(":\n")
		}
		header := rows[0]
		for i, row := range rows[1:] {
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
			totalRows++
		}
	}
	return []models.Document{{
		Text: b.String(),
		Meta: models.Metadata{
			Source: source,
			Type:   models.TypeXLSX,
			Rows:   totalRows,
			Sheets: len(sheets),
		},
	}}, nil
}
