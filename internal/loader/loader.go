// Package loader converts uploaded file bytes into normalized documents with
// source and type metadata.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/kotae-dev/kotae/internal/models"
)

// Loader stages uploaded bytes to a temp file and dispatches to the typed
// reader for the file's format.
type Loader struct {
	stageDir string
}

// NewLoader creates a loader staging files under dir. An empty dir uses the
// system temp directory.
func NewLoader(dir string) *Loader {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Loader{stageDir: dir}
}

// Load converts file bytes into documents. The declared filename selects the
// format and becomes the documents' source attribution. A parse failure
// returns nil documents and the error; it never leaves staged bytes behind.
func (l *Loader) Load(data []byte, filename string) ([]models.Document, error) {
	docType, err := models.ParseDocType(filename)
	if err != nil {
		return nil, err
	}

	// Stage to transient storage for the duration of parsing. The staged copy
	// is removed on every exit path.
	staged := filepath.Join(l.stageDir, fmt.Sprintf("stage_%s_%s", uuid.New().String()[:8], filepath.Base(filename)))
	if err := os.WriteFile(staged, data, 0600); err != nil {
		return nil, fmt.Errorf("stage file: %w", err)
	}
	defer os.Remove(staged)

	content, err := os.ReadFile(staged)
	if err != nil {
		return nil, fmt.Errorf("read staged file: %w", err)
	}

	source := filepath.Base(filename)
	switch docType {
	case models.TypePDF:
		return loadPDF(content, source)
	case models.TypeTXT:
		return loadTXT(content, source)
	case models.TypeCSV:
		return loadCSV(content, source)
	case models.TypeXLSX:
		return loadXLSX(content, source)
	case models.TypeDOCX:
		return loadDOCX(content, source)
	}
	return nil, &models.UnsupportedTypeError{Filename: filename}
}
