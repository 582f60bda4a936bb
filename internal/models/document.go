// Package models defines core data structures for documents, chunks, and answers.
package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DocType identifies a supported upload format.
type DocType string

const (
	TypePDF  DocType = "pdf"
	TypeTXT  DocType = "txt"
	TypeCSV  DocType = "csv"
	TypeXLSX DocType = "xlsx"
	TypeDOCX DocType = "docx"
)

// UnsupportedTypeError reports a file whose extension maps to no DocType.
type UnsupportedTypeError struct {
	Filename string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Filename)
}

// ParseDocType maps a filename to its DocType by extension (case-insensitive).
// Returns *UnsupportedTypeError for anything outside the supported set.
func ParseDocType(filename string) (DocType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return TypePDF, nil
	case ".txt":
		return TypeTXT, nil
	case ".csv":
		return TypeCSV, nil
	case ".xlsx":
		return TypeXLSX, nil
	case ".docx":
		return TypeDOCX, nil
	default:
		return "", &UnsupportedTypeError{Filename: filename}
	}
}

// Metadata carries source attribution and type-specific counts for a document.
// Counts are zero when not applicable to the type.
type Metadata struct {
	Source  string  `json:"source"`
	Type    DocType `json:"type"`
	Pages   int     `json:"pages,omitempty"`
	Lines   int     `json:"lines,omitempty"`
	Rows    int     `json:"rows,omitempty"`
	Columns int     `json:"columns,omitempty"`
	Sheets  int     `json:"sheets,omitempty"`
	Words   int     `json:"words,omitempty"`
}

// Document is normalized text produced by the loader. Immutable once created;
// the chunker consumes it and emits smaller copies.
type Document struct {
	Text string   `json:"text"`
	Meta Metadata `json:"metadata"`
}

// Chunk is a bounded-length piece of a document, tagged with its parent's
// source and type metadata.
type Chunk struct {
	ID   string   `json:"id"`
	Text string   `json:"text"`
	Meta Metadata `json:"metadata"`
}
