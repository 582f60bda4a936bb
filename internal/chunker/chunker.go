// Package chunker splits document text into bounded, overlapping chunks for
// retrieval indexing.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kotae-dev/kotae/internal/models"
)

// separators is the boundary preference order: paragraph break, line break,
// sentence-ending punctuation, word break. Hard character splitting is the
// last resort when none of these appear in the window.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Splitter produces chunks no longer than maxSize characters, with consecutive
// chunks from the same document overlapping by overlap characters.
type Splitter struct {
	maxSize int
	overlap int
}

// NewSplitter creates a splitter with the given chunk size and overlap (in characters).
func NewSplitter(maxSize, overlap int) *Splitter {
	if maxSize <= 0 {
		maxSize = 800
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Splitter{maxSize: maxSize, overlap: overlap}
}

// Split breaks a document into chunks carrying the parent's metadata.
// Whitespace-only text yields nil; text within maxSize yields a single chunk
// with no overlap applied. Chunks cover the source text contiguously: the
// overlap region is repeated, nothing is dropped. All offsets are character
// (rune) positions, so multi-byte text is never cut mid-rune.
func (s *Splitter) Split(doc models.Document) []models.Chunk {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}
	text := []rune(doc.Text)
	var chunks []models.Chunk
	start := 0
	for start < len(text) {
		if len(text)-start <= s.maxSize {
			chunks = append(chunks, s.newChunk(doc, string(text[start:])))
			break
		}
		cut := breakPoint(string(text[start : start+s.maxSize]))
		if cut <= 0 {
			cut = s.maxSize
		}
		chunks = append(chunks, s.newChunk(doc, string(text[start:start+cut])))
		next := start + cut - s.overlap
		if next <= start {
			// Overlap would swallow the whole chunk; step past it instead.
			next = start + cut
		}
		start = next
	}
	return chunks
}

func (s *Splitter) newChunk(doc models.Document, text string) models.Chunk {
	return models.Chunk{
		ID:   uuid.New().String(),
		Text: text,
		Meta: doc.Meta,
	}
}

// breakPoint returns the character offset just past the strongest boundary in
// window, or 0 when no boundary exists. Boundaries at position 0 are skipped
// so every chunk is non-empty.
func breakPoint(window string) int {
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			// Separators are ASCII, so idx+len(sep) sits on a rune boundary.
			return utf8.RuneCountInString(window[:idx+len(sep)])
		}
	}
	return 0
}
