package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kotae-dev/kotae/internal/models"
)

func doc(text string) models.Document {
	return models.Document{Text: text, Meta: models.Metadata{Source: "policy.txt", Type: models.TypeTXT}}
}

func TestSplit_Empty(t *testing.T) {
	s := NewSplitter(800, 150)
	if got := s.Split(doc("")); got != nil {
		t.Errorf("empty text: got %v, want nil", got)
	}
	if got := s.Split(doc("  \n\t ")); got != nil {
		t.Errorf("whitespace text: got %v, want nil", got)
	}
}

func TestSplit_SingleChunk(t *testing.T) {
	s := NewSplitter(800, 150)
	chunks := s.Split(doc("Remote work is allowed two days per week."))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Remote work is allowed two days per week." {
		t.Errorf("chunk text altered: %q", chunks[0].Text)
	}
	if chunks[0].Meta.Source != "policy.txt" {
		t.Errorf("metadata not carried: %+v", chunks[0].Meta)
	}
	if chunks[0].ID == "" {
		t.Error("chunk ID should be set")
	}
}

func TestSplit_OverlapScenario(t *testing.T) {
	// Ingest scenario from the retrieval design: maxSize=10, overlap=2.
	s := NewSplitter(10, 2)
	chunks := s.Split(doc("A cat sat. A dog ran."))
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Text) > 10 {
			t.Errorf("chunk %d exceeds max size: %d chars", i, len(ch.Text))
		}
	}
	first, second := chunks[0].Text, chunks[1].Text
	tail := first[len(first)-2:]
	if !strings.HasPrefix(second, tail) {
		t.Errorf("second chunk %q does not start with tail %q of first %q", second, tail, first)
	}
}

func TestSplit_NoCharactersDropped(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog and keeps on running far away."
	s := NewSplitter(20, 3)
	chunks := s.Split(doc(text))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Each chunk must appear verbatim at its coverage position; consecutive
	// chunks overlap by exactly the configured amount.
	pos := 0
	for i, ch := range chunks {
		if !strings.HasPrefix(text[pos:], ch.Text) {
			t.Fatalf("chunk %d %q does not match text at offset %d", i, ch.Text, pos)
		}
		pos += len(ch.Text) - 3
	}
	if pos+3 != len(text) {
		t.Errorf("coverage ends at %d, text length %d", pos+3, len(text))
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	text := "First paragraph here.\n\nSecond one is a bit longer and continues."
	s := NewSplitter(30, 0)
	chunks := s.Split(doc(text))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "First paragraph here.\n\n" {
		t.Errorf("first chunk: got %q, want split at paragraph break", chunks[0].Text)
	}
}

func TestSplit_HardSplitUnbreakableToken(t *testing.T) {
	s := NewSplitter(16, 4)
	chunks := s.Split(doc(strings.Repeat("x", 100)))
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, ch := range chunks {
		if len(ch.Text) > 16 {
			t.Errorf("chunk %d: hard split exceeded bound: %d chars", i, len(ch.Text))
		}
	}
}

func TestSplit_HardSplitMultiByteText(t *testing.T) {
	// CJK text has no ASCII separators, so every window hard-splits; offsets
	// must count characters, never landing inside a rune.
	text := strings.Repeat("公司政策规定员工每年享有十二天带薪假期", 20)
	s := NewSplitter(100, 10)
	chunks := s.Split(doc(text))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if !utf8.ValidString(ch.Text) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, ch.Text)
		}
		if n := utf8.RuneCountInString(ch.Text); n > 100 {
			t.Errorf("chunk %d exceeds bound: %d chars", i, n)
		}
	}
	// Coverage in rune space: each chunk appears verbatim at its position and
	// consecutive chunks overlap by exactly the configured amount.
	runes := []rune(text)
	pos := 0
	for i, ch := range chunks {
		chRunes := []rune(ch.Text)
		if string(runes[pos:pos+len(chRunes)]) != ch.Text {
			t.Fatalf("chunk %d does not match text at rune offset %d", i, pos)
		}
		pos += len(chRunes) - 10
	}
	if pos+10 != len(runes) {
		t.Errorf("coverage ends at %d, text has %d runes", pos+10, len(runes))
	}
}

func TestSplit_OverlapStepMultiByteText(t *testing.T) {
	// Mixed-width text where the boundary search finds a space: the overlap
	// tail must be whole characters from the previous chunk.
	text := strings.Repeat("休暇は十二日間です。 ", 30)
	s := NewSplitter(25, 5)
	chunks := s.Split(doc(text))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if !utf8.ValidString(ch.Text) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, ch.Text)
		}
	}
	first, second := []rune(chunks[0].Text), chunks[1].Text
	tail := string(first[len(first)-5:])
	if !strings.HasPrefix(second, tail) {
		t.Errorf("second chunk %q does not start with tail %q of first", second, tail)
	}
}

func TestSplit_ProgressWhenOverlapExceedsCut(t *testing.T) {
	// Tiny cuts with a large overlap must still terminate.
	s := NewSplitter(6, 5)
	chunks := s.Split(doc("a b c d e f g h i j k l m n o p"))
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, ch := range chunks {
		if len(ch.Text) > 6 {
			t.Errorf("chunk %d exceeds bound: %q", i, ch.Text)
		}
	}
}
