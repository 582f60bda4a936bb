package vectorstore

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kotae-dev/kotae/internal/models"
)

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// MemoryStore is an in-process Store ranking chunks by lexical overlap
// (Ochiai coefficient). Suitable for tests and running without a vector
// search service.
type MemoryStore struct {
	collection string
	mu         sync.RWMutex
	chunks     []models.Chunk
	created    bool
}

// NewMemoryStore creates an empty in-memory store for the named collection.
func NewMemoryStore(collection string) *MemoryStore {
	return &MemoryStore{collection: collection}
}

// Ingest replaces the current generation with chunks.
func (s *MemoryStore) Ingest(ctx context.Context, chunks []models.Chunk) error {
	copied := make([]models.Chunk, len(chunks))
	for i, ch := range chunks {
		if ch.ID == "" {
			ch.ID = uuid.New().String()
		}
		copied[i] = ch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = copied
	s.created = true
	return nil
}

// Query ranks chunks by lexical similarity to text, best-first. A store that
// was never ingested into returns an empty result.
func (s *MemoryStore) Query(ctx context.Context, text string, k int) ([]models.RetrievedPassage, error) {
	if k <= 0 {
		k = 1
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created || len(s.chunks) == 0 {
		return nil, nil
	}

	qset := tokenSet(text)
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.chunks))
	for i, ch := range s.chunks {
		scores[i] = scored{idx: i, score: ochiai(qset, ch.Text)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if k > len(scores) {
		k = len(scores)
	}
	passages := make([]models.RetrievedPassage, k)
	for i := 0; i < k; i++ {
		ch := s.chunks[scores[i].idx]
		passages[i] = models.RetrievedPassage{Text: ch.Text, Meta: ch.Meta, Rank: i + 1}
	}
	return passages, nil
}

// Stats reports the chunk count, or the zero sentinel before the first ingest.
func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created {
		return Stats{}, nil
	}
	return Stats{TotalChunks: len(s.chunks), Collection: s.collection}, nil
}

// Clear drops the collection. Clearing a never-created collection succeeds.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.created = false
	return nil
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// ochiai scores token-set overlap: |A∩B| / sqrt(|A||B|).
func ochiai(qset map[string]struct{}, text string) float64 {
	tset := tokenSet(text)
	if len(qset) == 0 || len(tset) == 0 {
		return 0
	}
	inter := 0
	for t := range tset {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(tset)))
}
