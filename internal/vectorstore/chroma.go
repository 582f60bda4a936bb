package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kotae-dev/kotae/internal/models"
)

// ChromaStore is a minimal REST client to a Chroma vector search service.
// Embedding happens server-side: both ingest and query carry raw text.
type ChromaStore struct {
	url        string
	collection string
	client     *http.Client
}

// ChromaConfig contains connection details for a Chroma store.
type ChromaConfig struct {
	URL        string
	Collection string
	Timeout    time.Duration
}

// NewChromaStore creates a Chroma-backed store. No connection is made until
// the first operation.
func NewChromaStore(cfg ChromaConfig) *ChromaStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ChromaStore{
		url:        cfg.URL,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Ingest deletes any prior generation of the collection, creates a fresh one,
// and adds every chunk with a synthetic unique id, its text, and its metadata.
func (s *ChromaStore) Ingest(ctx context.Context, chunks []models.Chunk) error {
	// Absence of the collection is fine; only transport failures abort.
	if err := s.deleteCollection(ctx); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	id, err := s.createCollection(ctx)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	metadatas := make([]map[string]any, len(chunks))
	for i, ch := range chunks {
		if ch.ID == "" {
			ch.ID = uuid.New().String()
		}
		ids[i] = ch.ID
		documents[i] = ch.Text
		metadatas[i] = metadataToMap(ch.Meta)
	}
	body := map[string]any{"ids": ids, "documents": documents, "metadatas": metadatas}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/api/v1/collections/%s/add", s.url, id), body, nil); err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}
	return nil
}

// Query runs a similarity search over the collection. A missing collection
// returns an empty result.
func (s *ChromaStore) Query(ctx context.Context, text string, k int) ([]models.RetrievedPassage, error) {
	if k <= 0 {
		k = 1
	}
	id, ok, err := s.getCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	if !ok {
		return nil, nil
	}

	req := map[string]any{
		"query_texts": []string{text},
		"n_results":   k,
		"include":     []string{"documents", "metadatas"},
	}
	var resp struct {
		Documents [][]string         `json:"documents"`
		Metadatas [][]map[string]any `json:"metadatas"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/api/v1/collections/%s/query", s.url, id), req, &resp); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(resp.Documents) == 0 {
		return nil, nil
	}
	passages := make([]models.RetrievedPassage, 0, len(resp.Documents[0]))
	for i, text := range resp.Documents[0] {
		var meta models.Metadata
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			meta = metadataFromMap(resp.Metadatas[0][i])
		}
		passages = append(passages, models.RetrievedPassage{Text: text, Meta: meta, Rank: i + 1})
	}
	return passages, nil
}

// Stats returns the chunk count, or the zero sentinel when the collection
// does not exist.
func (s *ChromaStore) Stats(ctx context.Context) (Stats, error) {
	id, ok, err := s.getCollection(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("get collection: %w", err)
	}
	if !ok {
		return Stats{}, nil
	}
	var count int
	if err := s.getJSON(ctx, fmt.Sprintf("%s/api/v1/collections/%s/count", s.url, id), &count); err != nil {
		return Stats{}, fmt.Errorf("count: %w", err)
	}
	return Stats{TotalChunks: count, Collection: s.collection}, nil
}

// Clear deletes the collection. A collection that was never created counts
// as success.
func (s *ChromaStore) Clear(ctx context.Context) error {
	if err := s.deleteCollection(ctx); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// getCollection resolves the collection name to its id. The second return is
// false when the collection does not exist.
func (s *ChromaStore) getCollection(ctx context.Context) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/v1/collections/%s", s.url, s.collection), nil)
	if err != nil {
		return "", false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return "", false, fmt.Errorf("get collection: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		// Chroma reports an unknown collection as a request error, not a
		// transport failure; callers degrade to an empty result.
		return "", false, nil
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, err
	}
	return out.ID, true, nil
}

func (s *ChromaStore) createCollection(ctx context.Context) (string, error) {
	body := map[string]any{"name": s.collection}
	var out struct {
		ID string `json:"id"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/api/v1/collections", s.url), body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (s *ChromaStore) deleteCollection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/api/v1/collections/%s", s.url, s.collection), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	// 4xx means the collection did not exist, which is fine; 5xx is a real
	// service failure and must surface.
	if resp.StatusCode >= 500 {
		return fmt.Errorf("chroma DELETE %s failed: %s", req.URL, resp.Status)
	}
	return nil
}

func (s *ChromaStore) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (s *ChromaStore) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma GET %s failed: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func metadataToMap(m models.Metadata) map[string]any {
	data, _ := json.Marshal(m)
	out := map[string]any{}
	_ = json.Unmarshal(data, &out)
	return out
}

func metadataFromMap(m map[string]any) models.Metadata {
	data, _ := json.Marshal(m)
	var out models.Metadata
	_ = json.Unmarshal(data, &out)
	return out
}
