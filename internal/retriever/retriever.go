// Package retriever orchestrates similarity retrieval over the index store.
package retriever

import (
	"context"
	"fmt"

	"github.com/kotae-dev/kotae/internal/models"
	"github.com/kotae-dev/kotae/internal/vectorstore"
	"go.uber.org/zap"
)

// Retriever issues similarity queries and shapes results into ranked passages.
// Rank order comes from the index store unmodified.
type Retriever struct {
	store  vectorstore.Store
	logger *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever over store.
func NewRetriever(store vectorstore.Store, opts ...RetrieverOption) *Retriever {
	r := &Retriever{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns up to k passages relevant to question, best-first. An
// index store that has never been populated yields an empty result, not an
// error; only an unreachable service fails.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]models.RetrievedPassage, error) {
	if k < 1 {
		return nil, fmt.Errorf("result count must be at least 1, got %d", k)
	}
	passages, err := r.store.Query(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("index store query: %w", err)
	}
	if len(passages) > k {
		passages = passages[:k]
	}
	if r.logger != nil {
		r.logger.Debug("retrieved passages", zap.String("question", question), zap.Int("count", len(passages)))
	}
	return passages, nil
}
