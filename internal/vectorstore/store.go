// Package vectorstore defines the index store contract and its implementations.
package vectorstore

import (
	"context"

	"github.com/kotae-dev/kotae/internal/models"
)

// Stats describes the indexed collection. TotalChunks is zero and Collection
// empty when the collection does not exist.
type Stats struct {
	TotalChunks int    `json:"total_chunks"`
	Collection  string `json:"collection"`
}

// Store persists chunks into a named collection and supports similarity search.
// The collection name is a single process-wide constant: the system manages
// exactly one logical knowledge base.
type Store interface {
	// Ingest replaces the collection: any existing generation is deleted, a
	// fresh collection is created, and each chunk is inserted as an
	// independent record. Absence of a prior collection is not an error.
	Ingest(ctx context.Context, chunks []models.Chunk) error

	// Query returns up to k passages most similar to text, ranked best-first.
	// A nonexistent collection yields an empty result, not an error.
	Query(ctx context.Context, text string, k int) ([]models.RetrievedPassage, error)

	// Stats reports the chunk count, best effort. A missing collection yields
	// the zero sentinel rather than an error.
	Stats(ctx context.Context) (Stats, error)

	// Clear deletes the collection. Absence of the collection is success;
	// failures of the underlying service are still reported.
	Clear(ctx context.Context) error
}
