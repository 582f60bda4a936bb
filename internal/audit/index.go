package audit

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// indexDoc is the shape of an entry inside the search index. Only the fields
// worth searching are mirrored; the SQLite row holds everything else.
type indexDoc struct {
	Actor      string `json:"actor"`
	Department string `json:"department"`
	Query      string `json:"query"`
	Response   string `json:"response"`
}

// Index is a Bleve full-text index over audit entries.
type Index struct {
	index bleve.Index
}

// NewIndex creates or opens a Bleve index at path. An existing index is
// opened and reused; remove the directory to force a rebuild after a
// mapping change.
func NewIndex(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open audit index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a search for
	// the exact word an auditor saw in a response matches it.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("actor", textFieldMapping)
	docMapping.AddFieldMappingsAt("department", textFieldMapping)
	docMapping.AddFieldMappingsAt("query", textFieldMapping)
	docMapping.AddFieldMappingsAt("response", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit index: %w", err)
	}
	return &Index{index: index}, nil
}

// Add indexes an entry by its ID.
func (i *Index) Add(e Entry) error {
	return i.index.Index(e.ID, indexDoc{
		Actor:      e.Actor,
		Department: e.Department,
		Query:      e.Query,
		Response:   e.Response,
	})
}

// Search runs a match query and returns up to limit entry IDs, best first.
func (i *Index) Search(query string, limit int) ([]string, error) {
	if limit < 1 {
		limit = 50
	}
	search := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	search.Size = limit
	results, err := i.index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("audit search failed: %w", err)
	}
	ids := make([]string, len(results.Hits))
	for n, hit := range results.Hits {
		ids[n] = hit.ID
	}
	return ids, nil
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}
