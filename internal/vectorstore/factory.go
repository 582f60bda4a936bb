package vectorstore

import (
	"fmt"
	"time"

	"github.com/kotae-dev/kotae/internal/config"
)

// New creates a Store from config. Supported types: "chroma", "memory".
func New(cfg *config.VectorConfig) (Store, error) {
	switch cfg.Type {
	case "chroma", "":
		return NewChromaStore(ChromaConfig{
			URL:        cfg.URL,
			Collection: cfg.Collection,
			Timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		}), nil
	case "memory":
		return NewMemoryStore(cfg.Collection), nil
	default:
		return nil, fmt.Errorf("unknown vector store type: %s", cfg.Type)
	}
}
